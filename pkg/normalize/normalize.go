// Package normalize flattens raw Graph records into rows with derived
// columns. Every function here is pure: input records are never modified
// and the same input always yields equal rows.
package normalize

import (
	"sort"

	"graphharvest/pkg/graph"
	"graphharvest/pkg/rows"
)

// Column names added to every normalized row
const (
	ColOriginID       = "origin_id"
	ColID             = "id"
	ColCreatedTime    = "created_time"
	ColCommentsCount  = "comments_count"
	ColLikesCount     = "likes_count"
	ColReactionsCount = "reactions_count"
	ColSharesCount    = "shares_count"
	ColInteractions   = "interactions"
	ColPostLink       = "post_link"
	ColFromID         = "from_id"
	ColFromName       = "from_name"
	ColLikeCount      = "like_count"
)

// Posts normalizes post records fetched under originID. linkBase is the
// host used to build post_link.
func Posts(records []graph.Record, originID, linkBase string) []*rows.Row {
	out := make([]*rows.Row, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		out = append(out, Post(rec, originID, linkBase))
	}
	return out
}

// Post normalizes a single post record
func Post(rec graph.Record, originID, linkBase string) *rows.Row {
	row := passThrough(rec)

	if ts, ok := rec.Time(ColCreatedTime); ok {
		row.Set(ColCreatedTime, ts)
	} else {
		row.Set(ColCreatedTime, nil)
	}

	comments := count(rec, "comments", "summary", "total_count")
	likes := count(rec, "likes", "summary", "total_count")
	if likes == nil {
		likes = count(rec, ColLikeCount)
	}
	reactions := count(rec, "reactions", "summary", "total_count")
	shares := count(rec, "shares", "count")
	if shares == nil {
		shares = int64(0)
	}

	row.Set(ColCommentsCount, comments)
	row.Set(ColLikesCount, likes)
	row.Set(ColReactionsCount, reactions)
	row.Set(ColSharesCount, shares)
	row.Set(ColInteractions, sum(comments, likes, reactions, shares))

	if id, ok := rec.Str(ColID); ok {
		row.Set(ColPostLink, graph.PostLink(linkBase, id))
	} else {
		row.Set(ColPostLink, nil)
	}

	row.Set(ColFromID, str(rec, "from", "id"))
	row.Set(ColFromName, str(rec, "from", "name"))
	row.Set(ColOriginID, originID)
	return row
}

// Comments normalizes comment records fetched under the post originID
func Comments(records []graph.Record, originID string) []*rows.Row {
	out := make([]*rows.Row, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		row := passThrough(rec)
		row.Set(ColOriginID, originID)
		out = append(out, row)
	}
	return out
}

// Profile normalizes a profile info record requested as originID
func Profile(rec graph.Record, originID string) *rows.Row {
	row := passThrough(rec)
	row.Set(ColOriginID, originID)
	return row
}

// passThrough copies every source field: id first, the rest sorted
func passThrough(rec graph.Record) *rows.Row {
	cp := rec.Clone()
	row := rows.New()
	if id, ok := cp[ColID]; ok {
		row.Set(ColID, id)
	}

	keys := make([]string, 0, len(cp))
	for k := range cp {
		if k != ColID {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		row.Set(k, cp[k])
	}
	return row
}

// count returns the integer at path, or nil when absent
func count(rec graph.Record, path ...string) interface{} {
	if n, ok := rec.Int(path...); ok {
		return n
	}
	return nil
}

func str(rec graph.Record, path ...string) interface{} {
	if s, ok := rec.Str(path...); ok {
		return s
	}
	return nil
}

// sum adds the counters that are present
func sum(values ...interface{}) int64 {
	var total int64
	for _, v := range values {
		if n, ok := v.(int64); ok {
			total += n
		}
	}
	return total
}
