// Package enrich left-joins auxiliary per-entity data onto normalized rows.
package enrich

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"graphharvest/pkg/logger"
	"graphharvest/pkg/normalize"
	"graphharvest/pkg/rows"
)

const (
	// ProfilePrefix namespaces every profile column joined onto a row
	ProfilePrefix = "profile_"

	// ColCommentsReactions holds the summed comment likes of a post
	ColCommentsReactions = "comments_reactions"
)

// ProfileFetcher returns one profile row per requested id
type ProfileFetcher interface {
	ProfilesInfo(ctx context.Context, ids []string) ([]*rows.Row, error)
}

// CommentFetcher returns comment rows stamped with the post id as origin_id
type CommentFetcher interface {
	PostsComments(ctx context.Context, ids []string, n int) ([]*rows.Row, error)
}

// Profiles joins profile info onto in. key names the row column holding
// the profile id; it is matched against the profile row's origin_id. Rows
// without a matching profile keep missing profile columns.
func Profiles(ctx context.Context, in []*rows.Row, key string, f ProfileFetcher, log logger.Logger) ([]*rows.Row, error) {
	if len(in) == 0 {
		log.Warn("No rows collected, skipping profile info")
		return in, nil
	}

	ids := distinct(in, key)
	profiles, err := f.ProfilesInfo(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile info: %w", err)
	}

	info := prefixed(profiles)
	profileCols := rows.Columns(info)
	byID := make(map[string]*rows.Row, len(info))
	for _, p := range info {
		if id, ok := p.Get(ProfilePrefix + normalize.ColOriginID); ok {
			byID[keyString(id)] = p
		}
	}

	out := make([]*rows.Row, 0, len(in))
	for _, r := range in {
		joined := r.Clone()
		v, _ := r.Get(key)
		match := byID[keyString(v)]
		for _, col := range profileCols {
			var value interface{}
			if match != nil {
				value, _ = match.Get(col)
			}
			joined.Set(col, value)
		}
		out = append(out, joined)
	}

	log.DebugWithFields("Profile info joined", map[string]interface{}{
		"rows":     len(out),
		"profiles": len(byID),
	})
	return out, nil
}

// CommentReactions sums like_count of every comment per post and joins the
// total onto in as comments_reactions. Posts without comments get 0.
func CommentReactions(ctx context.Context, in []*rows.Row, f CommentFetcher, n int, log logger.Logger) ([]*rows.Row, error) {
	if len(in) == 0 {
		log.Warn("No rows collected, skipping comment reactions")
		return in, nil
	}

	ids := distinct(in, normalize.ColID)
	comments, err := f.PostsComments(ctx, ids, n)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch comments: %w", err)
	}

	totals := make(map[string]int64, len(ids))
	for _, c := range comments {
		origin, _ := c.Get(normalize.ColOriginID)
		likes, _ := c.Get(normalize.ColLikeCount)
		totals[keyString(origin)] += toInt(likes)
	}

	out := make([]*rows.Row, 0, len(in))
	for _, r := range in {
		joined := r.Clone()
		id, _ := r.Get(normalize.ColID)
		joined.Set(ColCommentsReactions, totals[keyString(id)])
		out = append(out, joined)
	}

	log.DebugWithFields("Comment reactions joined", map[string]interface{}{
		"rows":     len(out),
		"comments": len(comments),
	})
	return out, nil
}

// distinct returns the non-missing values of col in first-seen order
func distinct(in []*rows.Row, col string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range in {
		v, ok := r.Get(col)
		if !ok || v == nil {
			continue
		}
		s := keyString(v)
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func prefixed(in []*rows.Row) []*rows.Row {
	out := make([]*rows.Row, 0, len(in))
	for _, r := range in {
		p := rows.New()
		for _, k := range r.Keys() {
			v, _ := r.Get(k)
			p.Set(ProfilePrefix+k, v)
		}
		out = append(out, p)
	}
	return out
}

// keyString compares ids by their string form
func keyString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func toInt(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return int64(f)
		}
	}
	return 0
}
