package graph

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// EdgePosts is the posts connection of a page or profile
	EdgePosts = "posts"

	// EdgeComments is the comments connection of a post or comment
	EdgeComments = "comments"

	// MaxPageLimit is the largest page size the posts edge honours
	MaxPageLimit = 100
)

// buildURL joins base, version and path segments and encodes params
func buildURL(base, version string, segments []string, params url.Values) string {
	parts := make([]string, 0, len(segments)+1)
	if version != "" {
		parts = append(parts, url.PathEscape(version))
	}
	for _, s := range segments {
		parts = append(parts, url.PathEscape(s))
	}

	u := strings.TrimRight(base, "/") + "/" + strings.Join(parts, "/")
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// FieldParams returns query params requesting the given field spec
func FieldParams(fields string) url.Values {
	params := url.Values{}
	if fields != "" {
		params.Set("fields", fields)
	}
	return params
}

// WindowParams returns the first-page params for a time bounded posts
// request. since and until are sent as unix seconds; limit is clamped to
// [1, MaxPageLimit].
func WindowParams(since, until time.Time, limit int) url.Values {
	if limit <= 0 {
		limit = 1
	} else if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("since", strconv.FormatInt(since.Unix(), 10))
	params.Set("until", strconv.FormatInt(until.Unix(), 10))
	return params
}

// PostLink builds the public permalink for a post id
func PostLink(base, id string) string {
	return strings.TrimRight(base, "/") + "/" + id
}
