package config

import (
	"fmt"
	"strings"
)

// DefaultProfileFields are requested for page/profile objects.
var DefaultProfileFields = []string{"id", "fan_count", "username", "link", "name"}

// DefaultPostFields are requested for every post. The summary fields make
// the API return totals without paging through the nested connections.
var DefaultPostFields = []string{
	"id",
	"application",
	"caption",
	"created_time",
	"description",
	"from",
	"link",
	"message",
	"message_tags",
	"name",
	"object_id",
	"parent_id",
	"permalink_url",
	"picture",
	"place",
	"properties",
	"status_type",
	"story",
	"type",
	"updated_time",
	"comments.filter(stream).limit(0).summary(true)",
	"likes.limit(0).summary(true)",
	"shares",
	"reactions.summary(true)",
}

// DefaultCommentFields are requested for every comment.
var DefaultCommentFields = []string{
	"id",
	"comment_count",
	"created_time",
	"from",
	"like_count",
	"message",
	"message_tags",
	"object",
	"parent",
}

// DefaultInsightMetrics are requested when post insights are enabled.
var DefaultInsightMetrics = []string{
	"post_activity_by_action_type_unique",
	"post_impressions_unique",
	"post_impressions_paid_unique",
	"post_impressions_fan_unique",
	"post_impressions_fan_paid_unique",
	"post_impressions_organic_unique",
	"post_impressions_viral_unique",
	"post_impressions_nonviral_unique",
	"post_impressions_by_story_type_unique",
	"post_engaged_users",
	"post_negative_feedback_by_type_unique",
	"post_engaged_fan",
	"post_clicks_by_type_unique",
	"post_reactions_by_type_total",
}

// PostFieldSpec returns the comma separated post field list, with the
// insights field appended when enabled.
func (f FieldsConfig) PostFieldSpec() string {
	fields := append([]string(nil), f.Post...)
	if f.IncludeInsights && len(f.InsightMetrics) > 0 {
		fields = append(fields, fmt.Sprintf("insights.metric(%s)", strings.Join(f.InsightMetrics, ",")))
	}
	return strings.Join(fields, ",")
}

// CommentFieldSpec returns the comma separated comment field list.
func (f FieldsConfig) CommentFieldSpec() string {
	return strings.Join(f.Comment, ",")
}

// ProfileFieldSpec returns the comma separated profile field list.
func (f FieldsConfig) ProfileFieldSpec() string {
	return strings.Join(f.Profile, ",")
}
