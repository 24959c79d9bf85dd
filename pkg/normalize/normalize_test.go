package normalize

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"graphharvest/pkg/graph"
)

const linkBase = "https://facebook.com"

func decodeRecord(t *testing.T, body string) graph.Record {
	t.Helper()
	var r graph.Record
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&r))
	return r
}

func get(t *testing.T, row interface {
	Get(string) (interface{}, bool)
}, key string) interface{} {
	t.Helper()
	v, ok := row.Get(key)
	require.True(t, ok, "column %s missing", key)
	return v
}

func TestPostScenario(t *testing.T) {
	rec := decodeRecord(t, `{"id":"42","created_time":"2020-01-01T00:00:00+0000","likes":{"summary":{"total_count":3}}}`)

	row := Post(rec, "42", linkBase)

	assert.Equal(t, int64(3), get(t, row, ColLikesCount))
	assert.Equal(t, "https://facebook.com/42", get(t, row, ColPostLink))
	assert.Equal(t, int64(3), get(t, row, ColInteractions))
	assert.Equal(t, int64(0), get(t, row, ColSharesCount))
	assert.Nil(t, get(t, row, ColCommentsCount))
	assert.Nil(t, get(t, row, ColReactionsCount))
	assert.Equal(t, "42", get(t, row, ColOriginID))

	created, ok := get(t, row, ColCreatedTime).(time.Time)
	require.True(t, ok)
	assert.True(t, created.Equal(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.UTC, created.Location())
}

func TestPostAllCounters(t *testing.T) {
	rec := decodeRecord(t, `{
		"id": "1_2",
		"created_time": "2021-03-04T05:06:07+0100",
		"from": {"id": "1", "name": "Acme"},
		"comments": {"data": [], "summary": {"total_count": 5}},
		"likes": {"summary": {"total_count": 10}},
		"reactions": {"summary": {"total_count": 12}},
		"shares": {"count": 2},
		"message": "hello"
	}`)

	row := Post(rec, "1", linkBase)

	assert.Equal(t, int64(5), get(t, row, ColCommentsCount))
	assert.Equal(t, int64(10), get(t, row, ColLikesCount))
	assert.Equal(t, int64(12), get(t, row, ColReactionsCount))
	assert.Equal(t, int64(2), get(t, row, ColSharesCount))
	assert.Equal(t, int64(29), get(t, row, ColInteractions))
	assert.Equal(t, "1", get(t, row, ColFromID))
	assert.Equal(t, "Acme", get(t, row, ColFromName))
	assert.Equal(t, "1", get(t, row, ColOriginID))
	assert.Equal(t, "hello", get(t, row, "message"))

	created := get(t, row, ColCreatedTime).(time.Time)
	assert.Equal(t, 4, created.Hour())

	keys := row.Keys()
	assert.Equal(t, ColID, keys[0])
	assert.Equal(t, ColOriginID, keys[len(keys)-1])
}

func TestLikesFallback(t *testing.T) {
	flat := decodeRecord(t, `{"id":"1","like_count":7}`)
	assert.Equal(t, int64(7), get(t, Post(flat, "1", linkBase), ColLikesCount))

	neither := decodeRecord(t, `{"id":"1"}`)
	row := Post(neither, "1", linkBase)
	assert.Nil(t, get(t, row, ColLikesCount))
	assert.Equal(t, int64(0), get(t, row, ColInteractions))
}

func TestMissingFieldsTolerated(t *testing.T) {
	rec := decodeRecord(t, `{"message":"no id, no author","created_time":"not a date"}`)

	row := Post(rec, "origin", linkBase)

	assert.Nil(t, get(t, row, ColPostLink))
	assert.Nil(t, get(t, row, ColFromID))
	assert.Nil(t, get(t, row, ColFromName))
	assert.Nil(t, get(t, row, ColCreatedTime))
	assert.Equal(t, "origin", get(t, row, ColOriginID))
}

func TestNormalizeIsIdempotentAndPure(t *testing.T) {
	rec := decodeRecord(t, `{"id":"9","created_time":"2020-05-05T00:00:00+0000","from":{"id":"3","name":"X"},"shares":{"count":1}}`)
	before := rec.Clone()

	a := Post(rec, "3", linkBase)
	b := Post(rec, "3", linkBase)

	assert.Equal(t, a.Keys(), b.Keys())
	assert.Equal(t, a.Map(), b.Map())
	assert.Equal(t, before, rec)

	a.Set("from", "changed")
	assert.Equal(t, before, rec)
}

func TestPostsSkipsNilAndKeepsOrder(t *testing.T) {
	out := Posts([]graph.Record{
		{"id": "1"},
		nil,
		{"id": "2"},
	}, "p", linkBase)

	require.Len(t, out, 2)
	assert.Equal(t, "1", get(t, out[0], ColID))
	assert.Equal(t, "2", get(t, out[1], ColID))
}

func TestComments(t *testing.T) {
	out := Comments([]graph.Record{
		{"id": "c1", "like_count": json.Number("4"), "message": "first"},
		{"id": "c2", "message": "second"},
	}, "post1")

	require.Len(t, out, 2)
	assert.Equal(t, "post1", get(t, out[0], ColOriginID))
	assert.Equal(t, json.Number("4"), get(t, out[0], ColLikeCount))
	assert.Equal(t, []string{"id", "message", "origin_id"}, out[1].Keys())
}

func TestProfile(t *testing.T) {
	row := Profile(graph.Record{"id": "123", "name": "Acme", "fan_count": json.Number("1000")}, "acme")

	assert.Equal(t, []string{"id", "fan_count", "name", "origin_id"}, row.Keys())
	assert.Equal(t, "acme", get(t, row, ColOriginID))
}
