package rows

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowOrder(t *testing.T) {
	r := New()
	r.Set("id", "1")
	r.Set("message", "hello")
	r.Set("origin_id", "42")
	r.Set("message", "updated")

	assert.Equal(t, []string{"id", "message", "origin_id"}, r.Keys())
	assert.Equal(t, 3, r.Len())

	v, ok := r.Get("message")
	require.True(t, ok)
	assert.Equal(t, "updated", v)
}

func TestRowMissing(t *testing.T) {
	r := New()
	r.Set("likes_count", nil)

	v, ok := r.Get("likes_count")
	assert.True(t, ok)
	assert.Nil(t, v)
	assert.False(t, r.Has("likes_count"))

	_, ok = r.Get("absent")
	assert.False(t, ok)
}

func TestRowCloneIsIndependent(t *testing.T) {
	r := New()
	r.Set("id", "1")

	cp := r.Clone()
	cp.Set("id", "2")
	cp.Set("extra", true)

	v, _ := r.Get("id")
	assert.Equal(t, "1", v)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 2, cp.Len())
}

func TestFromMapSortsKeys(t *testing.T) {
	r := FromMap(map[string]interface{}{"b": 2, "a": 1, "c": 3})
	assert.Equal(t, []string{"a", "b", "c"}, r.Keys())
	assert.Equal(t, map[string]interface{}{"a": 1, "b": 2, "c": 3}, r.Map())
}

func TestColumnsUnion(t *testing.T) {
	a := New()
	a.Set("id", "1")
	a.Set("message", "x")

	b := New()
	b.Set("id", "2")
	b.Set("story", "y")
	b.Set("message", "z")

	assert.Equal(t, []string{"id", "message", "story"}, Columns([]*Row{a, b}))
	assert.Empty(t, Columns(nil))
}

func TestFilterPreservesOrder(t *testing.T) {
	var rs []*Row
	for _, id := range []string{"1", "2", "3", "4"} {
		r := New()
		r.Set("id", id)
		rs = append(rs, r)
	}

	even := Filter(rs, func(r *Row) bool {
		v, _ := r.Get("id")
		return v == "2" || v == "4"
	})

	require.Len(t, even, 2)
	first, _ := even[0].Get("id")
	second, _ := even[1].Get("id")
	assert.Equal(t, "2", first)
	assert.Equal(t, "4", second)
}
