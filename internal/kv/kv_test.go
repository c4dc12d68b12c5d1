package kv_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-events/internal/kv"
)

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func exercise(t *testing.T, s kv.Store) {
	t.Helper()

	_, err := s.Get("missing")
	require.ErrorIs(t, err, kv.ErrNotFound)

	var got doc
	ok, err := kv.GetJSON(s, "missing", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.PutJSON(s, "doc", doc{Name: "a", Count: 1}))
	require.NoError(t, kv.PutJSON(s, "doc", doc{Name: "b", Count: 2}))

	ok, err = kv.GetJSON(s, "doc", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, doc{Name: "b", Count: 2}, got)

	require.NoError(t, s.Delete("doc"))
	require.NoError(t, s.Delete("doc"))
	_, err = s.Get("doc")
	require.ErrorIs(t, err, kv.ErrNotFound)
}

func TestMemory(t *testing.T) {
	exercise(t, kv.NewMemory())
}

func TestMemoryCopiesValues(t *testing.T) {
	m := kv.NewMemory()
	v := []byte("abc")
	require.NoError(t, m.Put("k", v))
	v[0] = 'z'

	got, err := m.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestFile(t *testing.T) {
	f, err := kv.NewFile(t.TempDir())
	require.NoError(t, err)
	exercise(t, f)
}

func TestFileSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	f, err := kv.NewFile(dir)
	require.NoError(t, err)
	require.NoError(t, f.Put("cached_events", []byte(`{"items":[]}`)))

	reopened, err := kv.NewFile(dir)
	require.NoError(t, err)
	got, err := reopened.Get("cached_events")
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[]}`, string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileRejectsPathKeys(t *testing.T) {
	f, err := kv.NewFile(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, f.Put("../escape", []byte("x")))
	_, err = f.Get("a/b")
	assert.Error(t, err)
	assert.Error(t, f.Delete(""))
}

func TestGetJSONReportsCorruptValues(t *testing.T) {
	m := kv.NewMemory()
	require.NoError(t, m.Put("doc", []byte("{not json")))

	var got doc
	_, err := kv.GetJSON(m, "doc", &got)
	assert.Error(t, err)
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	r, err := kv.NewRedis(addr, "campus-events-test:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	exercise(t, r)
}
