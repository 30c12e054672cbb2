package redisstore

import (
	"context"
	"testing"
	"time"

	"pdf-annotator-be/pkg/annotation"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T, ttl time.Duration) (*SessionRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewSessionRepository(rdb, ttl), mr
}

func sampleSession(id string) *annotation.Session {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &annotation.Session{
		ID:          id,
		DocumentRef: "/tmp/doc.pdf",
		Pages: []annotation.PageDescriptor{
			{PageNum: 0, OrigWidth: 612, OrigHeight: 792, RenderScale: 2},
			{PageNum: 1, OrigWidth: 300, OrigHeight: 400, RenderScale: 2},
		},
		Annotations: []annotation.Record{
			{ID: "a", PageNum: 0, X: 1.5, Y: 2.25, Type: annotation.TypeCross},
			{ID: "b", PageNum: 1, X: 10, Y: 20, Type: annotation.TypeBlueMark},
		},
		CreatedAt: created,
		UpdatedAt: created.Add(time.Minute),
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "annotator:session:abc", Key("abc"))
}

func TestRoundTrip(t *testing.T) {
	repo, mr := newTestRepository(t, time.Minute)
	ctx := context.Background()
	s := sampleSession("s1")

	require.NoError(t, repo.Save(ctx, s))
	assert.True(t, mr.Exists(Key("s1")))

	got, found, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, s.DocumentRef, got.DocumentRef)
	assert.Equal(t, s.Pages, got.Pages)
	assert.Equal(t, s.Annotations, got.Annotations)
	assert.True(t, s.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, s.UpdatedAt.Equal(got.UpdatedAt))

	require.NoError(t, repo.Delete(ctx, "s1"))
	_, found, err = repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetMissing(t *testing.T) {
	repo, _ := newTestRepository(t, time.Minute)

	got, found, err := repo.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestSaveRefreshesTTL(t *testing.T) {
	repo, mr := newTestRepository(t, time.Minute)
	ctx := context.Background()
	s := sampleSession("s1")

	require.NoError(t, repo.Save(ctx, s))
	assert.Equal(t, time.Minute, mr.TTL(Key("s1")))

	mr.FastForward(40 * time.Second)
	assert.Equal(t, 20*time.Second, mr.TTL(Key("s1")))

	require.NoError(t, repo.Save(ctx, s))
	assert.Equal(t, time.Minute, mr.TTL(Key("s1")))

	mr.FastForward(61 * time.Second)
	_, found, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetCorruptValue(t *testing.T) {
	repo, mr := newTestRepository(t, time.Minute)
	require.NoError(t, mr.Set(Key("s1"), "{not json"))

	_, found, err := repo.Get(context.Background(), "s1")
	assert.Error(t, err)
	assert.False(t, found)
}

func TestDefaultTTL(t *testing.T) {
	repo, mr := newTestRepository(t, 0)
	require.NoError(t, repo.Save(context.Background(), sampleSession("s1")))
	assert.Equal(t, time.Hour, mr.TTL(Key("s1")))
}
