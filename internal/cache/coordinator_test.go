package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/comment-board/backend/internal/logging"
)

type snapshot struct {
	ID    uint   `json:"id"`
	Score int    `json:"score"`
	Body  string `json:"body"`
}

// brokenBackend fails every call, like an unreachable Redis.
type brokenBackend struct {
	calls int
}

func (b *brokenBackend) Get(context.Context, string) ([]byte, error) {
	b.calls++
	return nil, errors.New("connection refused")
}

func (b *brokenBackend) Set(context.Context, string, []byte, time.Duration) error {
	b.calls++
	return errors.New("connection refused")
}

func (b *brokenBackend) Delete(context.Context, ...string) error {
	b.calls++
	return errors.New("connection refused")
}

func (b *brokenBackend) DeletePattern(context.Context, string) error {
	b.calls++
	return errors.New("connection refused")
}

func newLRUCoordinator(t *testing.T) (*Coordinator, *LRUBackend) {
	t.Helper()
	b, err := NewLRUBackend(16)
	require.NoError(t, err)
	return NewCoordinator(b, logging.Discard()), b
}

func TestReadThrough_SecondCallIsHit(t *testing.T) {
	c, _ := newLRUCoordinator(t)
	ctx := context.Background()

	calls := 0
	compute := func(context.Context) (snapshot, error) {
		calls++
		return snapshot{ID: 1, Score: 3, Body: "hello"}, nil
	}

	first, err := ReadThrough(ctx, c, CommentKey(1), compute)
	require.NoError(t, err)
	second, err := ReadThrough(ctx, c, CommentKey(1), compute)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestReadThrough_InvalidateForcesRecompute(t *testing.T) {
	c, _ := newLRUCoordinator(t)
	ctx := context.Background()

	score := 0
	compute := func(context.Context) (snapshot, error) {
		return snapshot{ID: 1, Score: score}, nil
	}

	v, err := ReadThrough(ctx, c, CommentKey(1), compute)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Score)

	score = 1
	c.Invalidate(ctx, CommentKey(1))

	v, err = ReadThrough(ctx, c, CommentKey(1), compute)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Score)
}

func TestReadThrough_ComputeErrorIsNotCached(t *testing.T) {
	c, b := newLRUCoordinator(t)
	ctx := context.Background()
	boom := errors.New("db down")

	_, err := ReadThrough(ctx, c, AllTopLevelKey, func(context.Context) ([]snapshot, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, b.Len())

	got, err := ReadThrough(ctx, c, AllTopLevelKey, func(context.Context) ([]snapshot, error) {
		return []snapshot{{ID: 2}}, nil
	})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestReadThrough_SkipsFillWhenInvalidatedDuringCompute(t *testing.T) {
	c, b := newLRUCoordinator(t)
	ctx := context.Background()

	v, err := ReadThrough(ctx, c, CommentKey(5), func(ctx context.Context) (snapshot, error) {
		// a mutation commits and invalidates while this read is in flight
		c.Invalidate(ctx, CommentKey(5))
		return snapshot{ID: 5, Score: 0}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint(5), v.ID)

	_, err = b.Get(ctx, CommentKey(5))
	assert.ErrorIs(t, err, ErrMiss)
}

func TestReadThrough_UndecodableEntryIsRecomputed(t *testing.T) {
	c, b := newLRUCoordinator(t)
	ctx := context.Background()
	require.NoError(t, b.Set(ctx, CommentKey(9), []byte("{not json"), time.Minute))

	v, err := ReadThrough(ctx, c, CommentKey(9), func(context.Context) (snapshot, error) {
		return snapshot{ID: 9}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint(9), v.ID)

	data, err := b.Get(ctx, CommentKey(9))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":9,"score":0,"body":""}`, string(data))
}

func TestCoordinator_BackendFailureDegrades(t *testing.T) {
	backend := &brokenBackend{}
	c := NewCoordinator(backend, logging.Discard(), WithTimeout(10*time.Millisecond))
	ctx := context.Background()

	calls := 0
	compute := func(context.Context) (snapshot, error) {
		calls++
		return snapshot{ID: 1, Score: calls}, nil
	}

	for i := 1; i <= 2; i++ {
		v, err := ReadThrough(ctx, c, CommentKey(1), compute)
		require.NoError(t, err)
		assert.Equal(t, i, v.Score)
	}

	assert.NotPanics(t, func() {
		c.Invalidate(ctx, CommentKey(1), AllCommentsPattern)
	})
	assert.Positive(t, backend.calls)
}

func TestInvalidate_Pattern(t *testing.T) {
	c, b := newLRUCoordinator(t)
	ctx := context.Background()

	for _, k := range []string{AllTopLevelKey, CommentKey(1), CommentKey(2), "users:1"} {
		require.NoError(t, b.Set(ctx, k, []byte(`{}`), time.Minute))
	}

	c.Invalidate(ctx, AllCommentsPattern)

	assert.Equal(t, 1, b.Len())
	_, err := b.Get(ctx, "users:1")
	assert.NoError(t, err)
}

func TestInvalidate_SurvivesCanceledRequest(t *testing.T) {
	c, b := newLRUCoordinator(t)
	require.NoError(t, b.Set(context.Background(), CommentKey(3), []byte(`{}`), time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Invalidate(ctx, CommentKey(3))

	_, err := b.Get(context.Background(), CommentKey(3))
	assert.ErrorIs(t, err, ErrMiss)
}

func TestCommentKey(t *testing.T) {
	assert.Equal(t, "comments:42", CommentKey(42))
	assert.Equal(t, "comments:all", AllTopLevelKey)
}
