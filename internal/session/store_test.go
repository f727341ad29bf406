package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  NewRedisStore(client, "test:", 0),
	}
}

func TestStoreContract(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			_, err = store.Update(ctx, "missing", func(*Session) error { return nil })
			assert.ErrorIs(t, err, ErrNotFound)

			first := New("a", "Jane Doe", "jane@example.com", "", now)
			second := New("b", "John Roe", "", "+1 555 000 1111", now.Add(time.Second))
			require.NoError(t, store.Create(ctx, second))
			require.NoError(t, store.Create(ctx, first))

			got, err := store.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, "Jane Doe", got.Name)
			assert.Empty(t, got.Answers)
			assert.Nil(t, got.Summary)

			updated, err := store.Update(ctx, "a", func(s *Session) error {
				return s.AppendQuestion("What is a closure?", Easy, now)
			})
			require.NoError(t, err)
			require.Len(t, updated.Answers, 1)

			boom := errors.New("boom")
			_, err = store.Update(ctx, "a", func(s *Session) error {
				s.Name = "should not persist"
				return boom
			})
			assert.ErrorIs(t, err, boom)

			got, err = store.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, "Jane Doe", got.Name)
			assert.Equal(t, "What is a closure?", got.Answers[0].Question)
			assert.Nil(t, got.Answers[0].Answer)

			// mutating a returned copy must not leak into the store
			got.Answers[0].Question = "tampered"
			again, err := store.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, "What is a closure?", again.Answers[0].Question)

			list, err := store.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "a", list[0].ID)
			assert.Equal(t, "b", list[1].ID)

			replacement := New("a", "Replaced", "", "", now)
			require.NoError(t, store.Create(ctx, replacement))
			got, err = store.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, "Replaced", got.Name)
			assert.Empty(t, got.Answers)
		})
	}
}

func TestStoreSingleWinnerOnConcurrentAnswers(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			s := New("race", "", "", "", now)
			require.NoError(t, s.AppendQuestion("q", Easy, now))
			require.NoError(t, store.Create(ctx, s))

			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				success int
				pending int
			)
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, err := store.Update(ctx, "race", func(s *Session) error {
						return s.RecordAnswer(fmt.Sprintf("answer %d", i), i, "", false, now)
					})
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						success++
					case errors.Is(err, ErrNoPendingQuestion):
						pending++
					default:
						t.Errorf("unexpected error: %v", err)
					}
				}(i)
			}
			wg.Wait()

			assert.Equal(t, 1, success)
			assert.Equal(t, 7, pending)

			got, err := store.Get(ctx, "race")
			require.NoError(t, err)
			assert.Equal(t, 1, got.Step)
		})
	}
}

func TestRedisStoreAppliesTTL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := NewRedisStore(client, "", time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, New("ttl", "", "", "", now)))
	assert.Equal(t, time.Hour, mr.TTL(defaultKeyPrefix+"session:ttl"))

	mr.FastForward(2 * time.Hour)

	_, err = store.Get(ctx, "ttl")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
