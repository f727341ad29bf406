package candidates

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/ai-interviewer/internal/session"
	"github.com/spigell/ai-interviewer/internal/validation"
)

func newTestRegistry() (*Registry, *session.MemoryStore) {
	store := session.NewMemoryStore()
	registry := NewRegistry(store, zap.NewNop())

	n := 0
	var mu sync.Mutex
	registry.newID = func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return registry, store
}

func TestRegisterSameEmailTwice(t *testing.T) {
	registry, store := newTestRegistry()
	ctx := context.Background()

	first, err := registry.Register(ctx, RegisterInput{Name: " Jane Doe ", Email: "jane@example.com", Phone: "+1 555 123 4567"})
	require.NoError(t, err)
	assert.Equal(t, MessageRegistered, first.Message)
	assert.Equal(t, "Jane Doe", first.Name)

	second, err := registry.Register(ctx, RegisterInput{Name: "J. Doe", Email: "jane@example.com"})
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, MessageAlreadyRegistered, second.Message)
	assert.Equal(t, "Jane Doe", second.Name)
	assert.True(t, second.Existing)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	stored, err := store.Get(ctx, first.SessionID)
	require.NoError(t, err)
	assert.Zero(t, stored.FinalScore)
	assert.Nil(t, stored.Summary)
	assert.Empty(t, stored.Answers)
}

func TestRegisterNamePhoneFallback(t *testing.T) {
	registry, _ := newTestRegistry()
	ctx := context.Background()

	first, err := registry.Register(ctx, RegisterInput{Name: "John Smith", Phone: "020 7946 0958"})
	require.NoError(t, err)

	same, err := registry.Register(ctx, RegisterInput{Name: "John Smith", Phone: "020 7946 0958"})
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, same.SessionID)

	otherPhone, err := registry.Register(ctx, RegisterInput{Name: "John Smith", Phone: "020 7946 0000"})
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID, otherPhone.SessionID)

	// an email never falls back to name and phone
	withEmail, err := registry.Register(ctx, RegisterInput{Name: "John Smith", Email: "john@example.com", Phone: "020 7946 0958"})
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID, withEmail.SessionID)
	assert.Equal(t, MessageRegistered, withEmail.Message)
}

func TestRegisterReusesResumeSession(t *testing.T) {
	registry, _ := newTestRegistry()
	ctx := context.Background()

	id, err := registry.CreateFromResume(ctx, "Jane Doe", "jane@example.com", "")
	require.NoError(t, err)

	reg, err := registry.Register(ctx, RegisterInput{Name: "Jane Doe", Email: "JANE@example.com"})
	require.NoError(t, err)
	assert.Equal(t, id, reg.SessionID)
}

func TestRegisterRequiresName(t *testing.T) {
	registry, _ := newTestRegistry()

	_, err := registry.Register(context.Background(), RegisterInput{Name: "   ", Email: "x@example.com"})
	require.Error(t, err)
	assert.True(t, validation.IsError(err))
	assert.Equal(t, "Name is required", err.Error())
}

func TestRegisterUsesUUIDs(t *testing.T) {
	registry := NewRegistry(session.NewMemoryStore(), nil)

	reg, err := registry.Register(context.Background(), RegisterInput{Name: "Ada Lovelace"})
	require.NoError(t, err)
	assert.Len(t, reg.SessionID, 36)
}

func TestRegisterConcurrentSameEmail(t *testing.T) {
	registry, store := newTestRegistry()
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]string, 10)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reg, err := registry.Register(ctx, RegisterInput{Name: "Jane", Email: "jane@example.com"})
			if err == nil {
				ids[i] = reg.SessionID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRegistryClock(t *testing.T) {
	registry, store := newTestRegistry()
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	registry.now = func() time.Time { return fixed }

	reg, err := registry.Register(context.Background(), RegisterInput{Name: "Jane"})
	require.NoError(t, err)

	stored, err := store.Get(context.Background(), reg.SessionID)
	require.NoError(t, err)
	assert.True(t, stored.CreatedAt.Equal(fixed))
}
