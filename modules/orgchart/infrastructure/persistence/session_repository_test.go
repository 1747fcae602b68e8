package persistence

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/session"
)

func exerciseSessionRepository(t *testing.T, repo session.Repository) {
	t.Helper()
	ctx := context.Background()
	id := uuid.NewString()

	_, err := repo.Get(ctx, id)
	require.ErrorIs(t, err, session.ErrSessionNotFound)

	s := &session.Session{
		ID:         id,
		Expanded:   []string{"ceo", "cto"},
		SelectedID: "cto",
		Direction:  "LR",
		Filter:     employee.Filter{Department: "Engineering"},
		UpdatedAt:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, repo.Save(ctx, s))

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, s.Expanded, got.Expanded)
	require.Equal(t, "cto", got.SelectedID)
	require.Equal(t, "LR", got.Direction)
	require.Equal(t, "Engineering", got.Filter.Department)
	require.True(t, s.UpdatedAt.Equal(got.UpdatedAt))

	got.Expanded[0] = "mutated"
	again, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "ceo", again.Expanded[0])

	require.NoError(t, repo.Delete(ctx, id))
	_, err = repo.Get(ctx, id)
	require.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestMemorySessionRepository(t *testing.T) {
	exerciseSessionRepository(t, NewMemorySessionRepository(time.Minute))
}

func TestMemorySessionRepository_Expiry(t *testing.T) {
	repo := NewMemorySessionRepository(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	require.NoError(t, repo.Save(context.Background(), &session.Session{ID: "s1"}))
	_, err := repo.Get(context.Background(), "s1")
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = repo.Get(context.Background(), "s1")
	require.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestRedisSessionRepository(t *testing.T) {
	url := os.Getenv("ORGCHART_TEST_REDIS_URL")
	if url == "" {
		t.Skip("ORGCHART_TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	exerciseSessionRepository(t, NewRedisSessionRepository(client, time.Minute))
}

func TestRedisSessionRepository_ConcurrentUpdates(t *testing.T) {
	url := os.Getenv("ORGCHART_TEST_REDIS_URL")
	if url == "" {
		t.Skip("ORGCHART_TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	repo := NewRedisSessionRepository(client, time.Minute)
	ctx := context.Background()
	id := uuid.NewString()
	t.Cleanup(func() { _ = repo.Delete(ctx, id) })

	const writers = 5
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Update(ctx, id, func(current *session.Session) (*session.Session, error) {
				if current == nil {
					current = &session.Session{ID: id}
				}
				current.Expanded = append(current.Expanded, fmt.Sprintf("e%d", i))
				return current, nil
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.Len(t, got.Expanded, writers)
}
