package sessions

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// runs the behavioral suite against each Registry implementation so memory
// and Redis stay in lockstep
func registries(t *testing.T) map[string]Registry {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	return map[string]Registry{
		"memory": NewMemoryRegistry(),
		"redis":  NewRedisRegistry(client, ""),
	}
}

func TestRegistry_CreateAndGet(t *testing.T) {
	for name, reg := range registries(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			s, err := reg.Create(ctx, "doc-1", "alice")
			require.NoError(t, err)
			require.NotEmpty(t, s.ID)
			require.True(t, s.IsLive)
			require.Equal(t, []string{"alice"}, s.Participants)

			got, err := reg.Get(ctx, s.ID)
			require.NoError(t, err)
			require.Equal(t, "doc-1", got.DocID)
			require.Equal(t, "alice", got.CreatorID)
			require.True(t, got.IsLive)
			require.True(t, got.HasParticipant("alice"))

			_, err = reg.Get(ctx, "missing")
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestRegistry_AddParticipant(t *testing.T) {
	for name, reg := range registries(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			s, err := reg.Create(ctx, "doc-1", "alice")
			require.NoError(t, err)

			require.NoError(t, reg.AddParticipant(ctx, s.ID, "bob"))
			require.NoError(t, reg.AddParticipant(ctx, s.ID, "bob")) // idempotent

			got, err := reg.Get(ctx, s.ID)
			require.NoError(t, err)
			require.Len(t, got.Participants, 2)
			require.True(t, got.HasParticipant("bob"))

			require.ErrorIs(t, reg.AddParticipant(ctx, "missing", "bob"), ErrNotFound)
		})
	}
}

func TestRegistry_AddParticipantAfterEnd(t *testing.T) {
	for name, reg := range registries(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			s, err := reg.Create(ctx, "doc-1", "alice")
			require.NoError(t, err)

			ended, err := reg.End(ctx, s.ID)
			require.NoError(t, err)
			require.True(t, ended)

			require.ErrorIs(t, reg.AddParticipant(ctx, s.ID, "bob"), ErrNotLive)

			// participants never shrink, even after the session ends
			got, err := reg.Get(ctx, s.ID)
			require.NoError(t, err)
			require.Equal(t, []string{"alice"}, got.Participants)
		})
	}
}

func TestRegistry_EndIsIdempotent(t *testing.T) {
	for name, reg := range registries(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			s, err := reg.Create(ctx, "doc-1", "alice")
			require.NoError(t, err)

			ended, err := reg.End(ctx, s.ID)
			require.NoError(t, err)
			require.True(t, ended)

			// second flip observes the transition already done
			ended, err = reg.End(ctx, s.ID)
			require.NoError(t, err)
			require.False(t, ended)

			_, err = reg.End(ctx, "missing")
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestRegistry_Ping(t *testing.T) {
	for name, reg := range registries(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			s, err := reg.Create(ctx, "doc-1", "alice")
			require.NoError(t, err)
			first := s.LastPing

			time.Sleep(5 * time.Millisecond)
			require.NoError(t, reg.Ping(ctx, s.ID))

			got, err := reg.Get(ctx, s.ID)
			require.NoError(t, err)
			require.True(t, got.LastPing.After(first))

			_, err = reg.End(ctx, s.ID)
			require.NoError(t, err)
			require.ErrorIs(t, reg.Ping(ctx, s.ID), ErrNotLive)

			require.ErrorIs(t, reg.Ping(ctx, "missing"), ErrNotFound)
		})
	}
}

func TestRegistry_ListStale(t *testing.T) {
	for name, reg := range registries(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			stale, err := reg.Create(ctx, "doc-1", "alice")
			require.NoError(t, err)
			fresh, err := reg.Create(ctx, "doc-2", "bob")
			require.NoError(t, err)
			gone, err := reg.Create(ctx, "doc-3", "carol")
			require.NoError(t, err)
			_, err = reg.End(ctx, gone.ID)
			require.NoError(t, err)

			// a cutoff in the future makes every live session stale
			list, err := reg.ListStale(ctx, time.Now().Add(time.Minute))
			require.NoError(t, err)
			ids := map[string]bool{}
			for _, s := range list {
				ids[s.ID] = true
			}
			require.True(t, ids[stale.ID])
			require.True(t, ids[fresh.ID])
			require.False(t, ids[gone.ID], "ended sessions are never reaped again")

			// a cutoff in the past matches nothing
			list, err = reg.ListStale(ctx, time.Now().Add(-time.Minute))
			require.NoError(t, err)
			require.Empty(t, list)
		})
	}
}
