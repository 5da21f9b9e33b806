package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"truelive-router/internal/domain"
	"truelive-router/internal/transcript"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	m := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	s, err := NewRedisStore(rdb)
	require.NoError(t, err)
	return s, m
}

func TestNewRedisStore_NilClient(t *testing.T) {
	_, err := NewRedisStore(nil)
	require.ErrorContains(t, err, "must not be nil")
}

func TestRedisStore_LoadMissingIsEmpty(t *testing.T) {
	s, _ := newRedisStore(t)
	tr, err := s.Load(context.Background(), "+1555")
	require.NoError(t, err)
	require.Zero(t, tr.Len())
}

func TestRedisStore_SaveThenLoad(t *testing.T) {
	s, m := newRedisStore(t)
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	in := domain.Transcript{Messages: []domain.Turn{
		domain.NewTurn(domain.RoleUser, "oi", ts),
		{Role: domain.RoleAssistant, Content: "legacy"},
	}}

	require.NoError(t, s.Save(context.Background(), "+1555", in))
	require.True(t, m.Exists("transcript:+1555"))
	require.Zero(t, m.TTL("transcript:+1555"))

	raw, err := m.Get("transcript:+1555")
	require.NoError(t, err)
	require.JSONEq(t, `{"messages":[{"role":"user","content":"oi","timestamp":1772359200000},{"role":"assistant","content":"legacy"}]}`, raw)

	out, err := s.Load(context.Background(), "+1555")
	require.NoError(t, err)
	require.Len(t, out.Messages, 2)
	require.True(t, ts.Equal(*out.Messages[0].Timestamp))
	require.Nil(t, out.Messages[1].Timestamp)
}

func TestRedisStore_LegacyTurnsOutliveRetentionWindow(t *testing.T) {
	s, m := newRedisStore(t)
	ctx := context.Background()
	saved := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	in := domain.Transcript{Messages: []domain.Turn{
		{Role: domain.RoleUser, Content: "legacy"},
		domain.NewTurn(domain.RoleAssistant, "old reply", saved),
	}}
	require.NoError(t, s.Save(ctx, "+1555", in))

	m.FastForward(31 * 24 * time.Hour)

	out, err := s.Load(ctx, "+1555")
	require.NoError(t, err)
	require.Len(t, out.Messages, 2)

	kept := transcript.Filter(out, saved.Add(31*24*time.Hour))
	require.Len(t, kept.Messages, 1)
	require.Equal(t, "legacy", kept.Messages[0].Content)
}

func TestRedisStore_SaveClearsExistingExpiry(t *testing.T) {
	s, m := newRedisStore(t)
	require.NoError(t, m.Set("transcript:u", `{"messages":[]}`))
	m.SetTTL("transcript:u", time.Hour)

	require.NoError(t, s.Save(context.Background(), "u", domain.Transcript{}))
	require.Zero(t, m.TTL("transcript:u"))
}

func TestRedisStore_SaveOverwrites(t *testing.T) {
	s, _ := newRedisStore(t)
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, s.Save(ctx, "u", domain.Transcript{Messages: []domain.Turn{domain.NewTurn(domain.RoleUser, "a", now)}}))
	require.NoError(t, s.Save(ctx, "u", domain.Transcript{Messages: []domain.Turn{domain.NewTurn(domain.RoleUser, "b", now)}}))

	out, err := s.Load(ctx, "u")
	require.NoError(t, err)
	require.Len(t, out.Messages, 1)
	require.Equal(t, "b", out.Messages[0].Content)
}

func TestRedisStore_Errors(t *testing.T) {
	s, m := newRedisStore(t)
	require.NoError(t, m.Set("transcript:bad", "{"))
	_, err := s.Load(context.Background(), "bad")
	require.ErrorContains(t, err, "Load decode")

	m.Close()
	_, err = s.Load(context.Background(), "u")
	require.ErrorContains(t, err, "Load redis get")
	err = s.Save(context.Background(), "u", domain.Transcript{})
	require.ErrorContains(t, err, "Save redis set")
}
