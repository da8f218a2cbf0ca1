package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client), mr
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func TestEnrolledCampaigns_EmptyKey(t *testing.T) {
	c, _ := newTestCache(t)
	got := c.EnrolledCampaigns(context.Background(), 1, day(t, "2024-06-01"))
	assert.Empty(t, got)
}

func TestAppendEnrolment_RoundTrip(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	d := day(t, "2024-06-01")

	c.AppendEnrolment(ctx, 7, d, 3)
	c.AppendEnrolment(ctx, 7, d, 12)

	got := c.EnrolledCampaigns(ctx, 7, d)
	assert.Equal(t, []string{"3", "12"}, got)

	// key format and TTL
	require.True(t, mr.Exists("user-7:enrolled-campaigns:2024-06-01"))
	ttl := mr.TTL("user-7:enrolled-campaigns:2024-06-01")
	assert.Greater(t, ttl, time.Hour)
}

func TestEnrolment_KeysArePerUserPerDay(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.AppendEnrolment(ctx, 7, day(t, "2024-06-01"), 3)

	assert.Empty(t, c.EnrolledCampaigns(ctx, 8, day(t, "2024-06-01")), "other user")
	assert.Empty(t, c.EnrolledCampaigns(ctx, 7, day(t, "2024-06-02")), "other day")
}

func TestProbDist_MissWhenAbsent(t *testing.T) {
	c, _ := newTestCache(t)
	assert.Nil(t, c.ProbDist(context.Background(), 5))
}

func TestProbDist_RoundTrip(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	entries := []Entry{
		{TypeID: 10, Probability: 0.5},
		{TypeID: 11, Probability: 0},
		{TypeID: 12, Probability: 0.25},
	}
	c.StoreProbDist(ctx, 5, entries)

	got := c.ProbDist(ctx, 5)
	assert.Equal(t, entries, got)

	// wire format stays "{id}:{probability}"
	vals, err := mr.List("campaign-5:prob-dist")
	require.NoError(t, err)
	assert.Equal(t, []string{"10:0.5", "11:0", "12:0.25"}, vals)
}

func TestStoreProbDist_RebuildDoesNotDouble(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	entries := []Entry{{TypeID: 10, Probability: 0.5}, {TypeID: 11, Probability: 0.5}}
	c.StoreProbDist(ctx, 5, entries)
	c.StoreProbDist(ctx, 5, entries)

	got := c.ProbDist(ctx, 5)
	assert.Len(t, got, 2)
}

func TestProbDist_MalformedEntryReadsAsMiss(t *testing.T) {
	c, mr := newTestCache(t)
	_, err := mr.Push("campaign-5:prob-dist", "not-an-entry")
	require.NoError(t, err)

	assert.Nil(t, c.ProbDist(context.Background(), 5))
}

func TestCache_ReadsDegradeToMissWhenRedisDown(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	ctx := context.Background()
	assert.Empty(t, c.EnrolledCampaigns(ctx, 1, day(t, "2024-06-01")))
	assert.Nil(t, c.ProbDist(ctx, 5))
}

func TestCache_WritesSwallowedWhenRedisDown(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	// must not panic or error out
	ctx := context.Background()
	c.AppendEnrolment(ctx, 1, day(t, "2024-06-01"), 3)
	c.StoreProbDist(ctx, 5, []Entry{{TypeID: 1, Probability: 0.5}})
}
