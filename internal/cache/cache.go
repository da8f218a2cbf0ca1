// Package cache holds the redis-backed derived views of the draw engine: the
// per-user-per-day enrolment list and the per-campaign probability
// distribution. The durable store stays authoritative; every method here
// degrades to a miss (reads) or a logged no-op (writes) when redis fails.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// enrolment keys are per-day; keep them around long enough to cover clock skew
// between requests, then let redis reclaim them.
const enrolmentTTL = 48 * time.Hour

// Entry is one coupon type of a campaign's cached probability distribution.
type Entry struct {
	TypeID      int
	Probability float32
}

// Cache wraps a redis client. Cmdable lets tests plug in a miniredis-backed
// client.
type Cache struct {
	client redis.Cmdable
}

// New creates a Cache on top of the given redis client.
func New(client redis.Cmdable) *Cache {
	return &Cache{client: client}
}

func enrolmentKey(userID int, day time.Time) string {
	return fmt.Sprintf("user-%d:enrolled-campaigns:%s", userID, day.Format("2006-01-02"))
}

func probDistKey(campaignID int) string {
	return fmt.Sprintf("campaign-%d:prob-dist", campaignID)
}

// EnrolledCampaigns returns the campaign ids the user has already drawn from
// on the given day, as strings. A redis error reads as an empty list so the
// caller falls through to the durable store.
func (c *Cache) EnrolledCampaigns(ctx context.Context, userID int, day time.Time) []string {
	key := enrolmentKey(userID, day)
	vals, err := c.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("enrolment cache read failed, treating as miss")
		return nil
	}
	return vals
}

// AppendEnrolment records that the user has used today's draw for the
// campaign. Only called after a durable commit or an observed durable
// conflict; failures are swallowed because the next request self-repairs from
// the draws table.
func (c *Cache) AppendEnrolment(ctx context.Context, userID int, day time.Time, campaignID int) {
	key := enrolmentKey(userID, day)
	pipe := c.client.TxPipeline()
	pipe.RPush(ctx, key, strconv.Itoa(campaignID))
	pipe.Expire(ctx, key, enrolmentTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Str("key", key).Int("campaign_id", campaignID).
			Msg("enrolment cache append failed")
	}
}

// ProbDist returns the campaign's cached probability distribution, or nil on
// miss. A malformed list reads as a miss too; the caller rebuilds it from the
// coupon-type rows.
func (c *Cache) ProbDist(ctx context.Context, campaignID int) []Entry {
	key := probDistKey(campaignID)
	vals, err := c.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("prob-dist cache read failed, treating as miss")
		return nil
	}
	if len(vals) == 0 {
		return nil
	}

	entries := make([]Entry, 0, len(vals))
	for _, v := range vals {
		id, prob, ok := parseEntry(v)
		if !ok {
			log.Warn().Str("key", key).Str("entry", v).Msg("malformed prob-dist entry, treating as miss")
			return nil
		}
		entries = append(entries, Entry{TypeID: id, Probability: prob})
	}
	return entries
}

// StoreProbDist writes the campaign's probability distribution. The delete and
// the pushes run in one MULTI/EXEC so concurrent rebuilds cannot leave a
// doubled list.
func (c *Cache) StoreProbDist(ctx context.Context, campaignID int, entries []Entry) {
	key := probDistKey(campaignID)
	vals := make([]any, len(entries))
	for i, e := range entries {
		vals[i] = formatEntry(e)
	}

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.RPush(ctx, key, vals...)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("prob-dist cache write failed")
	}
}

func formatEntry(e Entry) string {
	return strconv.Itoa(e.TypeID) + ":" + strconv.FormatFloat(float64(e.Probability), 'g', -1, 32)
}

func parseEntry(s string) (id int, prob float32, ok bool) {
	idPart, probPart, found := strings.Cut(s, ":")
	if !found {
		return 0, 0, false
	}
	id, err := strconv.Atoi(idPart)
	if err != nil {
		return 0, 0, false
	}
	p, err := strconv.ParseFloat(probPart, 32)
	if err != nil {
		return 0, 0, false
	}
	return id, float32(p), true
}
