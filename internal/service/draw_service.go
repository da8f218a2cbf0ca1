package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/hlchau/lucky-draw-system/internal/cache"
	"github.com/hlchau/lucky-draw-system/internal/model"
	"github.com/hlchau/lucky-draw-system/pkg/database"
	"github.com/hlchau/lucky-draw-system/pkg/weighted"
)

// DrawRepositoryInterface defines the draw-record data access used by
// DrawService. Methods take a TxQuerier because the quota-starved fallback
// writes outside the draw transaction.
type DrawRepositoryInterface interface {
	UserAndCampaignExist(ctx context.Context, q database.TxQuerier, userID, campaignID int) (bool, error)
	HasDrawn(ctx context.Context, q database.TxQuerier, userID, campaignID int, date time.Time) (bool, error)
	Insert(ctx context.Context, q database.TxQuerier, userID, campaignID int, couponID *int, date time.Time) error
}

// QuotaRepositoryInterface defines the coupon-type access used by DrawService.
type QuotaRepositoryInterface interface {
	ListCouponTypesTx(ctx context.Context, tx database.TxQuerier, campaignID int) ([]model.CouponType, error)
	DecrementQuota(ctx context.Context, tx database.TxQuerier, typeID int, today time.Time) error
}

// CouponIssuerInterface defines the coupon insert used by DrawService.
type CouponIssuerInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, typeID int, redeemCode string) (*model.Coupon, error)
}

// DrawCache defines the derived views DrawService keeps next to the durable
// store. Implementations must degrade reads to misses and swallow write
// failures; the engine never branches on a cache error.
type DrawCache interface {
	EnrolledCampaigns(ctx context.Context, userID int, day time.Time) []string
	AppendEnrolment(ctx context.Context, userID int, day time.Time, campaignID int)
	ProbDist(ctx context.Context, campaignID int) []cache.Entry
	StoreProbDist(ctx context.Context, campaignID int, entries []cache.Entry)
}

// DrawPool is the shared store handle the engine needs: transactions for the
// main path and direct statements for the fallback draw insert.
type DrawPool interface {
	TxBeginner
	database.TxQuerier
}

// DrawService is the draw engine. On each call it enforces the
// one-draw-per-user-per-campaign-per-day rule, samples the campaign's weighted
// distribution (including the implicit no-coupon residual), decrements quotas
// conditionally, and keeps the enrolment and prob-dist caches consistent with
// the durable store.
type DrawService struct {
	pool         DrawPool
	drawRepo     DrawRepositoryInterface
	campaignRepo QuotaRepositoryInterface
	couponRepo   CouponIssuerInterface
	cache        DrawCache

	now func() time.Time
	rnd func() float64
}

// NewDrawService creates a DrawService wired to the shared pool, the
// repositories and the cache. Randomness comes from the process-wide
// OS-entropy-seeded generator.
func NewDrawService(pool *pgxpool.Pool, drawRepo DrawRepositoryInterface, campaignRepo QuotaRepositoryInterface, couponRepo CouponIssuerInterface, c DrawCache) *DrawService {
	return &DrawService{
		pool:         pool,
		drawRepo:     drawRepo,
		campaignRepo: campaignRepo,
		couponRepo:   couponRepo,
		cache:        c,
		now:          time.Now,
		rnd:          weighted.Entropy(),
	}
}

// NewDrawServiceWithPool creates a DrawService with a custom pool interface.
// Primarily used for testing.
func NewDrawServiceWithPool(pool DrawPool, drawRepo DrawRepositoryInterface, campaignRepo QuotaRepositoryInterface, couponRepo CouponIssuerInterface, c DrawCache) *DrawService {
	return &DrawService{
		pool:         pool,
		drawRepo:     drawRepo,
		campaignRepo: campaignRepo,
		couponRepo:   couponRepo,
		cache:        c,
		now:          time.Now,
		rnd:          weighted.Entropy(),
	}
}

// Draw runs one attempt for the user against the campaign. It returns the
// issued coupon, or nil for the no-coupon outcome (residual sample or
// exhausted quota — both consume today's attempt).
// Returns ErrAlreadyDrawn when today's attempt is spent,
// ErrUserOrCampaignNotFound / ErrCampaignNotFound when the addressed entities
// are missing.
func (s *DrawService) Draw(ctx context.Context, userID, campaignID int) (*model.Coupon, error) {
	today := s.today()

	// Fast path: the enrolment cache is believed when it says "already drawn".
	// It is only ever written after a durable commit or an observed durable
	// conflict, so a hit cannot precede the authoritative record.
	enrolled := s.cache.EnrolledCampaigns(ctx, userID, today)
	if slices.Contains(enrolled, strconv.Itoa(campaignID)) {
		return nil, ErrAlreadyDrawn
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // no-op if committed

	exists, err := s.drawRepo.UserAndCampaignExist(ctx, tx, userID, campaignID)
	if err != nil {
		return nil, fmt.Errorf("existence check: %w", err)
	}
	if !exists {
		return nil, ErrUserOrCampaignNotFound
	}

	// Re-check against the durable store; the cache read above may have missed.
	drawn, err := s.drawRepo.HasDrawn(ctx, tx, userID, campaignID, today)
	if err != nil {
		return nil, fmt.Errorf("draw re-check: %w", err)
	}
	if drawn {
		// Repair the cache miss so tomorrow's fast path works.
		s.cache.AppendEnrolment(ctx, userID, today, campaignID)
		return nil, ErrAlreadyDrawn
	}

	typeIDs, probs, err := s.probDist(ctx, tx, campaignID)
	if err != nil {
		return nil, err
	}

	// The residual weight is the implicit "no coupon" outcome. Clamp at zero:
	// float noise must not make it negative when the probabilities sum to 1.
	var sum float64
	for _, p := range probs {
		sum += p
	}
	residual := 1.0 - sum
	if residual < 0 {
		residual = 0
	}
	probs = append(probs, residual)

	chooser, err := weighted.New(probs)
	if err != nil {
		return nil, fmt.Errorf("build distribution: %w", err)
	}
	k := chooser.Pick(s.rnd)

	if k == len(probs)-1 {
		// Residual branch: the attempt is spent, no coupon is issued.
		if err := s.drawRepo.Insert(ctx, tx, userID, campaignID, nil, today); err != nil {
			return nil, s.reinterpretDrawInsert(ctx, err, userID, campaignID, today)
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit: %w", err)
		}
		s.cache.AppendEnrolment(ctx, userID, today, campaignID)
		return nil, nil
	}

	// Coupon branch: the conditional decrement is the arbiter. Its CHECK
	// failure means this type has nothing left today or overall.
	if err := s.campaignRepo.DecrementQuota(ctx, tx, typeIDs[k], today); err != nil {
		if errors.Is(err, ErrQuotaExhausted) {
			return nil, s.drawWithoutCoupon(ctx, tx, userID, campaignID, today)
		}
		return nil, fmt.Errorf("decrement quota: %w", err)
	}

	coupon, err := s.couponRepo.Insert(ctx, tx, typeIDs[k], uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("insert coupon: %w", err)
	}
	if err := s.drawRepo.Insert(ctx, tx, userID, campaignID, &coupon.ID, today); err != nil {
		return nil, s.reinterpretDrawInsert(ctx, err, userID, campaignID, today)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.cache.AppendEnrolment(ctx, userID, today, campaignID)
	return coupon, nil
}

// today returns the current UTC calendar date. One clock decides the whole
// request; the date is passed to every statement rather than mixing in the
// database's CURRENT_DATE.
func (s *DrawService) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// probDist returns the campaign's coupon-type ids and probabilities in stable
// order, from the cache when possible, otherwise from the coupon-type rows
// (writing the cache back). Returns ErrCampaignNotFound for a campaign with
// zero coupon types.
func (s *DrawService) probDist(ctx context.Context, tx database.TxQuerier, campaignID int) ([]int, []float64, error) {
	if entries := s.cache.ProbDist(ctx, campaignID); len(entries) > 0 {
		ids := make([]int, len(entries))
		probs := make([]float64, len(entries))
		for i, e := range entries {
			ids[i] = e.TypeID
			probs[i] = float64(e.Probability)
		}
		return ids, probs, nil
	}

	types, err := s.campaignRepo.ListCouponTypesTx(ctx, tx, campaignID)
	if err != nil {
		return nil, nil, fmt.Errorf("list coupon types: %w", err)
	}
	if len(types) == 0 {
		return nil, nil, ErrCampaignNotFound
	}

	ids := make([]int, len(types))
	probs := make([]float64, len(types))
	entries := make([]cache.Entry, len(types))
	for i, ct := range types {
		ids[i] = ct.ID
		probs[i] = float64(ct.Probability)
		entries[i] = cache.Entry{TypeID: ct.ID, Probability: ct.Probability}
	}
	// Campaigns are immutable, so this key is effectively write-once; writing
	// it before commit is safe.
	s.cache.StoreProbDist(ctx, campaignID, entries)
	return ids, probs, nil
}

// drawWithoutCoupon is the quota-starved outcome: the draw transaction is
// abandoned and the attempt is recorded in an independent statement on the
// pool. The draws unique constraint makes this idempotent if it races with
// itself.
func (s *DrawService) drawWithoutCoupon(ctx context.Context, tx pgx.Tx, userID, campaignID int, today time.Time) error {
	_ = tx.Rollback(ctx)

	if err := s.drawRepo.Insert(ctx, s.pool, userID, campaignID, nil, today); err != nil {
		if !errors.Is(err, ErrAlreadyDrawn) {
			return fmt.Errorf("insert fallback draw: %w", err)
		}
		log.Info().Int("user_id", userID).Int("campaign_id", campaignID).
			Msg("fallback draw raced with a concurrent attempt")
	}
	s.cache.AppendEnrolment(ctx, userID, today, campaignID)
	return nil
}

// reinterpretDrawInsert maps a duplicate-key draw insert to ErrAlreadyDrawn —
// a concurrent request won the (user, campaign, date) slot first — and
// repairs the enrolment cache on the winner's behalf.
func (s *DrawService) reinterpretDrawInsert(ctx context.Context, err error, userID, campaignID int, today time.Time) error {
	if errors.Is(err, ErrAlreadyDrawn) {
		s.cache.AppendEnrolment(ctx, userID, today, campaignID)
		return ErrAlreadyDrawn
	}
	return fmt.Errorf("insert draw: %w", err)
}
