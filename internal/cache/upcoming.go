package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"

	"github.com/utafrali/ReminderGo/internal/domain"
)

const (
	keyPrefix        = "reminders:upcoming:"
	minGenerationTTL = 24 * time.Hour
)

// ErrCircuitOpen is returned while the breaker rejects calls to Redis.
var ErrCircuitOpen = gobreaker.ErrOpenState

// BreakerConfig holds configuration for the Redis circuit breaker.
type BreakerConfig struct {
	// Name identifies this breaker in metrics and logs.
	Name string

	// MaxRequests is the number of trial calls allowed while half-open.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state for clearing counts.
	Interval time.Duration

	// Timeout is how long the breaker stays open before moving to half-open.
	Timeout time.Duration

	// FailureRatio trips the breaker once this share of calls fail.
	FailureRatio float64

	// MinRequests is the number of calls needed before FailureRatio applies.
	MinRequests uint32
}

// DefaultBreakerConfig returns the production breaker settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:         "redis-upcoming",
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// UpcomingCache caches list-upcoming results per owner and limit. Keys embed
// the owner ID, so one user's entries are never served to another.
type UpcomingCache struct {
	client  *redis.Client
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *slog.Logger
}

// NewUpcomingCache wraps client. Breaker state is exported as a gauge on reg
// when reg is non-nil.
func NewUpcomingCache(client *redis.Client, ttl time.Duration, cfg BreakerConfig, reg prometheus.Registerer, logger *slog.Logger) *UpcomingCache {
	state := promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
		Name: "circuit_breaker_state",
		Help: "Current state of the circuit breaker (0=closed, 1=half-open, 2=open)",
	}, []string{"name"})
	state.WithLabelValues(cfg.Name).Set(0)

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			state.WithLabelValues(name).Set(stateToFloat(to))
		},
	}

	return &UpcomingCache{
		client:  client,
		ttl:     ttl,
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
		logger:  logger,
	}
}

// Key returns the cache key for one owner, generation and limit.
func Key(ownerID, generation int64, limit int) string {
	return fmt.Sprintf("%s%d:%d:%d", keyPrefix, ownerID, generation, limit)
}

// GenerationKey holds the owner's generation counter. Invalidate bumps it, so
// a list read before a write can only be stored under a key no reader uses.
func GenerationKey(ownerID int64) string {
	return fmt.Sprintf("%sgen:%d", keyPrefix, ownerID)
}

func ownerPattern(ownerID int64) string {
	return fmt.Sprintf("%s%d:*", keyPrefix, ownerID)
}

// Get returns the cached list and the generation it was looked up under. hit
// is false on a miss; the generation is still valid and should be passed to
// Set.
func (c *UpcomingCache) Get(ctx context.Context, ownerID int64, limit int) (reminders []domain.Reminder, generation int64, hit bool, err error) {
	data, err := c.breaker.Execute(func() ([]byte, error) {
		gen, err := c.client.Get(ctx, GenerationKey(ownerID)).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, err
		}
		generation = gen

		data, err := c.client.Get(ctx, Key(ownerID, gen, limit)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return data, err
	})
	if err != nil {
		return nil, 0, false, fmt.Errorf("redis get upcoming: %w", err)
	}
	if data == nil {
		return nil, generation, false, nil
	}

	if err := json.Unmarshal(data, &reminders); err != nil {
		return nil, 0, false, fmt.Errorf("unmarshal upcoming: %w", err)
	}
	return reminders, generation, true, nil
}

// Set stores reminders under the owner's key for generation with the
// configured TTL.
func (c *UpcomingCache) Set(ctx context.Context, ownerID int64, limit int, generation int64, reminders []domain.Reminder) error {
	data, err := json.Marshal(reminders)
	if err != nil {
		return fmt.Errorf("marshal upcoming: %w", err)
	}

	_, err = c.breaker.Execute(func() ([]byte, error) {
		return nil, c.client.Set(ctx, Key(ownerID, generation, limit), data, c.ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("redis set upcoming: %w", err)
	}
	return nil
}

// Invalidate moves the owner to a new generation and drops every cached list
// of the owner.
func (c *UpcomingCache) Invalidate(ctx context.Context, ownerID int64) error {
	_, err := c.breaker.Execute(func() ([]byte, error) {
		_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Incr(ctx, GenerationKey(ownerID))
			pipe.Expire(ctx, GenerationKey(ownerID), c.generationTTL())
			return nil
		})
		if err != nil {
			return nil, err
		}

		var keys []string
		iter := c.client.Scan(ctx, 0, ownerPattern(ownerID), 100).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return nil, err
		}
		if len(keys) == 0 {
			return nil, nil
		}
		return nil, c.client.Del(ctx, keys...).Err()
	})
	if err != nil {
		return fmt.Errorf("redis invalidate upcoming: %w", err)
	}
	return nil
}

// generationTTL outlives every list entry, so a counter that expires and
// restarts at zero finds no entries left from its first run.
func (c *UpcomingCache) generationTTL() time.Duration {
	return max(minGenerationTTL, 2*c.ttl)
}

// State returns the current breaker state.
func (c *UpcomingCache) State() gobreaker.State {
	return c.breaker.State()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
