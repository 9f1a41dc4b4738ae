// Package cache caches conflict reports keyed by a fingerprint of the
// detector input. Reports are pure functions of that input, so a cached
// entry can never go stale: any change to the bequest snapshot, the estate
// revision or the supplied facts produces a different key.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"urithi/internal/bequest/conflict"
	id "urithi/pkg/domain"
)

const reportKeyPrefix = "conflict:"

// DefaultTTL bounds how long a report outlives the run that produced it.
// Fingerprint keys invalidate logically; the TTL only reclaims space.
const DefaultTTL = 24 * time.Hour

// ReportCache is a Redis-backed conflict report cache.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// ReportCacheOption configures a ReportCache.
type ReportCacheOption func(*ReportCache)

// WithTTL overrides the default report lifetime.
func WithTTL(ttl time.Duration) ReportCacheOption {
	return func(c *ReportCache) { c.ttl = ttl }
}

// NewReportCache constructs a Redis-backed report cache.
func NewReportCache(client *redis.Client, opts ...ReportCacheOption) *ReportCache {
	c := &ReportCache{client: client, ttl: DefaultTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func reportKey(estateID id.EstateID, fingerprint uint64) string {
	return fmt.Sprintf("%s%s:%d", reportKeyPrefix, estateID, fingerprint)
}

// Get returns the cached report for the estate under the given fingerprint.
// A miss returns (nil, nil); only transport failures surface as errors.
func (c *ReportCache) Get(ctx context.Context, estateID id.EstateID, fingerprint uint64) (*conflict.Report, error) {
	raw, err := c.client.Get(ctx, reportKey(estateID, fingerprint)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var report conflict.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Put stores the report under the fingerprint it was computed from.
func (c *ReportCache) Put(ctx context.Context, estateID id.EstateID, fingerprint uint64, report conflict.Report) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, reportKey(estateID, fingerprint), raw, c.ttl).Err()
}

// Invalidate drops one cached report.
func (c *ReportCache) Invalidate(ctx context.Context, estateID id.EstateID, fingerprint uint64) error {
	return c.client.Del(ctx, reportKey(estateID, fingerprint)).Err()
}
