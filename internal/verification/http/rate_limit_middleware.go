package http

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	apperrors "github.com/allisson/keyguard/internal/errors"
	"github.com/allisson/keyguard/internal/httputil"
)

const (
	bucketSweepInterval = 5 * time.Minute
	bucketIdleTTL       = time.Hour
)

type deviceBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// deviceBuckets holds one token bucket per device. Buckets idle for longer
// than bucketIdleTTL are dropped by sweep.
type deviceBuckets struct {
	mu      sync.Mutex
	buckets map[uuid.UUID]*deviceBucket
	limit   rate.Limit
	burst   int
}

func newDeviceBuckets(rps float64, burst int) *deviceBuckets {
	return &deviceBuckets{
		buckets: make(map[uuid.UUID]*deviceBucket),
		limit:   rate.Limit(rps),
		burst:   burst,
	}
}

// allow takes one token from the device's bucket. When the bucket is empty it
// returns how long until the next token is available.
func (d *deviceBuckets) allow(deviceID uuid.UUID, now time.Time) (bool, time.Duration) {
	d.mu.Lock()
	b, ok := d.buckets[deviceID]
	if !ok {
		b = &deviceBucket{limiter: rate.NewLimiter(d.limit, d.burst)}
		d.buckets[deviceID] = b
	}
	b.lastSeen = now
	d.mu.Unlock()

	if b.limiter.AllowN(now, 1) {
		return true, 0
	}
	missing := 1 - b.limiter.TokensAt(now)
	return false, time.Duration(missing / float64(d.limit) * float64(time.Second))
}

func (d *deviceBuckets) sweep(idleSince time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, b := range d.buckets {
		if b.lastSeen.Before(idleSince) {
			delete(d.buckets, id)
		}
	}
}

func (d *deviceBuckets) size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buckets)
}

func (d *deviceBuckets) run(ctx context.Context) {
	ticker := time.NewTicker(bucketSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			d.sweep(now.Add(-bucketIdleTTL))
		}
	}
}

// DeviceRateLimitMiddleware limits each verified device to rps requests per
// second with the given burst. It must run after SignatureVerificationMiddleware.
// Throttled calls get 429 with Retry-After in whole seconds. The idle bucket
// sweeper stops when ctx is done.
func DeviceRateLimitMiddleware(ctx context.Context, rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	buckets := newDeviceBuckets(rps, burst)
	go buckets.run(ctx)

	return func(c *gin.Context) {
		verified, ok := GetVerifiedRequest(c.Request.Context())
		if !ok {
			logger.Error("rate limit middleware: no verified request in context")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		allowed, wait := buckets.allow(verified.DeviceID, time.Now())
		if !allowed {
			retryAfter := int(math.Ceil(wait.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			logger.Debug("device rate limited",
				slog.String("device_id", verified.DeviceID.String()),
				slog.Int("retry_after", retryAfter))

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			httputil.AbortWithError(c, http.StatusTooManyRequests, "rate_limit_exceeded",
				"Too many requests. Please retry after the specified delay.")
			return
		}

		c.Next()
	}
}
