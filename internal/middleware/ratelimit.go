package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/exam-seating/internal/config"
	"github.com/iliyamo/exam-seating/internal/logging"
)

// tokenBucketScript refills and takes one token atomically.  It returns
// {allowed (0|1), tokens left, milliseconds until the next refill}.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local interval = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1]) or capacity
local last = tonumber(state[2]) or now

local steps = math.floor(math.max(0, now - last) / interval)
if steps > 0 then
  tokens = math.min(capacity, tokens + steps * refill)
  last = last + steps * interval
end

local allowed = 0
local wait = 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
else
  wait = math.max(0, interval - (now - last))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last)
redis.call('EXPIRE', key, ttl)
return {allowed, tokens, wait}
`)

type bucketDecision struct {
	allowed   bool
	remaining int64
	wait      time.Duration
}

func parseDecision(v any) (bucketDecision, bool) {
	arr, ok := v.([]any)
	if !ok || len(arr) != 3 {
		return bucketDecision{}, false
	}
	nums := make([]int64, 3)
	for i, x := range arr {
		n, ok := x.(int64)
		if !ok {
			return bucketDecision{}, false
		}
		nums[i] = n
	}
	return bucketDecision{allowed: nums[0] == 1, remaining: nums[1], wait: time.Duration(nums[2]) * time.Millisecond}, true
}

// rateKeyParts lists which request attributes each key strategy uses.
var rateKeyParts = map[string][]string{
	"ip":            {"ip"},
	"user":          {"user"},
	"route":         {"route"},
	"ip_user":       {"ip", "user"},
	"ip_route":      {"ip", "route"},
	"user_route":    {"user", "route"},
	"ip_user_route": {"ip", "user", "route"},
}

func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	parts, ok := rateKeyParts[strings.ToLower(cfg.KeyStrategy)]
	if !ok {
		parts = rateKeyParts["ip_user_route"]
	}
	key := []string{cfg.Prefix}
	for _, p := range parts {
		switch p {
		case "ip":
			ip := c.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			key = append(key, "ip", ip)
		case "user":
			key = append(key, "user", currentUserID(c))
		case "route":
			key = append(key, "route", c.Request().Method+" "+c.Path())
		}
	}
	return strings.Join(key, ":")
}

// NewTokenBucket limits requests with a token bucket kept in Redis.  Each
// key holds Capacity tokens and regains RefillTokens every RefillInterval.
// Redis failures let the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	ttlSeconds := int64(cfg.TTL / time.Second)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			logger := logging.FromContext(ctx)
			key := rateKey(cfg, c)

			res, err := tokenBucketScript.Run(ctx, rdb, []string{key},
				time.Now().UnixMilli(), cfg.Capacity, cfg.RefillTokens, cfg.RefillInterval.Milliseconds(), ttlSeconds,
			).Result()
			if err != nil {
				logger.Warn("ratelimit: redis error", "key", key, "err", err)
				return next(c)
			}
			d, ok := parseDecision(res)
			if !ok {
				logger.Warn("ratelimit: unexpected script result", "key", key, "result", res)
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if d.allowed {
				return next(c)
			}

			secs := int((d.wait + time.Second - 1) / time.Second)
			h.Set("Retry-After", strconv.Itoa(secs))
			logger.Debug("ratelimit: blocked", "key", key, "retry_after", secs)
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "rate limit exceeded",
				"retry_after": secs,
			})
		}
	}
}
