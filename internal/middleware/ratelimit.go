package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"ecshop/internal/config"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// 1キー1バケツのトークンバケット（HASHに残量と最終補充時刻）
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill_tokens = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl_seconds = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if tokens == nil or last_refill == nil then
	tokens = capacity
	last_refill = now_ms
end

local elapsed = math.max(0, now_ms - last_refill)
local intervals = math.floor(elapsed / interval_ms)
if intervals > 0 then
	tokens = math.min(capacity, tokens + (intervals * refill_tokens))
	last_refill = last_refill + (intervals * interval_ms)
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
	allowed = 1
	tokens = tokens - 1
else
	retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)

return { allowed, tokens, retry_after_ms }
`)

// RateLimiterはIPごとの回数制限
// redisがあればredis、落ちている/未設定ならプロセス内のx/time/rateで数える
type RateLimiter struct {
	cfg   config.RateLimitConfig
	rdb   *redis.Client
	log   *zap.Logger
	local *localLimiter
	now   func() time.Time
}

func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client, log *zap.Logger) *RateLimiter {
	// 無効時などゼロ値のconfigでも作れるように
	if cfg.RefillTokens < 1 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	every := cfg.RefillInterval / time.Duration(cfg.RefillTokens)
	return &RateLimiter{
		cfg:   cfg,
		rdb:   rdb,
		log:   log,
		local: newLocalLimiter(rate.Every(every), cfg.Capacity, cfg.TTL),
		now:   time.Now,
	}
}

func (l *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if !l.cfg.Enabled {
			return next
		}
		return func(c echo.Context) error {
			key := l.key(c)

			allowed, remaining, retry := l.take(c, key)

			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.Capacity))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if !allowed {
				secs := int(math.Ceil(retry.Seconds()))
				if secs < 1 {
					secs = 1
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				l.log.Warn("rate limit exceeded", zap.String("ip", c.RealIP()), zap.String("path", c.Path()))
				return c.JSON(http.StatusTooManyRequests, errorResponse{Message: "Too many requests"})
			}
			return next(c)
		}
	}
}

func (l *RateLimiter) take(c echo.Context, key string) (bool, int64, time.Duration) {
	if l.rdb != nil {
		allowed, remaining, retry, err := l.takeRedis(c, key)
		if err == nil {
			return allowed, remaining, retry
		}
		l.log.Warn("rate limit redis error, using local limiter", zap.Error(err))
	}
	return l.local.take(key, l.now())
}

func (l *RateLimiter) takeRedis(c echo.Context, key string) (bool, int64, time.Duration, error) {
	args := []interface{}{
		l.now().UnixMilli(),
		l.cfg.Capacity,
		l.cfg.RefillTokens,
		l.cfg.RefillInterval.Milliseconds(),
		int64(l.cfg.TTL / time.Second),
	}

	vals, err := tokenBucketScript.Run(c.Request().Context(), l.rdb, []string{key}, args...).Int64Slice()
	if err != nil {
		return false, 0, 0, err
	}
	if len(vals) != 3 {
		return false, 0, 0, fmt.Errorf("unexpected script result: %v", vals)
	}
	return vals[0] == 1, vals[1], time.Duration(vals[2]) * time.Millisecond, nil
}

// prefix:ip:<ip>:route:<method path>
func (l *RateLimiter) key(c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	route := c.Request().Method + " " + c.Path()
	return strings.Join([]string{l.cfg.Prefix, "ip", ip, "route", route}, ":")
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// プロセス内のバケツ（古いキーはアクセスのついでに掃除する）
type localLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
}

func newLocalLimiter(limit rate.Limit, burst int, ttl time.Duration) *localLimiter {
	return &localLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		burst:    burst,
		ttl:      ttl,
	}
}

func (l *localLimiter) take(key string, now time.Time) (bool, int64, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > l.ttl {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.ttl {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now

	r := v.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, 0, 0
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, 0, delay
	}
	return true, int64(v.limiter.TokensAt(now)), 0
}
