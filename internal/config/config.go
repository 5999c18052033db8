package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
)

// Configはアプリ全体の設定
type Config struct {
	Port  string // サーバーポート（8080）
	GoEnv string // dev/prod/test

	JWTSecret  string        // JWT署名シークレット
	JWTIssuer  string        // iss
	AccessTTL  time.Duration // アクセストークン（1h）
	RefreshTTL time.Duration // リフレッシュトークン（7d）
	BcryptCost int

	StoreDriver string // mongo / postgres

	MongoURI string
	MongoDB  string

	DatabaseURL      string // あればPOSTGRES_*より優先
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     int
	PostgresSSLMode  string

	RedisAddr     string // 空ならredisを使わない
	RedisPassword string
	RedisDB       int

	RateLimit RateLimitConfig

	S3Bucket        string
	S3Region        string
	S3Endpoint      string // MinIOなど
	S3PublicBaseURL string // 画像URLのベース（CDNなど）

	AMQPURL string // 空ならイベントは送らない

	FEURL        string // CORS
	CookieSecure bool

	// X-Forwarded-Forを信用するプロキシ（CIDR）。空なら接続元IPだけを見る
	TrustedProxies []*net.IPNet
	LogLevel     string
}

// レート制限（/auth/login など）
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

// 本番かどうか
func (c Config) IsProd() bool {
	return c.GoEnv == "prod" || c.GoEnv == "production"
}

// Loadは環境変数から設定を読む
func Load() (Config, error) {
	var errs []string

	accessTTL, err := envDur("ACCESS_TOKEN_TTL", time.Hour)
	if err != nil {
		errs = append(errs, err.Error())
	}
	refreshTTL, err := envDur("REFRESH_TOKEN_TTL", 7*24*time.Hour)
	if err != nil {
		errs = append(errs, err.Error())
	}
	bcryptCost, err := envInt("BCRYPT_COST", 10)
	if err != nil {
		errs = append(errs, err.Error())
	}
	pgPort, err := envInt("POSTGRES_PORT", 5432)
	if err != nil {
		errs = append(errs, err.Error())
	}
	redisDB, err := envInt("REDIS_DB", 0)
	if err != nil {
		errs = append(errs, err.Error())
	}
	rl, err := loadRateLimit()
	if err != nil {
		errs = append(errs, err.Error())
	}

	cfg := Config{
		Port:  envStr("PORT", "8080"),
		GoEnv: envStr("GO_ENV", "dev"),

		JWTSecret:  os.Getenv("JWT_SECRET"),
		JWTIssuer:  envStr("JWT_ISSUER", "ecshop"),
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
		BcryptCost: bcryptCost,

		StoreDriver: strings.ToLower(envStr("STORE_DRIVER", StoreMongo)),

		MongoURI: os.Getenv("MONGODB_URI"),
		MongoDB:  envStr("MONGODB_DB", "ecshop"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     envStr("POSTGRES_USER", "postgres"),
		PostgresPassword: envStr("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       envStr("POSTGRES_DB", "app"),
		PostgresHost:     envStr("POSTGRES_HOST", "localhost"),
		PostgresPort:     pgPort,
		PostgresSSLMode:  envStr("POSTGRES_SSLMODE", "disable"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		RateLimit: rl,

		S3Bucket:        os.Getenv("S3_BUCKET"),
		S3Region:        envStr("S3_REGION", "ap-northeast-1"),
		S3Endpoint:      os.Getenv("S3_ENDPOINT"),
		S3PublicBaseURL: os.Getenv("S3_PUBLIC_BASE_URL"),

		AMQPURL: os.Getenv("AMQP_URL"),

		FEURL:    envStr("FE_URL", "http://localhost:3000"),
		LogLevel: envStr("LOG_LEVEL", "info"),
	}

	//cookieのsecureは本番ではデフォルトtrue
	secure, err := envBool("COOKIE_SECURE", cfg.IsProd())
	if err != nil {
		errs = append(errs, err.Error())
	}
	cfg.CookieSecure = secure

	proxies, err := envCIDRs("TRUSTED_PROXIES")
	if err != nil {
		errs = append(errs, err.Error())
	}
	cfg.TrustedProxies = proxies

	//必須チェック
	if cfg.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET is required")
	} else if len(cfg.JWTSecret) < 16 {
		errs = append(errs, "JWT_SECRET must be at least 16 characters")
	}
	if cfg.AccessTTL <= 0 {
		errs = append(errs, "ACCESS_TOKEN_TTL must be positive")
	}
	if cfg.RefreshTTL <= cfg.AccessTTL {
		errs = append(errs, "REFRESH_TOKEN_TTL must be longer than ACCESS_TOKEN_TTL")
	}

	switch cfg.StoreDriver {
	case StoreMongo:
		if cfg.MongoURI == "" {
			errs = append(errs, "MONGODB_URI is required when STORE_DRIVER=mongo")
		}
	case StorePostgres:
	default:
		errs = append(errs, fmt.Sprintf("STORE_DRIVER must be %q or %q", StoreMongo, StorePostgres))
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// PostgresDSNはgorm用のDSN
func (c Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

func loadRateLimit() (RateLimitConfig, error) {
	enabled, err := envBool("RATE_LIMIT_ENABLED", true)
	if err != nil {
		return RateLimitConfig{}, err
	}
	capacity, err := envInt("RATE_LIMIT_CAPACITY", 10)
	if err != nil {
		return RateLimitConfig{}, err
	}
	refill, err := envInt("RATE_LIMIT_REFILL_TOKENS", 1)
	if err != nil {
		return RateLimitConfig{}, err
	}
	interval, err := envDur("RATE_LIMIT_REFILL_INTERVAL", 6*time.Second)
	if err != nil {
		return RateLimitConfig{}, err
	}
	ttl, err := envDur("RATE_LIMIT_TTL", 10*time.Minute)
	if err != nil {
		return RateLimitConfig{}, err
	}

	rl := RateLimitConfig{
		Enabled:        enabled,
		Capacity:       capacity,
		RefillTokens:   refill,
		RefillInterval: interval,
		TTL:            ttl,
		Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
	}
	if rl.Capacity < 1 {
		rl.Capacity = 1
	}
	if rl.RefillTokens < 1 {
		rl.RefillTokens = 1
	}
	if rl.RefillInterval <= 0 {
		rl.RefillInterval = time.Second
	}
	if minTTL := 5 * rl.RefillInterval; rl.TTL < minTTL {
		rl.TTL = minTTL
	}
	return rl, nil
}

func envStr(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return def, fmt.Errorf("%s must be boolean", key)
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func envDur(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}

// カンマ区切りのCIDR（単体IPは/32,/128として扱う）
func envCIDRs(key string) ([]*net.IPNet, error) {
	v := os.Getenv(key)
	if v == "" {
		return nil, nil
	}

	var out []*net.IPNet
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.Contains(part, "/") {
			ip := net.ParseIP(part)
			if ip == nil {
				return nil, fmt.Errorf("%s: invalid address %q", key, part)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			out = append(out, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(part)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid CIDR %q: %w", key, part, err)
		}
		out = append(out, n)
	}
	return out, nil
}
