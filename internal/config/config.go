package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const minSecretBytes = 32

// JWTConfig holds token signing configuration.
type JWTConfig struct {
	Secret     []byte // decoded HMAC key
	AccessTTL  time.Duration
	RefreshTTL time.Duration // reserved; no flow issues refresh tokens yet
	Header     string
}

// HTTPConfig holds listener and request limits.
type HTTPConfig struct {
	Addr          string
	GRPCAddr      string // empty disables the gRPC health server
	MaxBodyBytes  int64
	AuthRateBurst int
	AuthRatePerS  int
	CORSOrigins   []string

	// TrustedProxies are the peers whose X-Forwarded-For is believed.
	TrustedProxies []netip.Prefix
}

type Config struct {
	JWT      JWTConfig
	HTTP     HTTPConfig
	PGDSN    string // empty selects in-memory stores
	LogLevel string
}

// Load reads configuration from MEETIX_* environment variables.
// Every missing or invalid value is reported in a single error.
func Load() (Config, error) {
	var (
		cfg  Config
		errs []error
	)

	secret := strings.TrimSpace(os.Getenv("MEETIX_JWT_SECRET"))
	if secret == "" {
		errs = append(errs, errors.New("missing required environment variable MEETIX_JWT_SECRET"))
	} else if key, err := decodeSecret(secret); err != nil {
		errs = append(errs, fmt.Errorf("invalid MEETIX_JWT_SECRET: %w", err))
	} else {
		cfg.JWT.Secret = key
	}

	cfg.JWT.AccessTTL = time.Duration(envInt("MEETIX_JWT_EXPIRATION_MS", 86_400_000, &errs)) * time.Millisecond
	cfg.JWT.RefreshTTL = time.Duration(envInt("MEETIX_JWT_REFRESH_EXPIRATION_MS", 604_800_000, &errs)) * time.Millisecond
	if cfg.JWT.AccessTTL <= 0 {
		errs = append(errs, errors.New("invalid MEETIX_JWT_EXPIRATION_MS: must be greater than zero"))
	}
	cfg.JWT.Header = envString("MEETIX_JWT_HEADER", "Authorization")

	cfg.PGDSN = strings.TrimSpace(os.Getenv("MEETIX_PG_DSN"))
	if cfg.PGDSN != "" {
		if err := validateDSN(cfg.PGDSN); err != nil {
			errs = append(errs, fmt.Errorf("invalid MEETIX_PG_DSN: %w", err))
		}
	}

	cfg.HTTP.Addr = envString("MEETIX_HTTP_ADDR", ":8080")
	cfg.HTTP.GRPCAddr = os.Getenv("MEETIX_GRPC_ADDR")
	if _, set := os.LookupEnv("MEETIX_GRPC_ADDR"); !set {
		cfg.HTTP.GRPCAddr = ":9090"
	}
	cfg.HTTP.MaxBodyBytes = int64(envInt("MEETIX_MAX_BODY_BYTES", 1<<20, &errs))
	cfg.HTTP.AuthRateBurst = envInt("MEETIX_AUTH_RATE_BURST", 10, &errs)
	cfg.HTTP.AuthRatePerS = envInt("MEETIX_AUTH_RATE_PER_SEC", 5, &errs)
	for _, o := range strings.Split(os.Getenv("MEETIX_CORS_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.HTTP.CORSOrigins = append(cfg.HTTP.CORSOrigins, o)
		}
	}

	for _, p := range strings.Split(os.Getenv("MEETIX_TRUSTED_PROXIES"), ",") {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		prefix, err := parseProxy(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid MEETIX_TRUSTED_PROXIES: %w", err))
			continue
		}
		cfg.HTTP.TrustedProxies = append(cfg.HTTP.TrustedProxies, prefix)
	}

	cfg.LogLevel = envString("MEETIX_LOG_LEVEL", "info")

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

func decodeSecret(b64 string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("must be valid base64: %w", err)
	}
	if len(key) < minSecretBytes {
		return nil, fmt.Errorf("must decode to at least %d bytes, got %d", minSecretBytes, len(key))
	}
	return key, nil
}

// parseProxy accepts a bare address or a CIDR block.
func parseProxy(s string) (netip.Prefix, error) {
	if strings.Contains(s, "/") {
		prefix, err := netip.ParsePrefix(s)
		if err != nil {
			return netip.Prefix{}, err
		}
		return prefix.Masked(), nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, err
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

func validateDSN(dsn string) error {
	// key=value DSNs are accepted as-is; pgx parses them on connect.
	if !strings.Contains(dsn, "://") {
		return nil
	}
	parsed, err := url.Parse(dsn)
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}
	if parsed.Scheme != "postgres" && parsed.Scheme != "postgresql" {
		return fmt.Errorf("URL must use postgres or postgresql scheme, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("URL must include a host")
	}
	return nil
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int, errs *[]error) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %q is not an integer", key, v))
		return def
	}
	return n
}
