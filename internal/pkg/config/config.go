package config

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// DefaultSessionSecret is the fallback signing secret. It is only acceptable
// outside production; see Validate.
const DefaultSessionSecret = "default-secret"

type Config struct {
	Port          string `env:"PORT,          default=3000"`
	Env           string `env:"ENV,           default=development"`
	LogLevel      string `env:"LOG_LEVEL,     default=info"`
	SessionSecret string `env:"SESSION_SECRET, default=default-secret"`
	PublicDir     string `env:"PUBLIC_DIR,    default=public"`
	UsersFile     string `env:"USERS_FILE,    default=data/users.json"`
	MessagesFile  string `env:"MESSAGES_FILE, default=data/messages.json"`
	BcryptCost    int    `env:"BCRYPT_COST,   default=10"`

	// HideLoginFailureReason reports unknown email and wrong password with
	// the same message.
	HideLoginFailureReason bool `env:"HIDE_LOGIN_FAILURE_REASON, default=false"`

	// TrustedProxies lists the CIDRs of reverse proxies whose X-Forwarded-For
	// is believed. Empty means the TCP peer address is the client address.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	TLS       TLSConfig
	Captcha   CaptchaConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
	Mongo     MongoConfig
	Redis     RedisConfig
}

type TLSConfig struct {
	CertFile string `env:"TLS_CERT_FILE"`
	KeyFile  string `env:"TLS_KEY_FILE"`
}

// Enabled reports whether both certificate and key are configured.
func (c TLSConfig) Enabled() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

type CaptchaConfig struct {
	Secret    string        `env:"RECAPTCHA_SECRET"`
	VerifyURL string        `env:"RECAPTCHA_VERIFY_URL, default=https://www.google.com/recaptcha/api/siteverify"`
	Timeout   time.Duration `env:"RECAPTCHA_TIMEOUT,    default=5s"`
}

type SessionConfig struct {
	TTL           time.Duration `env:"SESSION_TTL,            default=12h"`
	IdleTimeout   time.Duration `env:"SESSION_IDLE_TIMEOUT,   default=1h"`
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL, default=5m"`
	CookieName    string        `env:"SESSION_COOKIE_NAME,    default=sid"`
	CookieSecure  bool          `env:"SESSION_COOKIE_SECURE,  default=true"`
}

type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS,   default=5"`
	Burst int     `env:"RATE_LIMIT_BURST, default=10"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

// MongoConfig enables MongoDB-backed contact messages and audit events when URI is set.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB, default=authportal"`
}

// RedisConfig enables the captcha replay guard when Addr is set.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate rejects settings that would make the service unsafe to run.
func (c *Config) Validate() error {
	if c.Captcha.Secret == "" {
		return fmt.Errorf("config: RECAPTCHA_SECRET is required")
	}
	if c.IsProduction() && c.SessionSecret == DefaultSessionSecret {
		return fmt.Errorf("config: SESSION_SECRET must be set in production")
	}
	if c.RateLimit.RPS <= 0 {
		return fmt.Errorf("config: RATE_LIMIT_RPS must be positive")
	}
	if _, err := c.TrustedProxyNets(); err != nil {
		return err
	}
	return nil
}

// TrustedProxyNets parses TrustedProxies. A bare IP is taken as a single host.
func (c *Config) TrustedProxyNets() ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(c.TrustedProxies))
	for _, raw := range c.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "/") {
			ip := net.ParseIP(raw)
			if ip == nil {
				return nil, fmt.Errorf("config: TRUSTED_PROXIES: invalid address %q", raw)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, ipnet, err := net.ParseCIDR(raw)
		if err != nil {
			return nil, fmt.Errorf("config: TRUSTED_PROXIES: %w", err)
		}
		nets = append(nets, ipnet)
	}
	return nets, nil
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration through lookuper.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	return &cfg, nil
}
