package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/taskkeeper/internal/flagx"
	"github.com/dmitrijs2005/taskkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations may be
// strings such as "15m" or integer nanoseconds.
type JsonConfig struct {
	HTTPAddr                     string         `json:"http_addr"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	CookiePath                   string         `json:"cookie_path"`
	CookieDomain                 string         `json:"cookie_domain"`
	CookieSecure                 bool           `json:"cookie_secure"`
	CookieHTTPOnly               bool           `json:"cookie_httponly"`
	CookieSameSite               string         `json:"cookie_samesite"`
	LogLevel                     string         `json:"log_level"`
	LogBackend                   string         `json:"log_backend"`
	RedisAddr                    string         `json:"redis_addr"`
	RateLimitPerMinute           int            `json:"rate_limit_per_minute"`
	TrustProxyHeaders            bool           `json:"trust_proxy_headers"`
	ShutdownTimeout              timex.Duration `json:"shutdown_timeout"`
	APIPrefix                    string         `json:"api_prefix"`
}

// parseJson overlays the file named by -c or -config onto config. Keys absent
// from the file keep their current values. No flag means nothing to load.
func parseJson(args []string, config *Config) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := toJson(config)
	if err := json.Unmarshal(data, c); err != nil {
		return err
	}
	fromJson(c, config)
	return nil
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		HTTPAddr:                     c.HTTPAddr,
		DatabaseDSN:                  c.DatabaseDSN,
		SecretKey:                    c.SecretKey,
		AccessTokenValidityDuration:  timex.Duration{Duration: c.AccessTokenValidityDuration},
		RefreshTokenValidityDuration: timex.Duration{Duration: c.RefreshTokenValidityDuration},
		CookiePath:                   c.CookiePath,
		CookieDomain:                 c.CookieDomain,
		CookieSecure:                 c.CookieSecure,
		CookieHTTPOnly:               c.CookieHTTPOnly,
		CookieSameSite:               c.CookieSameSite,
		LogLevel:                     c.LogLevel,
		LogBackend:                   c.LogBackend,
		RedisAddr:                    c.RedisAddr,
		RateLimitPerMinute:           c.RateLimitPerMinute,
		TrustProxyHeaders:            c.TrustProxyHeaders,
		ShutdownTimeout:              timex.Duration{Duration: c.ShutdownTimeout},
		APIPrefix:                    c.APIPrefix,
	}
}

func fromJson(j *JsonConfig, c *Config) {
	c.HTTPAddr = j.HTTPAddr
	c.DatabaseDSN = j.DatabaseDSN
	c.SecretKey = j.SecretKey
	c.AccessTokenValidityDuration = j.AccessTokenValidityDuration.Duration
	c.RefreshTokenValidityDuration = j.RefreshTokenValidityDuration.Duration
	c.CookiePath = j.CookiePath
	c.CookieDomain = j.CookieDomain
	c.CookieSecure = j.CookieSecure
	c.CookieHTTPOnly = j.CookieHTTPOnly
	c.CookieSameSite = j.CookieSameSite
	c.LogLevel = j.LogLevel
	c.LogBackend = j.LogBackend
	c.RedisAddr = j.RedisAddr
	c.RateLimitPerMinute = j.RateLimitPerMinute
	c.TrustProxyHeaders = j.TrustProxyHeaders
	c.ShutdownTimeout = j.ShutdownTimeout.Duration
	c.APIPrefix = j.APIPrefix
}
