package config

import (
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment key, e.g. TASKKEEPER_SECRET_KEY.
const EnvPrefix = "TASKKEEPER"

// parseEnv overlays environment variables onto config. Only variables that
// are set and non-empty take effect.
func parseEnv(config *Config) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)

	stringVars := map[string]*string{
		"http_addr":       &config.HTTPAddr,
		"database_dsn":    &config.DatabaseDSN,
		"secret_key":      &config.SecretKey,
		"cookie_path":     &config.CookiePath,
		"cookie_domain":   &config.CookieDomain,
		"cookie_samesite": &config.CookieSameSite,
		"log_level":       &config.LogLevel,
		"log_backend":     &config.LogBackend,
		"redis_addr":      &config.RedisAddr,
		"api_prefix":      &config.APIPrefix,
	}
	durations := map[string]*time.Duration{
		"access_token_validity_duration":  &config.AccessTokenValidityDuration,
		"refresh_token_validity_duration": &config.RefreshTokenValidityDuration,
		"shutdown_timeout":                &config.ShutdownTimeout,
	}
	bools := map[string]*bool{
		"cookie_secure":       &config.CookieSecure,
		"cookie_httponly":     &config.CookieHTTPOnly,
		"trust_proxy_headers": &config.TrustProxyHeaders,
	}
	ints := map[string]*int{
		"rate_limit_per_minute": &config.RateLimitPerMinute,
	}

	bind := func(key string) (bool, error) {
		if err := v.BindEnv(key); err != nil {
			return false, err
		}
		return v.IsSet(key), nil
	}

	for key, dst := range stringVars {
		set, err := bind(key)
		if err != nil {
			return err
		}
		if set {
			*dst = v.GetString(key)
		}
	}
	for key, dst := range durations {
		set, err := bind(key)
		if err != nil {
			return err
		}
		if set {
			*dst = v.GetDuration(key)
		}
	}
	for key, dst := range bools {
		set, err := bind(key)
		if err != nil {
			return err
		}
		if set {
			*dst = v.GetBool(key)
		}
	}
	for key, dst := range ints {
		set, err := bind(key)
		if err != nil {
			return err
		}
		if set {
			*dst = v.GetInt(key)
		}
	}
	return nil
}
