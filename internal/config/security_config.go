package config

import (
	"strings"
	"time"
)

type SecurityConfig interface {
	GetLoginRateLimit() int
	GetLoginRateWindow() time.Duration
	GetTrustedProxies() []string
}

type Security struct {
	file *fileConfig
}

var _ SecurityConfig = Security{}

// GetLoginRateLimit is the number of login or register attempts allowed per
// client address in each window.
func (s Security) GetLoginRateLimit() int {
	limit := s.file.Security.LoginRateLimit
	if limit <= 0 {
		limit = 10
	}
	return GetEnvInt("LOGIN_RATE_LIMIT", limit)
}

func (s Security) GetLoginRateWindow() time.Duration {
	window := time.Minute
	if d, err := time.ParseDuration(s.file.Security.LoginRateWindow); err == nil && d > 0 {
		window = d
	}
	return GetEnvDuration("LOGIN_RATE_WINDOW", window)
}

// GetTrustedProxies lists the proxy addresses or CIDR ranges whose
// X-Forwarded-For header is believed. Empty means the socket address is
// always the client.
func (s Security) GetTrustedProxies() []string {
	if v := GetEnv("TRUSTED_PROXIES", ""); v != "" {
		var proxies []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				proxies = append(proxies, p)
			}
		}
		return proxies
	}
	return s.file.Security.TrustedProxies
}
