package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config interface {
	EnvConfig
	CorsConfig
	SecurityConfig
	DatabaseConfig
	LicensingConfig
	SecretsConfig
}

// fileConfig mirrors the optional YAML file. Environment variables override
// every value read from it.
type fileConfig struct {
	Server struct {
		Port    string `yaml:"port"`
		AppName string `yaml:"app_name"`
		Env     string `yaml:"env"`
	} `yaml:"server"`
	Database struct {
		URL        string `yaml:"url"`
		Migrations string `yaml:"migrations"`
	} `yaml:"database"`
	Cors struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
	Security struct {
		LoginRateLimit  int      `yaml:"login_rate_limit"`
		LoginRateWindow string   `yaml:"login_rate_window"`
		TrustedProxies  []string `yaml:"trusted_proxies"`
	} `yaml:"security"`
	Licensing struct {
		KeyID       string `yaml:"key_id"`
		DefaultDays int    `yaml:"default_days"`
	} `yaml:"licensing"`
	Secrets struct {
		Provider string `yaml:"provider"`
		VaultURL string `yaml:"vault_url"`
	} `yaml:"secrets"`
}

type mainConfig struct {
	EnvVars
	Cors
	Security
	Database
	Licensing
	Secrets
}

// New returns a configuration backed by environment variables only.
func New() Config {
	return fromFile(&fileConfig{})
}

// Load reads the YAML file at path, if any, and layers environment
// variables over it. ${VAR} references inside the file are expanded.
func Load(path string) (Config, error) {
	fc := &fileConfig{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), fc); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	return fromFile(fc), nil
}

func fromFile(fc *fileConfig) mainConfig {
	return mainConfig{
		EnvVars:   EnvVars{file: fc},
		Cors:      Cors{file: fc},
		Security:  Security{file: fc},
		Database:  Database{file: fc},
		Licensing: Licensing{file: fc},
		Secrets:   Secrets{file: fc},
	}
}
