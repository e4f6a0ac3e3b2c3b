package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	portEnvVar    = "PORT"
	appNameEnvVar = "APP_NAME"
	envEnvVar     = "ENV"
)

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	IsDev() bool
}

type EnvVars struct {
	file *fileConfig
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, orDefault(e.file.Server.Port, "8080"))
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return GetEnv(appNameEnvVar, orDefault(e.file.Server.AppName, "Control Plane"))
}

func (e EnvVars) GetEnv() string {
	return strings.ToUpper(GetEnv(envEnvVar, orDefault(e.file.Server.Env, "DEV")))
}

func (e EnvVars) IsDev() bool {
	return e.GetEnv() == "DEV"
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvInt reads an integer variable, falling back on a missing or bad value.
func GetEnvInt(envVar string, defaultValue int) int {
	v, err := strconv.Atoi(os.Getenv(envVar))
	if err != nil {
		return defaultValue
	}
	return v
}

// GetEnvDuration reads a time.ParseDuration value, falling back on a missing or bad value.
func GetEnvDuration(envVar string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(envVar))
	if err != nil {
		return defaultValue
	}
	return v
}

func orDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
