package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"coderunner/internal/cache"
	"coderunner/internal/engine"
	"coderunner/internal/profile"
	"coderunner/pkg/utils/logger"

	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8090"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second

	devWorkspaceRoot  = "/tmp/coderunner/workspaces"
	prodWorkspaceRoot = "/var/lib/coderunner/workspaces"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// ExecutionConfig holds engine ceilings.
type ExecutionConfig struct {
	CompileTimeout     time.Duration `yaml:"compileTimeout"`
	MaxExecutionTimeMs int64         `yaml:"maxExecutionTimeMs"`
	MaxMemoryLimitMB   int64         `yaml:"maxMemoryLimitMb"`
	MaxOutputLength    int64         `yaml:"maxOutputLength"`
	MemoryPollInterval time.Duration `yaml:"memoryPollInterval"`
}

// WorkspaceConfig holds workspace root and sweeper settings.
type WorkspaceConfig struct {
	Root              string        `yaml:"root"`
	CleanupInterval   time.Duration `yaml:"cleanupInterval"`
	MaxTempAgeMinutes int           `yaml:"maxTempFileAgeMinutes"`
}

// GuardConfig holds the request-level validation limits.
type GuardConfig struct {
	SharedSecret   string        `yaml:"sharedSecret"`
	MaxBodyBytes   int64         `yaml:"maxBodyBytes"`
	MaxCodeLength  int           `yaml:"maxCodeLength"`
	MaxInputLength int           `yaml:"maxInputLength"`
	RateLimitPerIP int           `yaml:"rateLimitPerIp"`
	RateWindow     time.Duration `yaml:"rateWindow"`
}

// AppConfig is the full service configuration.
type AppConfig struct {
	Environment string                    `yaml:"environment"`
	Server      ServerConfig              `yaml:"server"`
	Logger      logger.Config             `yaml:"logger"`
	Execution   ExecutionConfig           `yaml:"execution"`
	Workspace   WorkspaceConfig           `yaml:"workspace"`
	Guards      GuardConfig               `yaml:"guards"`
	Redis       cache.Config              `yaml:"redis"`
	Languages   []profile.LanguageProfile `yaml:"languages"`
}

func loadAppConfig(path string) (*AppConfig, error) {
	cfg := &AppConfig{}
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaultHTTPAddr
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = defaultReadTimeout
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = defaultWriteTimeout
	}
	if c.Server.IdleTimeout <= 0 {
		c.Server.IdleTimeout = defaultIdleTimeout
	}
	if c.Workspace.Root == "" {
		if c.Environment == "production" {
			c.Workspace.Root = prodWorkspaceRoot
		} else {
			c.Workspace.Root = devWorkspaceRoot
		}
	}
	if c.Workspace.CleanupInterval <= 0 {
		c.Workspace.CleanupInterval = 5 * time.Minute
	}
	if c.Workspace.MaxTempAgeMinutes <= 0 {
		c.Workspace.MaxTempAgeMinutes = 30
	}
	if c.Guards.MaxBodyBytes <= 0 {
		c.Guards.MaxBodyBytes = 2 << 20
	}
	if c.Guards.MaxCodeLength <= 0 {
		c.Guards.MaxCodeLength = 100_000
	}
	if c.Guards.MaxInputLength <= 0 {
		c.Guards.MaxInputLength = 100_000
	}
	if c.Guards.RateWindow <= 0 {
		c.Guards.RateWindow = time.Minute
	}
}

// applyEnvOverrides maps deployment environment variables onto the config.
func (c *AppConfig) applyEnvOverrides() {
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("WORKSPACE_ROOT"); v != "" {
		c.Workspace.Root = v
	}
	if v, ok := envInt64("MAX_EXECUTION_TIME"); ok {
		c.Execution.MaxExecutionTimeMs = v
	}
	if v, ok := envInt64("MAX_MEMORY_LIMIT"); ok {
		c.Execution.MaxMemoryLimitMB = v
	}
	if v, ok := envInt64("MAX_OUTPUT_LENGTH"); ok {
		c.Execution.MaxOutputLength = v
	}
	if v, ok := envInt64("MAX_TEMP_FILE_AGE_MINUTES"); ok {
		c.Workspace.MaxTempAgeMinutes = int(v)
	}
	if v := os.Getenv("CLEANUP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Workspace.CleanupInterval = d
		}
	}
	if v := os.Getenv("JUDGE_SHARED_SECRET"); v != "" {
		c.Guards.SharedSecret = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
}

func envInt64(name string) (int64, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func (c *AppConfig) engineConfig() engine.Config {
	return engine.Config{
		CompileTimeout:     c.Execution.CompileTimeout,
		MaxTimeLimitMs:     c.Execution.MaxExecutionTimeMs,
		MaxMemoryMB:        c.Execution.MaxMemoryLimitMB,
		MaxOutputBytes:     c.Execution.MaxOutputLength,
		MemoryPollInterval: c.Execution.MemoryPollInterval,
	}
}
