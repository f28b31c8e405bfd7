package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/arun0009/llm-metrics-simulator/internal/logging"
	"github.com/arun0009/llm-metrics-simulator/internal/workload"
)

// Config holds process configuration. Values come from the environment,
// then the optional YAML file, then command-line flags.
type Config struct {
	Listen      string        `yaml:"listen"`
	Port        int           `yaml:"port"`
	MetricsPath string        `yaml:"metrics_path"`
	Interval    time.Duration `yaml:"interval"`
	WarmupSteps int           `yaml:"warmup_steps"`

	BaseQPS  float64  `yaml:"base_qps"`
	Services []string `yaml:"services"`
	Channels []string `yaml:"channels"`
	Mode     string   `yaml:"mode"`
	Seed     *int64   `yaml:"seed"`
	// Profiles holds partial overrides of the built-in profiles, by mode.
	Profiles map[string]yaml.Node `yaml:"profiles"`

	StressSchedule string        `yaml:"stress_schedule"`
	StressDuration time.Duration `yaml:"stress_duration"`

	StrictMetrics bool `yaml:"strict_metrics"`

	EnableTLS bool   `yaml:"enable_tls"`
	CertFile  string `yaml:"cert_file"`
	KeyFile   string `yaml:"key_file"`

	EnableCORS           bool    `yaml:"enable_cors"`
	LogRequests          bool    `yaml:"log_requests"`
	LogLevel             string  `yaml:"log_level"`
	LogFormat            string  `yaml:"log_format"`
	ScrapeRateLimitRPS   float64 `yaml:"scrape_rate_limit_rps"`
	ScrapeRateLimitBurst int     `yaml:"scrape_rate_limit_burst"`

	WatchConfig bool   `yaml:"watch_config"`
	ConfigFile  string `yaml:"-"`
	Dump        bool   `yaml:"-"`
}

const (
	defaultService = "llm-api"
	defaultChannel = "default"
)

// loadConfigFromEnv builds a Config from environment variables.
func loadConfigFromEnv() Config {
	cfg := Config{
		Listen:               getEnv("SIM_LISTEN", "0.0.0.0"),
		Port:                 int(parseInt64(getEnv("SIM_PORT", "18080"))),
		MetricsPath:          getEnv("SIM_METRICS_PATH", "/metrics"),
		Interval:             parseDuration(getEnv("SIM_INTERVAL", "1s")),
		WarmupSteps:          int(parseInt64(getEnv("SIM_WARMUP_STEPS", "3"))),
		BaseQPS:              parseFloat64(getEnv("SIM_BASE_QPS", "2")),
		Services:             parseCSV(getEnv("SIM_SERVICES", defaultService)),
		Channels:             parseCSV(getEnv("SIM_CHANNELS", "default,openai,azure")),
		Mode:                 getEnv("SIM_MODE", string(workload.ModeNormal)),
		StressSchedule:       getEnv("SIM_STRESS_SCHEDULE", ""),
		StressDuration:       parseDuration(getEnv("SIM_STRESS_DURATION", "2m")),
		StrictMetrics:        getEnv("SIM_STRICT_METRICS", "false") == "true",
		EnableTLS:            getEnv("ENABLE_TLS", "false") == "true",
		CertFile:             getEnv("CERT_FILE", "server.crt"),
		KeyFile:              getEnv("KEY_FILE", "server.key"),
		EnableCORS:           getEnv("ENABLE_CORS", "true") == "true",
		LogRequests:          getEnv("LOG_REQUESTS", "false") == "true",
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "text"),
		ScrapeRateLimitRPS:   parseFloat64(getEnv("SIM_SCRAPE_RATE_LIMIT_RPS", "0")),
		ScrapeRateLimitBurst: int(parseInt64(getEnv("SIM_SCRAPE_RATE_LIMIT_BURST", "0"))),
		WatchConfig:          getEnv("SIM_WATCH_CONFIG", "false") == "true",
		ConfigFile:           getEnv("SIM_CONFIG_FILE", ""),
	}
	if seed := getEnv("SIM_SEED", ""); seed != "" {
		if v, err := strconv.ParseInt(seed, 10, 64); err == nil {
			cfg.Seed = &v
		}
	}
	return cfg
}

// loadConfig layers the YAML file at path (if any) over the environment,
// then applies overrides.
func loadConfig(path string, overrides func(*Config)) (Config, error) {
	cfg := loadConfigFromEnv()
	if path == "" {
		path = cfg.ConfigFile
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg.ConfigFile = path
	}
	if overrides != nil {
		overrides(&cfg)
	}
	cfg.normalize()
	return cfg, nil
}

// normalize trims label lists and falls back to the default service and
// channel when a list ends up empty.
func (c *Config) normalize() {
	c.Services = cleanList(c.Services)
	c.Channels = cleanList(c.Channels)
	if len(c.Services) == 0 {
		c.Services = []string{defaultService}
	}
	if len(c.Channels) == 0 {
		c.Channels = []string{defaultChannel}
	}
	if c.MetricsPath == "" {
		c.MetricsPath = "/metrics"
	}
	if !strings.HasPrefix(c.MetricsPath, "/") {
		c.MetricsPath = "/" + c.MetricsPath
	}
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if !c.Dump && (c.Port <= 0 || c.Port > 65535) {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval must be positive, got %s", c.Interval))
	}
	if c.WarmupSteps < 0 {
		errs = append(errs, fmt.Errorf("warmup steps must not be negative, got %d", c.WarmupSteps))
	}
	if c.BaseQPS < 0 || math.IsNaN(c.BaseQPS) || math.IsInf(c.BaseQPS, 0) {
		errs = append(errs, fmt.Errorf("base qps must be a finite non-negative number, got %v", c.BaseQPS))
	}
	if _, err := workload.ParseMode(c.Mode); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.profileOverrides(); err != nil {
		errs = append(errs, err)
	}
	if c.StressSchedule != "" {
		if _, err := cron.ParseStandard(c.StressSchedule); err != nil {
			errs = append(errs, fmt.Errorf("stress schedule %q: %w", c.StressSchedule, err))
		}
		if c.StressDuration <= 0 {
			errs = append(errs, fmt.Errorf("stress duration must be positive, got %s", c.StressDuration))
		}
	}
	if c.EnableTLS && (c.CertFile == "" || c.KeyFile == "") {
		errs = append(errs, errors.New("tls requires cert and key files"))
	}
	if c.ScrapeRateLimitRPS < 0 || c.ScrapeRateLimitBurst < 0 {
		errs = append(errs, errors.New("scrape rate limit must not be negative"))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// profileOverrides decodes each override on top of the built-in profile of
// the same mode, so a file only needs to list the fields it changes.
func (c Config) profileOverrides() (map[workload.Mode]workload.Profile, error) {
	if len(c.Profiles) == 0 {
		return nil, nil
	}
	out := make(map[workload.Mode]workload.Profile, len(c.Profiles))
	for name, node := range c.Profiles {
		mode, err := workload.ParseMode(name)
		if err != nil {
			return nil, fmt.Errorf("profiles: %w", err)
		}
		p := workload.ProfileFor(mode)
		if err := node.Decode(&p); err != nil {
			return nil, fmt.Errorf("profiles.%s: %w", name, err)
		}
		p.Name = mode
		out[mode] = p
	}
	return out, nil
}

// settings returns the runtime-adjustable part of the configuration.
func (c Config) settings() workload.Settings {
	mode, _ := workload.ParseMode(c.Mode)
	return workload.Settings{
		Services: c.Services,
		Channels: c.Channels,
		BaseQPS:  c.BaseQPS,
		Mode:     mode,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt64(s string) int64 {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	return 0
}

func parseFloat64(s string) float64 {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return 0
}

// parseDuration accepts Go durations ("500ms") or plain seconds ("1.5").
func parseDuration(s string) time.Duration {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(f * float64(time.Second))
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return 0
}

func parseCSV(s string) []string {
	return cleanList(strings.Split(s, ","))
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
