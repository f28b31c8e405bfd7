package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/arun0009/llm-metrics-simulator/internal/logging"
	"github.com/arun0009/llm-metrics-simulator/internal/workload"
)

// flagValues holds command-line values; only flags the user set override
// the environment and config file.
type flagValues struct {
	listen         string
	port           int
	metricsPath    string
	interval       string
	warmupSteps    int
	baseQPS        float64
	services       string
	channels       string
	mode           string
	seed           int64
	dump           bool
	configFile     string
	watchConfig    bool
	logLevel       string
	logFormat      string
	strictMetrics  bool
	stressSchedule string
	stressDuration time.Duration
	enableTLS      bool
	certFile       string
	keyFile        string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var fv flagValues

	cmd := &cobra.Command{
		Use:   "llm-metrics-simulator",
		Short: "Serve synthetic LLM gateway metrics in Prometheus text format",
		Long: `llm-metrics-simulator generates plausible LLM API traffic (request counts,
latencies, token usage, queue and fallback-store behaviour) and exposes it on
a Prometheus scrape endpoint. Use --dump to print one scrape and exit.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("interval") && parseDuration(fv.interval) <= 0 {
				return fmt.Errorf("invalid --interval %q: want seconds or a duration", fv.interval)
			}
			overrides := fv.overrides(cmd)
			cfg, err := loadConfig(fv.configFile, overrides)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			level, _ := logging.ParseLevel(cfg.LogLevel)
			format, _ := logging.ParseFormat(cfg.LogFormat)
			logger := logging.New(logging.Config{Level: level, Format: format, Output: stderr})

			s, err := newServer(cfg, logger)
			if err != nil {
				return err
			}
			s.overrides = overrides
			return s.run(cmd.Context(), stdout)
		},
	}

	f := cmd.Flags()
	f.StringVar(&fv.listen, "listen", "", "listen address (default 0.0.0.0)")
	f.IntVar(&fv.port, "port", 0, "listen port (default 18080)")
	f.StringVar(&fv.metricsPath, "metrics-path", "", "scrape path (default /metrics)")
	f.StringVar(&fv.interval, "interval", "", "simulation step interval, in seconds (0.5) or as a duration (500ms) (default 1s)")
	f.IntVar(&fv.warmupSteps, "warmup-steps", 0, "steps run before serving (default 3)")
	f.Float64Var(&fv.baseQPS, "base-qps", 0, "mean requests per second per service and channel (default 2)")
	f.StringVar(&fv.services, "services", "", "comma-separated service names")
	f.StringVar(&fv.channels, "channels", "", "comma-separated channel names")
	f.StringVar(&fv.mode, "mode", "", "workload profile: normal or stress")
	f.Int64Var(&fv.seed, "seed", 0, "random seed for reproducible output")
	f.BoolVar(&fv.dump, "dump", false, "print one scrape after warm-up and exit")
	f.StringVarP(&fv.configFile, "config", "c", "", "YAML config file")
	f.BoolVar(&fv.watchConfig, "watch-config", false, "reload the config file when it changes")
	f.StringVar(&fv.logLevel, "log-level", "", "debug, info, warn or error")
	f.StringVar(&fv.logFormat, "log-format", "", "text or json")
	f.BoolVar(&fv.strictMetrics, "strict-metrics", false, "reject invalid metric names and histogram buckets")
	f.StringVar(&fv.stressSchedule, "stress-schedule", "", "cron expression opening stress windows")
	f.DurationVar(&fv.stressDuration, "stress-duration", 0, "length of each stress window (default 2m)")

	f.BoolVar(&fv.enableTLS, "tls", false, "serve HTTPS, generating a self-signed certificate if needed")
	f.StringVar(&fv.certFile, "cert-file", "", "TLS certificate file (default server.crt)")
	f.StringVar(&fv.keyFile, "key-file", "", "TLS key file (default server.key)")

	cmd.AddCommand(newProfilesCmd(stdout))
	return cmd
}

// overrides returns a function applying every flag set on cmd.
func (fv *flagValues) overrides(cmd *cobra.Command) func(*Config) {
	changed := cmd.Flags().Changed
	return func(c *Config) {
		if changed("listen") {
			c.Listen = fv.listen
		}
		if changed("port") {
			c.Port = fv.port
		}
		if changed("metrics-path") {
			c.MetricsPath = fv.metricsPath
		}
		if changed("interval") {
			c.Interval = parseDuration(fv.interval)
		}
		if changed("warmup-steps") {
			c.WarmupSteps = fv.warmupSteps
		}
		if changed("base-qps") {
			c.BaseQPS = fv.baseQPS
		}
		if changed("services") {
			c.Services = parseCSV(fv.services)
		}
		if changed("channels") {
			c.Channels = parseCSV(fv.channels)
		}
		if changed("mode") {
			c.Mode = fv.mode
		}
		if changed("seed") {
			seed := fv.seed
			c.Seed = &seed
		}
		if changed("dump") {
			c.Dump = fv.dump
		}
		if changed("watch-config") {
			c.WatchConfig = fv.watchConfig
		}
		if changed("log-level") {
			c.LogLevel = fv.logLevel
		}
		if changed("log-format") {
			c.LogFormat = fv.logFormat
		}
		if changed("strict-metrics") {
			c.StrictMetrics = fv.strictMetrics
		}
		if changed("stress-schedule") {
			c.StressSchedule = fv.stressSchedule
		}
		if changed("stress-duration") {
			c.StressDuration = fv.stressDuration
		}
		if changed("tls") {
			c.EnableTLS = fv.enableTLS
		}
		if changed("cert-file") {
			c.CertFile = fv.certFile
		}
		if changed("key-file") {
			c.KeyFile = fv.keyFile
		}
	}
}

// newProfilesCmd prints the built-in workload profiles as YAML, in the
// shape accepted by the profiles section of the config file.
func newProfilesCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "Print the built-in workload profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := make(map[string]workload.Profile, len(workload.Modes))
			for _, p := range workload.Profiles() {
				out[string(p.Name)] = p
			}
			enc := yaml.NewEncoder(stdout)
			enc.SetIndent(2)
			if err := enc.Encode(map[string]interface{}{"profiles": out}); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
