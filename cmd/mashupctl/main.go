package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
	cliflag "k8s.io/component-base/cli/flag"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

const defaultConfigPath = "mashupctl.yaml"

type Config struct {
	EnvFile        string `yaml:"env_file"`
	DefinitionsDir string `yaml:"definitions_dir"`
	OutputDir      string `yaml:"output_dir"`
	ProjectName    string `yaml:"project_name"`
	Reason         string `yaml:"reason"`
	HTTP           struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"http"`
	Store struct {
		Path string `yaml:"path"` // empty disables history
	} `yaml:"store"`
	MQTT struct {
		Enabled     bool   `yaml:"enabled"`
		Broker      string `yaml:"broker"`
		Username    string `yaml:"username"`
		Password    string `yaml:"password"`
		TopicPrefix string `yaml:"topic_prefix"`
	} `yaml:"mqtt"`
	Web struct {
		Listen         string   `yaml:"listen"`
		APIKey         string   `yaml:"api_key"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"web"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	timeout time.Duration
}

func (c *Config) validate() error {
	d, err := time.ParseDuration(c.HTTP.Timeout)
	if err != nil {
		return fmt.Errorf("http.timeout: %w", err)
	}
	if d < 0 {
		return fmt.Errorf("http.timeout must not be negative, got %s", d)
	}
	c.timeout = d
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required when mqtt is enabled")
	}
	return nil
}

// loadConfig reads the tool config. A missing file yields the defaults
// unless required is set.
func loadConfig(path string, required bool) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && !required:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if cfg.EnvFile == "" {
		cfg.EnvFile = ".env.example"
	}
	if cfg.DefinitionsDir == "" {
		cfg.DefinitionsDir = "mashups"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	if cfg.HTTP.Timeout == "" {
		cfg.HTTP.Timeout = "30s"
	}
	if cfg.Web.Listen == "" {
		cfg.Web.Listen = "127.0.0.1:8080"
	}
	if cfg.MQTT.TopicPrefix == "" {
		cfg.MQTT.TopicPrefix = "mashupctl"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	return &cfg, nil
}

// newLogger builds the diagnostics logger. Console output of the commands
// does not go through it.
func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(cfg.Log.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// newRootCommand assembles the CLI around a.
func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "mashupctl",
		Short: "Build and deploy mashups and things to a ThingWorx instance",
		Long: `mashupctl builds mashup documents from its catalog and pushes them to a
ThingWorx instance over the REST API. Connection settings come from a
KEY=VALUE env file (THINGWORX_BASE_URL, THINGWORX_APP_KEY).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Flags().Changed("config"), cmd.Flags().Changed("env"))
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.SetGlobalNormalizationFunc(cliflag.WordSepNormalizeFunc)
	addGlobalFlags(root.PersistentFlags(), a)

	root.AddCommand(
		newListCommand(a),
		newRenderCommand(a),
		newValidateCommand(a),
		newPushCommand(a),
		newDeleteCommand(a),
		newCreateThingCommand(a),
		newInspectCommand(a),
		newTemplatesCommand(a),
		newHistoryCommand(a),
		newSnapshotsCommand(a),
		newServeCommand(a),
		newVersionCommand(a),
	)
	return root
}

func addGlobalFlags(fs *pflag.FlagSet, a *app) {
	fs.StringVar(&a.cfgPath, "config", defaultConfigPath, "tool config file (YAML)")
	fs.StringVar(&a.envPath, "env", ".env.example", "env file with THINGWORX_BASE_URL and THINGWORX_APP_KEY")
	fs.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&a.logFormat, "log-format", "", "log format: text, json")
}

// run executes the CLI with args until it finishes or ctx is done, and
// releases whatever the command opened.
func run(ctx context.Context, args []string, out, errOut io.Writer) error {
	a := &app{out: out, errOut: errOut}
	defer a.close()
	root := newRootCommand(a)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, errReported) {
		fmt.Fprintln(errOut, "Error:", err)
	}
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
