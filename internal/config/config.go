// Package config assembles chrome-cli's configuration from defaults, a
// JSON config file, environment variables and CLI flags, the same
// layering cmd/config.go uses for k6's own options.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mstoykov/envconfig"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	null "gopkg.in/guregu/null.v3"

	"github.com/Nunley-Media-Group/chrome-cli/internal/types"
)

const envPrefix = "CHROME_CLI"

// Config holds every value the root command's persistent flags can set,
// in their nullable form so a caller can tell "left at its default" apart
// from "explicitly set to the default's value" — the exact distinction
// the resolver's explicit-port strategy needs.
type Config struct {
	Host           null.String        `json:"host" envconfig:"HOST"`
	Port           null.Int           `json:"port" envconfig:"PORT"`
	WSURL          null.String        `json:"wsURL" envconfig:"WS_URL"`
	ConnectTimeout types.NullDuration `json:"connectTimeout" envconfig:"CONNECT_TIMEOUT"`
	CommandTimeout types.NullDuration `json:"commandTimeout" envconfig:"COMMAND_TIMEOUT"`
	LogOutput      null.String        `json:"logOutput" envconfig:"LOG_OUTPUT"`
	LogFormat      null.String        `json:"logFormat" envconfig:"LOG_FORMAT"`
	Verbose        null.Bool          `json:"verbose" envconfig:"VERBOSE"`
	NoColor        null.Bool          `json:"noColor" envconfig:"NO_COLOR"`
}

// Default returns chrome-cli's built-in defaults, the lowest-priority
// layer Load composes over.
func Default() Config {
	return Config{
		Host:           null.StringFrom("127.0.0.1"),
		ConnectTimeout: types.NullDurationFrom(10 * time.Second),
		CommandTimeout: types.NullDurationFrom(30 * time.Second),
		LogOutput:      null.StringFrom("stderr"),
		LogFormat:      null.StringFrom("text"),
	}
}

// Apply overlays every Valid field of cfg onto c, returning the merged
// result. Mirrors cmd/config.go's Config.Apply for k6's own options.
func (c Config) Apply(cfg Config) Config {
	if cfg.Host.Valid {
		c.Host = cfg.Host
	}
	if cfg.Port.Valid {
		c.Port = cfg.Port
	}
	if cfg.WSURL.Valid {
		c.WSURL = cfg.WSURL
	}
	if cfg.ConnectTimeout.Valid {
		c.ConnectTimeout = cfg.ConnectTimeout
	}
	if cfg.CommandTimeout.Valid {
		c.CommandTimeout = cfg.CommandTimeout
	}
	if cfg.LogOutput.Valid {
		c.LogOutput = cfg.LogOutput
	}
	if cfg.LogFormat.Valid {
		c.LogFormat = cfg.LogFormat
	}
	if cfg.Verbose.Valid {
		c.Verbose = cfg.Verbose
	}
	if cfg.NoColor.Valid {
		c.NoColor = cfg.NoColor
	}
	return c
}

// DefaultConfigFilePath returns $XDG_CONFIG_HOME/chrome-cli/config.json,
// falling back to $HOME/.config when XDG_CONFIG_HOME is unset.
func DefaultConfigFilePath(env map[string]string) string {
	if dir := env["XDG_CONFIG_HOME"]; dir != "" {
		return filepath.Join(dir, "chrome-cli", "config.json")
	}
	return filepath.Join(env["HOME"], ".config", "chrome-cli", "config.json")
}

// FlagSet returns the persistent flags Load reads CLI overrides from.
// cmd/root.go adds this flag set to the root command.
func FlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("", pflag.ContinueOnError)
	flags.String("host", "", "Chrome DevTools host")
	flags.Uint16("port", 0, "Chrome DevTools port")
	flags.String("ws-url", "", "explicit WebSocket debugger URL, bypassing discovery")
	flags.Duration("connect-timeout", 0, "timeout for establishing the WebSocket connection")
	flags.Duration("command-timeout", 0, "timeout for a single CDP command round-trip")
	flags.String("log-output", "", "destination for logs: stderr, stdout, none, or file=path")
	flags.String("log-format", "", "log output format: text, json, or raw")
	flags.BoolP("verbose", "v", false, "enable debug logging")
	flags.Bool("no-color", false, "disable colored output")
	flags.StringP("config", "c", "", "path to a JSON config file")
	return flags
}

func fromFlags(flags *pflag.FlagSet) (Config, error) {
	var c Config
	var err error
	set := func(key string, assign func() error) {
		if err != nil || !flags.Changed(key) {
			return
		}
		err = assign()
	}

	set("host", func() error {
		v, e := flags.GetString("host")
		c.Host = null.StringFrom(v)
		return e
	})
	set("port", func() error {
		v, e := flags.GetUint16("port")
		c.Port = null.IntFrom(int64(v))
		return e
	})
	set("ws-url", func() error {
		v, e := flags.GetString("ws-url")
		c.WSURL = null.StringFrom(v)
		return e
	})
	set("connect-timeout", func() error {
		v, e := flags.GetDuration("connect-timeout")
		c.ConnectTimeout = types.NullDurationFrom(v)
		return e
	})
	set("command-timeout", func() error {
		v, e := flags.GetDuration("command-timeout")
		c.CommandTimeout = types.NullDurationFrom(v)
		return e
	})
	set("log-output", func() error {
		v, e := flags.GetString("log-output")
		c.LogOutput = null.StringFrom(v)
		return e
	})
	set("log-format", func() error {
		v, e := flags.GetString("log-format")
		c.LogFormat = null.StringFrom(v)
		return e
	})
	set("verbose", func() error {
		v, e := flags.GetBool("verbose")
		c.Verbose = null.BoolFrom(v)
		return e
	})
	set("no-color", func() error {
		v, e := flags.GetBool("no-color")
		c.NoColor = null.BoolFrom(v)
		return e
	})

	return c, err
}

func configFilePath(flags *pflag.FlagSet, env map[string]string) string {
	if flags.Changed("config") {
		v, err := flags.GetString("config")
		if err == nil && v != "" {
			return v
		}
	}
	if v := env[envPrefix+"_CONFIG"]; v != "" {
		return v
	}
	return DefaultConfigFilePath(env)
}

func readFileConfig(fs afero.Fs, path string) (Config, error) {
	exists, err := afero.Exists(fs, path)
	if err != nil || !exists {
		return Config{}, nil //nolint:nilerr
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}
	var conf Config
	if err := json.Unmarshal(data, &conf); err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return conf, nil
}

func readEnvConfig(env map[string]string) (Config, error) {
	var conf Config
	err := envconfig.Process(envPrefix, &conf, func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})
	return conf, err
}

// Load composes, in ascending priority: Default(), a JSON config file
// (path from --config/$CHROME_CLI_CONFIG, default
// $XDG_CONFIG_HOME/chrome-cli/config.json), CHROME_CLI_* environment
// variables, then flags explicitly set on the command line.
func Load(flags *pflag.FlagSet, fs afero.Fs, env map[string]string) (Config, error) {
	cliConf, err := fromFlags(flags)
	if err != nil {
		return Config{}, err
	}

	fileConf, err := readFileConfig(fs, configFilePath(flags, env))
	if err != nil {
		return Config{}, err
	}

	envConf, err := readEnvConfig(env)
	if err != nil {
		return Config{}, err
	}

	conf := Default().Apply(fileConf).Apply(envConf).Apply(cliConf)
	return conf, nil
}

// BuildEnvMap turns os.Environ()-style "KEY=VALUE" pairs into a map, the
// same indirection cmd/root.go's globalState uses for every other piece
// of environment-derived state.
func BuildEnvMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, _ := strings.Cut(kv, "=")
		env[k] = v
	}
	return env
}

// OSEnviron is a convenience alias so callers don't need to import "os"
// just to pass os.Environ() into BuildEnvMap.
func OSEnviron() []string {
	return os.Environ()
}
