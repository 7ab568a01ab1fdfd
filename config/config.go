package config

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDebug                 = "debug"
	ConfigConfigFile            = "config-file"
	ConfigDataPath              = "data-path"
	ConfigSnapshot              = "snapshot"
	ConfigSnapshotFetchAttempts = "snapshot-fetch-attempts"
	ConfigPolicyFile            = "policy-file"
	ConfigUniversalBreeders     = "universal-breeders"
	ConfigInheritedMethods      = "inherited-methods"
	ConfigNonPassableMethods    = "non-passable-methods"
	ConfigUndiscoveredEggGroups = "undiscovered-egg-groups"
	ConfigMaxChains             = "max-chains"
	ConfigSolveTimeout          = "solve-timeout"
	ConfigThreads               = "threads"
	ConfigParallelThreshold     = "parallel-threshold"
	ConfigOutputFormat          = "output-format"
	ConfigPrettyNames           = "pretty-names"
	ConfigNatsURL               = "nats-url"
	ConfigNatsSubject           = "nats-subject"
	ConfigCPUProfile            = "cpu-profile"
	ConfigMemProfile            = "mem-profile"
)

const (
	DefaultNatsURL     = "nats://127.0.0.1:4222"
	DefaultNatsSubject = "eggmove.solve"
)

// Config layers flags over EGGMOVE_ environment variables over the YAML
// config file over defaults.
type Config struct {
	*viper.Viper
	args []string
}

func DefaultConfig() *Config {
	c := &Config{Viper: viper.New()}
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	c.SetDefault(ConfigDebug, false)
	c.SetDefault(ConfigDataPath, "./data")
	c.SetDefault(ConfigSnapshot, "./data/dump.json")
	c.SetDefault(ConfigSnapshotFetchAttempts, 3)
	c.SetDefault(ConfigPolicyFile, "")
	c.SetDefault(ConfigUniversalBreeders, []string{"ditto"})
	c.SetDefault(ConfigInheritedMethods, []string{"egg", "light-ball-egg"})
	c.SetDefault(ConfigNonPassableMethods, []string{})
	c.SetDefault(ConfigUndiscoveredEggGroups, []string{"no-eggs"})
	c.SetDefault(ConfigMaxChains, 100)
	c.SetDefault(ConfigSolveTimeout, 10*time.Second)
	c.SetDefault(ConfigThreads, runtime.NumCPU())
	c.SetDefault(ConfigParallelThreshold, 256)
	c.SetDefault(ConfigOutputFormat, "text")
	c.SetDefault(ConfigPrettyNames, false)
	c.SetDefault(ConfigNatsURL, DefaultNatsURL)
	c.SetDefault(ConfigNatsSubject, DefaultNatsSubject)
	c.SetDefault(ConfigCPUProfile, "")
	c.SetDefault(ConfigMemProfile, "")
}

// Load parses args up to the first positional argument. Whatever follows
// is available from Args.
func (c *Config) Load(args []string) error {
	if c.Viper == nil {
		c.Viper = viper.New()
	}
	c.setDefaults()

	fs := pflag.NewFlagSet("eggmove", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.String(ConfigConfigFile, "", "YAML config file (default $HOME/.eggmove/config.yaml)")
	fs.String(ConfigDataPath, "./data", "directory holding data files")
	fs.String(ConfigSnapshot, "./data/dump.json", "snapshot file, sqlite database or http(s) URL")
	fs.Int(ConfigSnapshotFetchAttempts, 3, "attempts when fetching a snapshot URL")
	fs.String(ConfigPolicyFile, "", "YAML breeding ruleset")
	fs.StringSlice(ConfigUniversalBreeders, []string{"ditto"}, "species that breed with anything breedable")
	fs.StringSlice(ConfigInheritedMethods, []string{"egg", "light-ball-egg"}, "learn methods that are only passed by breeding")
	fs.StringSlice(ConfigNonPassableMethods, []string{}, "direct learn methods that cannot be passed down")
	fs.StringSlice(ConfigUndiscoveredEggGroups, []string{"no-eggs"}, "egg groups that cannot breed")
	fs.Int(ConfigMaxChains, 100, "maximum chains to list per query (0 for no limit)")
	fs.Duration(ConfigSolveTimeout, 10*time.Second, "wall-clock limit per query (0 for none)")
	fs.Int(ConfigThreads, runtime.NumCPU(), "worker threads")
	fs.Int(ConfigParallelThreshold, 256, "frontier size at which a search layer is split across threads")
	fs.String(ConfigOutputFormat, "text", "text, json or yaml")
	fs.Bool(ConfigPrettyNames, false, "title-case names in text output")
	fs.String(ConfigNatsURL, DefaultNatsURL, "NATS server URL")
	fs.String(ConfigNatsSubject, DefaultNatsSubject, "NATS subject for solve requests")
	fs.String(ConfigCPUProfile, "", "write a CPU profile to this file")
	fs.String(ConfigMemProfile, "", "write a memory profile to this file")

	if err := fs.Parse(args); err != nil {
		return err
	}
	c.args = fs.Args()
	if err := c.BindPFlags(fs); err != nil {
		return err
	}

	c.SetEnvPrefix("eggmove")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	cfgFile := c.GetString(ConfigConfigFile)
	if cfgFile != "" {
		c.SetConfigFile(cfgFile)
	} else {
		c.SetConfigName("config")
		c.SetConfigType("yaml")
		c.AddConfigPath("$HOME/.eggmove")
	}
	if err := c.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return err
		}
		log.Debug().Msg("no-config-file")
	} else {
		log.Debug().Str("file", c.ConfigFileUsed()).Msg("read-config-file")
	}
	return nil
}

// Args returns the positional arguments left over by Load.
func (c *Config) Args() []string {
	return c.args
}

func isURL(p string) bool {
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}

// toAbsPath resolves a relative path against basepath, unless it already
// exists relative to the working directory.
func toAbsPath(basepath, p, key string) string {
	if p == "" || filepath.IsAbs(p) || isURL(p) {
		return p
	}
	if _, err := os.Stat(p); err == nil {
		return p
	}
	abs := filepath.Join(basepath, p)
	log.Debug().Str("key", key).Str("path", abs).Msg("adjusted-relative-path")
	return abs
}

// AdjustRelativePaths makes the data, snapshot and policy paths usable when
// the binary is started from another directory.
func (c *Config) AdjustRelativePaths(basepath string) {
	for _, key := range []string{ConfigDataPath, ConfigSnapshot, ConfigPolicyFile} {
		c.Set(key, toAbsPath(basepath, c.GetString(key), key))
	}
}

// SanitizedSettings returns all settings with credentials in URLs redacted.
func (c *Config) SanitizedSettings() map[string]any {
	settings := c.AllSettings()
	for _, key := range []string{ConfigNatsURL, ConfigSnapshot} {
		raw, ok := settings[key].(string)
		if !ok {
			continue
		}
		if u, err := url.Parse(raw); err == nil && u.User != nil {
			if _, hasPassword := u.User.Password(); hasPassword {
				u.User = url.UserPassword(u.User.Username(), "xxxxx")
				settings[key] = u.String()
			}
		}
	}
	return settings
}

// Write saves the current settings to the config file in use, or to
// $HOME/.eggmove/config.yaml if there is none.
func (c *Config) Write() error {
	path := c.ConfigFileUsed()
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		path = filepath.Join(home, ".eggmove", "config.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	log.Info().Str("path", path).Msg("writing-config")
	return c.WriteConfigAs(path)
}
