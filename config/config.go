package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Settings keys. Flags use these names verbatim; the environment uses
// MORRIS_ plus the key with dashes turned into underscores.
const (
	DebugKey            = "debug"
	SeedKey             = "seed"
	TTableFractionKey   = "ttable-fraction"
	SimIterationsKey    = "sim-iterations"
	SimExplorationKey   = "sim-exploration"
	SimStopKey          = "sim-stop"
	AutoplayGamesKey    = "autoplay-games"
	AutoplayThreadsKey  = "autoplay-threads"
	AutoplaySeedFileKey = "autoplay-seedfile"
	AutoplaySQLiteKey   = "autoplay-sqlite"
	CPUProfileKey       = "cpu-profile"
	MemProfileKey       = "mem-profile"
	DataPathKey         = "data-path"
)

// Keys lists every settings key, for validation and shell completion.
var Keys = []string{
	DebugKey,
	SeedKey,
	TTableFractionKey,
	SimIterationsKey,
	SimExplorationKey,
	SimStopKey,
	AutoplayGamesKey,
	AutoplayThreadsKey,
	AutoplaySeedFileKey,
	AutoplaySQLiteKey,
	CPUProfileKey,
	MemProfileKey,
	DataPathKey,
}

// Config resolves settings in precedence order: explicit command-line
// flags, then MORRIS_* environment variables, then an optional
// $HOME/.morris/config.yaml (or ./config.yaml), then built-in defaults.
type Config struct {
	vp   *viper.Viper
	args []string
}

func (c *Config) Load(args []string) error {
	c.vp = viper.New()

	c.vp.SetDefault(DebugKey, false)
	c.vp.SetDefault(SeedKey, "")
	c.vp.SetDefault(TTableFractionKey, 0.0)
	c.vp.SetDefault(SimIterationsKey, 5000)
	c.vp.SetDefault(SimExplorationKey, 1.0)
	c.vp.SetDefault(SimStopKey, 0)
	c.vp.SetDefault(AutoplayGamesKey, 1000)
	c.vp.SetDefault(AutoplayThreadsKey, runtime.NumCPU())
	c.vp.SetDefault(AutoplaySeedFileKey, "")
	c.vp.SetDefault(AutoplaySQLiteKey, "")
	c.vp.SetDefault(CPUProfileKey, "")
	c.vp.SetDefault(MemProfileKey, "")
	c.vp.SetDefault(DataPathKey, ".")

	fs := flag.NewFlagSet("morris", flag.ContinueOnError)
	fs.Bool(DebugKey, false, "debug logging on")
	fs.String(SeedKey, "", "base64 32-byte seed for reproducible randomness")
	fs.Float64(TTableFractionKey, 0.0, "fraction of system memory for the transposition table; 0 uses the solver default")
	fs.Int(SimIterationsKey, 5000, "monte carlo iterations per move")
	fs.Float64(SimExplorationKey, 1.0, "UCT exploration constant")
	fs.Int(SimStopKey, 0, "sim auto-stop confidence (95, 98 or 99; 0 is off)")
	fs.Int(AutoplayGamesKey, 1000, "number of autoplay games")
	fs.Int(AutoplayThreadsKey, runtime.NumCPU(), "autoplay worker threads")
	fs.String(AutoplaySeedFileKey, "", "seed file for reproducible autoplay series")
	fs.String(AutoplaySQLiteKey, "", "sqlite file recording every autoplay game")
	fs.String(CPUProfileKey, "", "write cpu profile to file")
	fs.String(MemProfileKey, "", "write memory profile to file")
	fs.String(DataPathKey, ".", "directory for game logs, seed files and other artifacts")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c.args = fs.Args()
	// only explicitly passed flags override the other sources
	fs.Visit(func(f *flag.Flag) {
		c.vp.Set(f.Name, f.Value.String())
	})

	c.vp.SetEnvPrefix("morris")
	c.vp.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.vp.AutomaticEnv()

	c.vp.SetConfigName("config")
	c.vp.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		c.vp.AddConfigPath(filepath.Join(home, ".morris"))
	}
	c.vp.AddConfigPath(".")
	if err := c.vp.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	return nil
}

// Args returns the non-flag arguments left over after Load parsed the
// command line.
func (c *Config) Args() []string {
	return c.args
}

func (c *Config) GetBool(key string) bool {
	return c.vp.GetBool(key)
}

func (c *Config) GetString(key string) string {
	return c.vp.GetString(key)
}

func (c *Config) GetInt(key string) int {
	return c.vp.GetInt(key)
}

func (c *Config) GetFloat64(key string) float64 {
	return c.vp.GetFloat64(key)
}

// Set overrides a setting for the rest of the process (the shell's `set`
// command lands here).
func (c *Config) Set(key string, value any) {
	c.vp.Set(key, value)
}

// AllSettings returns every resolved setting.
func (c *Config) AllSettings() map[string]any {
	return c.vp.AllSettings()
}

// Write persists the current settings to $HOME/.morris/config.yaml.
func (c *Config) Write() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	dir := filepath.Join(home, ".morris")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return c.vp.WriteConfigAs(filepath.Join(dir, "config.yaml"))
}
