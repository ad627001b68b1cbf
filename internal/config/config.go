package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/skglass/internal/grid"
	"github.com/san-kum/skglass/internal/rng"
	"github.com/san-kum/skglass/internal/spinglass"
	"github.com/san-kum/skglass/internal/storage"
)

const (
	DefaultSpins   = 264
	DefaultTDim    = 10000
	DefaultConfNum = 1000
	DefaultThermal = 10000
)

var (
	DefaultMu = grid.Axis{Min: -0.002, Max: 0.01, Step: 0.0005}
	DefaultSD = grid.Axis{Min: 0, Max: 0.15, Step: 0.0075}
)

// Seed modes.
const (
	SeedFixed  = "fixed"  // every worker starts from Seed
	SeedTime   = "time"   // per-process seed from clock and pid
	SeedWorker = "worker" // per-worker streams derived from Seed
)

type Config struct {
	Spins   int       `yaml:"spins"`
	TDim    int       `yaml:"tdim"`
	ConfNum int       `yaml:"conf_num"`
	Thermal int       `yaml:"thermal"`
	Mu      grid.Axis `yaml:"mu"`
	SD      grid.Axis `yaml:"sd"`

	Seed     uint64 `yaml:"seed"`
	SeedMode string `yaml:"seed_mode"`
	Workers  int    `yaml:"workers"`

	LogLevel    string         `yaml:"log_level"`
	Store       storage.Config `yaml:"store"`
	MetricsAddr string         `yaml:"metrics_addr"`
}

func DefaultConfig() *Config {
	return &Config{
		Spins:    DefaultSpins,
		TDim:     DefaultTDim,
		ConfNum:  DefaultConfNum,
		Thermal:  DefaultThermal,
		Mu:       DefaultMu,
		SD:       DefaultSD,
		Seed:     rng.DefaultSeed,
		SeedMode: SeedFixed,
		Workers:  1,
		LogLevel: "info",
		Store:    storage.Config{Driver: storage.DriverFS, Dir: "."},
	}
}

// Load reads a YAML file over the defaults; keys absent from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Params().Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Mu.Validate("mu"); err != nil {
		errs = append(errs, err)
	}
	if err := c.SD.Validate("sd"); err != nil {
		errs = append(errs, err)
	}
	switch c.SeedMode {
	case SeedFixed, SeedTime, SeedWorker:
	default:
		errs = append(errs, fmt.Errorf("unknown seed_mode %q (want %s, %s or %s)", c.SeedMode, SeedFixed, SeedTime, SeedWorker))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if err := c.Store.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Warnings lists settings that validate but are probably unintended.
func (c *Config) Warnings() []string {
	var w []string
	if c.Workers > 1 && c.SeedMode == SeedFixed {
		w = append(w, fmt.Sprintf("seed_mode %s with %d workers: every worker replays the same random stream (use seed_mode %s)",
			SeedFixed, c.Workers, SeedWorker))
	}
	return w
}

func (c *Config) Params() spinglass.Params {
	return spinglass.Params{N: c.Spins, TDim: c.TDim, ConfNum: c.ConfNum, Thermal: c.Thermal}
}

func (c *Config) Grid() *grid.Grid {
	return grid.New(c.Mu, c.SD)
}

// Sources returns the random stream factory for scan workers. The time
// seed, if any, is drawn once per call.
func (c *Config) Sources() func(worker int) rng.Source {
	switch c.SeedMode {
	case SeedTime:
		base := rng.TimeSeed()
		return func(worker int) rng.Source { return rng.NewMT(rng.DeriveSeed(base, uint64(worker))) }
	case SeedWorker:
		return func(worker int) rng.Source { return rng.NewMT(rng.DeriveSeed(c.Seed, uint64(worker))) }
	default:
		seed := c.Seed
		return func(int) rng.Source { return rng.NewMT(seed) }
	}
}
