package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"klondike/internal/domain"

	"github.com/caarlos0/env/v11"
)

// GameConfig holds the tunables of a Klondike match. Values come from a JSON
// file and are then overridden by KLONDIKE_* environment variables.
type GameConfig struct {
	DrawMode          string `json:"draw_mode" env:"KLONDIKE_DRAW_MODE"`
	InitialGeneration int64  `json:"initial_generation" env:"KLONDIKE_INITIAL_GENERATION"`
	// AutoReveal flips a tableau's newly exposed card after a move.
	AutoReveal bool   `json:"auto_reveal" env:"KLONDIKE_AUTO_REVEAL"`
	TickRate   int    `json:"tick_rate" env:"KLONDIKE_TICK_RATE"`
	LogLevel   string `json:"log_level" env:"KLONDIKE_LOG_LEVEL"`
	LogJSON    bool   `json:"log_json" env:"KLONDIKE_LOG_JSON"`
}

// Default returns the configuration used when no file is loaded.
func Default() *GameConfig {
	return &GameConfig{
		DrawMode:   domain.ModeClassic.String(),
		AutoReveal: true,
		TickRate:   5,
		LogLevel:   "info",
	}
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path. When the
// file is missing or invalid the defaults are used, and when an environment
// override is invalid the file values are kept. Either way the returned
// error reports what was skipped.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		cfg, loadErr = load(path)
	})
	return loadErr
}

// GetGameConfig returns the global game configuration, or the defaults when
// none was loaded.
func GetGameConfig() *GameConfig {
	if cfg == nil {
		return Default()
	}
	return cfg
}

func load(path string) (*GameConfig, error) {
	c := Default()
	var errs []error

	data, err := os.ReadFile(path)
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to read game config: %w", err))
	} else if fromFile, err := decode(data); err != nil {
		errs = append(errs, err)
	} else {
		c = fromFile
	}

	withEnv, err := applyProcessEnv(c)
	if err != nil {
		errs = append(errs, err)
	} else {
		c = withEnv
	}
	return c, errors.Join(errs...)
}

// Parse decodes data over the defaults, applies the process environment and
// validates the result.
func Parse(data []byte) (*GameConfig, error) {
	c, err := decode(data)
	if err != nil {
		return nil, err
	}
	return applyProcessEnv(c)
}

func decode(data []byte) (*GameConfig, error) {
	c := Default()
	if len(data) > 0 {
		if err := json.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("failed to unmarshal game config: %w", err)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func applyProcessEnv(c *GameConfig) (*GameConfig, error) {
	out := *c
	if err := env.Parse(&out); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// WithEnv returns a copy of c overridden by vars, which use the same
// KLONDIKE_* keys as the process environment. Nakama passes its runtime env
// map here.
func (c *GameConfig) WithEnv(vars map[string]string) (*GameConfig, error) {
	out := *c
	if len(vars) == 0 {
		return &out, nil
	}
	if err := env.ParseWithOptions(&out, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse runtime env: %w", err)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Validate checks the draw mode, the initial generation and the tick rate.
func (c *GameConfig) Validate() error {
	if c.InitialGeneration < 0 {
		return fmt.Errorf("invalid game config: initial_generation %d is negative", c.InitialGeneration)
	}
	if _, err := domain.ParseMode(c.DrawMode); err != nil {
		return fmt.Errorf("invalid game config: %w", err)
	}
	if c.TickRate < 1 || c.TickRate > 60 {
		return fmt.Errorf("invalid game config: tick_rate %d out of range [1, 60]", c.TickRate)
	}
	return nil
}

// Mode returns the configured draw mode. Validate has already rejected
// unknown values, so a bad mode falls back to classic.
func (c *GameConfig) Mode() domain.Mode {
	m, _ := domain.ParseMode(c.DrawMode)
	return m
}

// Generation returns the clock new games are dealt under.
func (c *GameConfig) Generation() domain.Generation {
	return domain.Generation(c.InitialGeneration)
}
