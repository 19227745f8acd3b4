package ghost

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Params is one immutable set of engine tunables. A [Config] hands out
// Params snapshots; every scheduling decision reads exactly one snapshot,
// so a runtime change takes effect on the next decision and never
// retroactively alters in-flight work.
type Params struct {
	// Enabled turns the whole engine on or off. When false, triggers
	// are ignored; a suggestion that is already visible stays visible.
	Enabled bool `yaml:"enabled"`

	// DebounceMs is the quiet period after a trigger before a fetch is
	// attempted.
	DebounceMs int `yaml:"debounce_ms"`

	// MinContextChars is the minimum trimmed length of the context text
	// required before the fetcher is invoked at all.
	MinContextChars int `yaml:"min_context_chars"`

	// ContextWindowChars caps how much text preceding the cursor is
	// sent to the fetcher.
	ContextWindowChars int `yaml:"context_window_chars"`

	// MaxTokens is the generation budget passed to the fetcher.
	MaxTokens int `yaml:"max_tokens"`

	// Temperature is the sampling temperature passed to the fetcher.
	Temperature float64 `yaml:"temperature"`

	// PlanCount is how many short plan items to request alongside the
	// completion. Valid values are 1, 2, and 3.
	PlanCount int `yaml:"plan_count"`

	// TriggerPunctuation is the set of characters that classify a
	// change as a punctuation trigger when typed before the cursor.
	TriggerPunctuation string `yaml:"trigger_punctuation"`

	// SafeMode asks the generation side to keep completions free of
	// mature content.
	SafeMode bool `yaml:"safe_mode"`

	// FetchTimeoutMs bounds a single fetch call so a hung generation
	// service cannot hold the flight lock indefinitely. Zero disables
	// the timeout.
	FetchTimeoutMs int `yaml:"fetch_timeout_ms"`
}

// DefaultParams returns the tunables the engine ships with.
func DefaultParams() Params {
	return Params{
		Enabled:            true,
		DebounceMs:         700,
		MinContextChars:    15,
		ContextWindowChars: 1000,
		MaxTokens:          128,
		Temperature:        0.7,
		PlanCount:          2,
		TriggerPunctuation: ".,!?;:",
		SafeMode:           false,
		FetchTimeoutMs:     30_000,
	}
}

// Validate checks that the tunables are internally consistent.
func (p Params) Validate() error {
	if p.DebounceMs < 0 {
		return fmt.Errorf("ghost: debounce_ms must be >= 0, got %d", p.DebounceMs)
	}
	if p.MinContextChars < 0 {
		return fmt.Errorf("ghost: min_context_chars must be >= 0, got %d", p.MinContextChars)
	}
	if p.ContextWindowChars <= 0 {
		return fmt.Errorf("ghost: context_window_chars must be > 0, got %d", p.ContextWindowChars)
	}
	if p.ContextWindowChars < p.MinContextChars {
		return fmt.Errorf(
			"ghost: context_window_chars (%d) must not be smaller than min_context_chars (%d)",
			p.ContextWindowChars, p.MinContextChars,
		)
	}
	if p.MaxTokens <= 0 {
		return fmt.Errorf("ghost: max_tokens must be > 0, got %d", p.MaxTokens)
	}
	if p.Temperature < 0 || p.Temperature > 2 {
		return fmt.Errorf("ghost: temperature must be in [0, 2], got %g", p.Temperature)
	}
	if p.PlanCount < 1 || p.PlanCount > 3 {
		return fmt.Errorf("ghost: plan_count must be 1, 2, or 3, got %d", p.PlanCount)
	}
	if p.FetchTimeoutMs < 0 {
		return fmt.Errorf("ghost: fetch_timeout_ms must be >= 0, got %d", p.FetchTimeoutMs)
	}
	return nil
}

// Debounce returns DebounceMs as a duration.
func (p Params) Debounce() time.Duration {
	return time.Duration(p.DebounceMs) * time.Millisecond
}

// FetchTimeout returns FetchTimeoutMs as a duration. Zero means no timeout.
func (p Params) FetchTimeout() time.Duration {
	return time.Duration(p.FetchTimeoutMs) * time.Millisecond
}

// LoadParams reads Params from a YAML file. Fields absent from the file
// keep their [DefaultParams] values. The result is validated.
func LoadParams(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Params{}, fmt.Errorf("ghost: failed to read config: %w", err)
	}

	p := DefaultParams()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Params{}, fmt.Errorf("ghost: failed to parse config: %w", err)
	}

	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// Config is the engine's shared, mutable configuration. All reads go
// through [Config.Snapshot]; all writes go through the explicit setters.
// Safe for concurrent use.
type Config struct {
	mu sync.RWMutex
	p  Params
}

// NewConfig creates a Config holding the given Params.
// Returns an error if the Params fail validation.
func NewConfig(p Params) (*Config, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Config{p: p}, nil
}

// NewDefaultConfig creates a Config holding [DefaultParams].
func NewDefaultConfig() *Config {
	return &Config{p: DefaultParams()}
}

// Snapshot returns a copy of the current tunables.
func (c *Config) Snapshot() Params {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.p
}

// SetEnabled turns the engine on or off for subsequent scheduling
// decisions.
func (c *Config) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.p.Enabled = enabled
}

// SetPlanCount sets how many plan items to request. Values outside
// 1..3 are clamped.
func (c *Config) SetPlanCount(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.p.PlanCount = min(max(n, 1), 3)
}

// SetSafeMode toggles safe mode for subsequent fetches.
func (c *Config) SetSafeMode(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.p.SafeMode = on
}

// SetDebounce sets the debounce interval for subsequent triggers.
// Negative values are clamped to zero.
func (c *Config) SetDebounce(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.p.DebounceMs = max(int(d/time.Millisecond), 0)
}

// SetTemperature sets the sampling temperature for subsequent fetches.
func (c *Config) SetTemperature(t float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.p.Temperature = t
}

// SetMaxTokens sets the generation budget for subsequent fetches.
func (c *Config) SetMaxTokens(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.p.MaxTokens = n
}
