package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// TimingConfig holds the cycle costs the pipeline charges per advance and
// the ceiling on the cache size metric.
type TimingConfig struct {
	// BaseCycles is the cost of an advance with no stall. Default: 1 cycle.
	BaseCycles uint64 `json:"base_cycles"`

	// MispredictPenalty is the surcharge added to BaseCycles on an advance
	// that resolves a mispredicted branch. Default: 1 cycle.
	MispredictPenalty uint64 `json:"mispredict_penalty"`

	// CacheMissDelay is the cost of an advance whose MEM stage misses the
	// cache, and the length of an instruction-fetch miss stall.
	// Default: 10 cycles.
	CacheMissDelay uint64 `json:"cache_miss_delay"`

	// MaxCacheSize is the largest accepted cache size metric
	// (assoc * sets * (32*blocksize + 33 - index - offset)).
	// Zero disables the check. Default: 10240.
	MaxCacheSize uint64 `json:"max_cache_size"`
}

// DefaultTimingConfig returns a TimingConfig with the classic values.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		BaseCycles:        1,
		MispredictPenalty: 1,
		CacheMissDelay:    10,
		MaxCacheSize:      10240,
	}
}

// LoadConfig loads a TimingConfig from a JSON file. Fields missing from the
// file keep their default values.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that the cycle costs are usable.
func (c *TimingConfig) Validate() error {
	if c.BaseCycles == 0 {
		return fmt.Errorf("base_cycles must be > 0")
	}
	if c.CacheMissDelay == 0 {
		return fmt.Errorf("cache_miss_delay must be > 0")
	}
	return nil
}

// Clone returns a deep copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	return &TimingConfig{
		BaseCycles:        c.BaseCycles,
		MispredictPenalty: c.MispredictPenalty,
		CacheMissDelay:    c.CacheMissDelay,
		MaxCacheSize:      c.MaxCacheSize,
	}
}
