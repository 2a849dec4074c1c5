package lockbench

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

var ErrInvalidConfig = errors.New("invalid workload config")

// Config describes a read/write workload against a shared lock.
type Config struct {
	// Readers and Writers are the numbers of concurrent clients of each kind.
	Readers int `yaml:"readers"`
	Writers int `yaml:"writers"`
	// OpsPerClient is the number of sequential operations every client issues.
	OpsPerClient  int           `yaml:"ops_per_client"`
	ReadDuration  time.Duration `yaml:"read_duration"`
	WriteDuration time.Duration `yaml:"write_duration"`
}

func DefaultConfig() Config {
	return Config{
		Readers:       8,
		Writers:       2,
		OpsPerClient:  100,
		ReadDuration:  time.Millisecond,
		WriteDuration: time.Millisecond,
	}
}

// LoadConfig reads a YAML workload file. Fields missing from the file keep
// their default values; an empty file yields DefaultConfig.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) == 0 {
		return config, nil
	}

	if err := yaml.UnmarshalStrict(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return config, config.Validate()
}

func (c Config) Validate() error {
	switch {
	case c.Readers < 0 || c.Writers < 0:
		return fmt.Errorf("%w: negative client count", ErrInvalidConfig)
	case c.Readers+c.Writers == 0:
		return fmt.Errorf("%w: no clients", ErrInvalidConfig)
	case c.OpsPerClient <= 0:
		return fmt.Errorf("%w: ops_per_client must be positive", ErrInvalidConfig)
	case c.ReadDuration < 0 || c.WriteDuration < 0:
		return fmt.Errorf("%w: negative duration", ErrInvalidConfig)
	}
	return nil
}
