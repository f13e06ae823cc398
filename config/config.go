package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/cube2222/udtf/device"
)

var CacheDir = func() string {
	dir, err := homedir.Dir()
	if err != nil {
		return ".udtf"
	}
	return filepath.Join(dir, ".udtf")
}()

type Config struct {
	Execution ExecutionConfig `yaml:"execution"`
	Tables    []TableConfig   `yaml:"tables"`
}

type ExecutionConfig struct {
	Device     string `yaml:"device"`
	BlockSizeX uint   `yaml:"blockSize"`
	GridSizeX  uint   `yaml:"gridSize"`
	// StrictGPUOutputRowCount makes a kernel that never sets the output row count fail,
	// instead of falling back to the allocated row count.
	StrictGPUOutputRowCount bool `yaml:"strictGpuOutputRowCount"`
}

// BlockSize is the number of threads per block along X.
func (c ExecutionConfig) BlockSize() uint {
	if c.BlockSizeX == 0 {
		return device.DefaultBlockSize
	}
	return c.BlockSizeX
}

// GridSize is the number of blocks along X.
func (c ExecutionConfig) GridSize() uint {
	if c.GridSizeX == 0 {
		return uint(runtime.NumCPU() * device.DefaultGridMultiplier)
	}
	return c.GridSizeX
}

type TableConfig struct {
	Name    string                 `yaml:"name"`
	Format  string                 `yaml:"format"`
	Path    string                 `yaml:"path"`
	Columns []ColumnConfig         `yaml:"columns"`
	Options map[string]interface{} `yaml:"options"`
}

type ColumnConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

func (config *Config) GetTableConfig(name string) (*TableConfig, error) {
	for i := range config.Tables {
		if config.Tables[i].Name == name {
			return &config.Tables[i], nil
		}
	}

	return nil, ErrNotFound
}

// Read reads the configuration from the default location, returning an empty one if there is none.
func Read() (*Config, error) {
	path := filepath.Join(CacheDir, "config.yml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{}, nil
	}
	return ReadConfig(path)
}

func ReadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't open file")
	}
	defer f.Close()

	var config Config

	err = yaml.NewDecoder(f).Decode(&config)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't decode yaml configuration")
	}

	if _, err := device.ParseType(config.Execution.Device); err != nil {
		return nil, errors.Wrap(err, "invalid execution configuration")
	}
	if config.Execution.BlockSizeX > device.MaxThreadsPerBlock {
		return nil, errors.Errorf("block size %d exceeds the maximum of %d", config.Execution.BlockSizeX, device.MaxThreadsPerBlock)
	}

	return &config, nil
}
