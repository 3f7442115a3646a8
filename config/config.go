package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"HTAPDB/logging"
	"HTAPDB/storage_engine/page"
)

// Config is everything needed to open a storage engine.
type Config struct {
	DataDir          string         `json:"data_dir"`
	FileName         string         `json:"file_name"`
	PoolCapacity     int            `json:"pool_capacity"`     // resident pages
	MaxKeysPerNode   int            `json:"max_keys_per_node"` // B+Tree fan-out, <= page.MaxKeysPerNode
	ScanWorkers      int            `json:"scan_workers"`      // 0 = GOMAXPROCS
	ReadAheadPages   int            `json:"read_ahead_pages"`  // 0 = scan default
	BlockCacheBytes  int64          `json:"block_cache_bytes"` // 0 disables the raw block cache
	FlushEveryWrite  bool           `json:"flush_every_write"`
	CheckpointMillis int64          `json:"checkpoint_ms"` // background flush period, 0 disables
	SnowflakeNode    int64          `json:"snowflake_node"`
	Log              logging.Config `json:"log"`
}

const (
	DefaultPoolCapacity    = 1024
	DefaultReadAheadPages  = 8
	DefaultBlockCacheBytes = 16 << 20
	MinKeysPerNode         = 3
)

func Default() Config {
	return Config{
		DataDir:         "databases",
		FileName:        "htap.db",
		PoolCapacity:    DefaultPoolCapacity,
		MaxKeysPerNode:  page.MaxKeysPerNode,
		ScanWorkers:     0,
		ReadAheadPages:  DefaultReadAheadPages,
		BlockCacheBytes: DefaultBlockCacheBytes,
		Log:             logging.Config{Level: logging.LevelInfo, Format: "console"},
	}
}

// Load reads a JSON config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.FileName == "" {
		return fmt.Errorf("config: file_name is required")
	}
	if c.PoolCapacity < 16 {
		return fmt.Errorf("config: pool_capacity must be at least 16, got %d", c.PoolCapacity)
	}
	if c.MaxKeysPerNode < MinKeysPerNode || c.MaxKeysPerNode > page.MaxKeysPerNode {
		return fmt.Errorf("config: max_keys_per_node must be in [%d, %d], got %d",
			MinKeysPerNode, page.MaxKeysPerNode, c.MaxKeysPerNode)
	}
	if c.ScanWorkers < 0 {
		return fmt.Errorf("config: scan_workers must be >= 0")
	}
	if c.ReadAheadPages < 0 {
		return fmt.Errorf("config: read_ahead_pages must be >= 0")
	}
	if c.BlockCacheBytes < 0 {
		return fmt.Errorf("config: block_cache_bytes must be >= 0")
	}
	if c.CheckpointMillis < 0 {
		return fmt.Errorf("config: checkpoint_ms must be >= 0")
	}
	if c.SnowflakeNode < 0 || c.SnowflakeNode > 1023 {
		return fmt.Errorf("config: snowflake_node must be in [0, 1023]")
	}
	return nil
}

// Path is the database file location.
func (c Config) Path() string {
	return filepath.Join(c.DataDir, c.FileName)
}

// RegistryPath is where the leaf registry is persisted next to the database file.
func (c Config) RegistryPath() string {
	return c.Path() + ".leaves"
}

// SchemaPath is where the catalog keeps the table schema.
func (c Config) SchemaPath() string {
	return c.Path() + ".schema.json"
}

// CheckpointPath is where flush points are recorded.
func (c Config) CheckpointPath() string {
	return c.Path() + ".checkpoint.json"
}

// Workers resolves the scan worker default.
func (c Config) Workers() int {
	if c.ScanWorkers > 0 {
		return c.ScanWorkers
	}
	return runtime.GOMAXPROCS(0)
}
