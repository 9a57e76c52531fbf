package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for phptdd.
type Config struct {
	Index   IndexConfig   `yaml:"index"`
	Search  SearchConfig  `yaml:"search"`
	Runner  RunnerConfig  `yaml:"runner"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
}

// IndexConfig holds indexing configuration.
type IndexConfig struct {
	Includes         []string `yaml:"includes"`
	Excludes         []string `yaml:"excludes"`
	RespectGitignore bool     `yaml:"respect_gitignore"`
	Workers          int      `yaml:"workers"`
}

// SearchConfig holds entity search configuration.
type SearchConfig struct {
	TopK            int     `yaml:"top_k"`
	K1              float64 `yaml:"k1"`
	B               float64 `yaml:"b"`
	PathBoostWeight float64 `yaml:"path_boost_weight"`
}

// RunnerConfig holds unit test runner configuration.
type RunnerConfig struct {
	TestSubdirectory  string         `yaml:"test_subdirectory"`
	EnableAutoRun     bool           `yaml:"enable_auto_run"`
	DebounceMs        int            `yaml:"debounce_ms"` // Minimum time between auto-runs
	PollMs            int            `yaml:"poll_ms"`
	TestClassTemplate string         `yaml:"test_class_template"` // Empty uses the built-in template
	UseBaseTestCase   bool           `yaml:"use_base_test_case"`
	Commands          CommandsConfig `yaml:"commands"`
}

// CommandsConfig holds the command templates used to run tests. Templates may
// reference __FUNCTION__, __TEST_SUBDIRECTORY__, __TEST_DIRECTORY__ and
// __WORKSPACE_DIRECTORY__.
type CommandsConfig struct {
	Directory          string `yaml:"directory"`
	RunUnitTest        string `yaml:"run_unit_test"`
	RunAllUnitTests    string `yaml:"run_all_unit_tests"`
	RunCodeCoverage    string `yaml:"run_code_coverage"`
	CodeCoverageReport string `yaml:"code_coverage_report"`
}

// CacheConfig holds token cache configuration.
type CacheConfig struct {
	Size int `yaml:"size"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, notice, warning, error or quiet
	File  string `yaml:"file"`
}

const defaultPollMs = 500

// PollInterval is how often queued auto-runs are retried. Non-positive
// values fall back to the default.
func (c RunnerConfig) PollInterval() time.Duration {
	ms := c.PollMs
	if ms <= 0 {
		ms = defaultPollMs
	}
	return time.Duration(ms) * time.Millisecond
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Includes:         []string{"**/*.tokens.json"},
			Excludes:         []string{"**/vendor/**", "**/node_modules/**", "**/.git/**", "**/.phptdd/**"},
			RespectGitignore: true,
			Workers:          4,
		},
		Search: SearchConfig{
			TopK:            20,
			K1:              1.2,
			B:               0.75,
			PathBoostWeight: 0.3,
		},
		Runner: RunnerConfig{
			TestSubdirectory: "tests",
			EnableAutoRun:    true,
			DebounceMs:       2000,
			PollMs:           defaultPollMs,
			Commands: CommandsConfig{
				Directory:          "__WORKSPACE_DIRECTORY__",
				RunUnitTest:        "vendor/bin/phpunit --filter '/::__FUNCTION__$/' __TEST_DIRECTORY__",
				RunAllUnitTests:    "vendor/bin/phpunit __TEST_DIRECTORY__",
				RunCodeCoverage:    "vendor/bin/phpunit --coverage-html __TEST_DIRECTORY__/coverage __TEST_DIRECTORY__",
				CodeCoverageReport: "__TEST_DIRECTORY__/coverage/index.html",
			},
		},
		Cache: CacheConfig{
			Size: 64,
		},
		Logging: LoggingConfig{
			Level: "warning",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for phptdd.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "phptdd.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, DataDir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DataDir is the per-workspace directory holding the index.
const DataDir = ".phptdd"

// IndexDBPath returns the path to the index database.
func IndexDBPath(dir string) string {
	return filepath.Join(dir, DataDir, "index.db")
}

// EnsureDataDir ensures the .phptdd directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, DataDir), 0755)
}

// Verbosity maps the configured level onto commonlog's verbosity scale.
func (l LoggingConfig) Verbosity() int {
	switch l.Level {
	case "quiet":
		return -4
	case "error":
		return -2
	case "warning":
		return -1
	case "notice":
		return 0
	case "info":
		return 1
	case "debug":
		return 2
	default:
		return -1
	}
}
