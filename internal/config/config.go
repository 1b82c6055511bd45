package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Duration accepts "30s"/"5m" style values in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	Analysis struct {
		RelevanceThreshold float64 `yaml:"relevance_threshold"`
		MinExtentSize      int     `yaml:"min_extent_size"`
	} `yaml:"analysis"`
	Lattice struct {
		ToolPath string   `yaml:"tool_path"`
		JavaPath string   `yaml:"java_path"`
		Timeout  Duration `yaml:"timeout"`
	} `yaml:"lattice"`
	AI struct {
		Provider    string   `yaml:"provider"`
		Model       string   `yaml:"model"`
		APIKey      string   `yaml:"api_key"`
		BaseURL     string   `yaml:"base_url"`
		CallTimeout Duration `yaml:"call_timeout"`
		Retries     int      `yaml:"retries"`
	} `yaml:"ai"`
	Output struct {
		Dir          string `yaml:"dir"`
		DatabasePath string `yaml:"database_path"`
	} `yaml:"output"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.Analysis.RelevanceThreshold = 45.0
	cfg.Analysis.MinExtentSize = 2
	cfg.Lattice.JavaPath = "java"
	cfg.Lattice.Timeout = Duration(5 * time.Minute)
	cfg.AI.Provider = "gemini"
	cfg.AI.Model = "gemini-2.0-flash"
	cfg.AI.CallTimeout = Duration(20 * time.Second)
	cfg.AI.Retries = 1
	cfg.Output.Dir = "output"
	cfg.Output.DatabasePath = "runs.db"
	return &cfg
}

// LoadConfig reads the YAML config at path on top of the defaults.
// A .env file and environment variables override file values.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		file, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, err
		}
	}

	if apiKey := os.Getenv("ABSTRACTOR_API_KEY"); apiKey != "" {
		cfg.AI.APIKey = apiKey
	}
	if provider := os.Getenv("ABSTRACTOR_AI_PROVIDER"); provider != "" {
		cfg.AI.Provider = provider
	}

	return cfg, nil
}
