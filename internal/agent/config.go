package agent

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration lets time.Duration values appear in yaml as "5s" or "2m30s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	// ServerURL is the ingestion endpoint base URL. Empty routes shipped
	// lines to the console instead.
	ServerURL string `yaml:"server_url"`
	APIKey    string `yaml:"api_key"`

	BatchSize        int      `yaml:"batch_size"`
	AutoFlushTimeout Duration `yaml:"auto_flush_timeout"`
	MinLevel         string   `yaml:"min_level"`

	LogRoots        []string `yaml:"log_roots"`
	RescanInterval  Duration `yaml:"rescan_interval"`
	Workers         int      `yaml:"workers"`
	FileQueueSize   int      `yaml:"file_queue_size"`
	FileIdleTimeout Duration `yaml:"file_idle_timeout"`

	NodeName string `yaml:"node_name"`
}

func DefaultConfig() *Config {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	return &Config{
		ServerURL:        "http://localhost:5341",
		BatchSize:        100,
		AutoFlushTimeout: Duration(5 * time.Second),
		MinLevel:         "INFO",
		LogRoots:         []string{"/var/log"},
		RescanInterval:   Duration(30 * time.Second),
		Workers:          4,
		FileQueueSize:    50,
		FileIdleTimeout:  Duration(5 * time.Minute),
		NodeName:         hostname,
	}
}

// LoadConfig layers a yaml file (when present) and environment variables
// over the defaults. An empty path skips the file entirely.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			log.Printf("Config file %s not found, using defaults", path)
		} else if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		} else if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) applyEnv() {
	c.ServerURL = getEnv("SEQ_URL", c.ServerURL)
	c.APIKey = getEnv("SEQ_API_KEY", c.APIKey)
	c.BatchSize = getEnvAsInt("BATCH_SIZE", c.BatchSize)
	c.AutoFlushTimeout = Duration(getEnvAsDuration("AUTO_FLUSH_TIMEOUT", c.AutoFlushTimeout.Std()))
	c.MinLevel = getEnv("MIN_LEVEL", c.MinLevel)
	if roots := os.Getenv("LOG_ROOTS"); roots != "" {
		c.LogRoots = strings.Split(roots, ",")
	}
	c.RescanInterval = Duration(getEnvAsDuration("RESCAN_INTERVAL", c.RescanInterval.Std()))
	c.Workers = getEnvAsInt("WORKERS", c.Workers)
	c.FileQueueSize = getEnvAsInt("FILE_QUEUE_SIZE", c.FileQueueSize)
	c.FileIdleTimeout = Duration(getEnvAsDuration("FILE_IDLE_TIMEOUT", c.FileIdleTimeout.Std()))
	c.NodeName = getEnv("NODE_NAME", c.NodeName)
}

func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.FileQueueSize <= 0 {
		return fmt.Errorf("file_queue_size must be positive, got %d", c.FileQueueSize)
	}
	if len(c.LogRoots) == 0 {
		return fmt.Errorf("log_roots must name at least one directory")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if result, err := time.ParseDuration(value); err == nil {
			return result
		}
	}
	return defaultValue
}
