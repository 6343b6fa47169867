package models

// BenchConfig represents the parsed benchmark.yaml configuration.
type BenchConfig struct {
	Model           string      `yaml:"model" json:"model"`
	OutputDir       string      `yaml:"output_dir" json:"output_dir"`
	Concurrency     int         `yaml:"concurrency" json:"concurrency"`
	GracePeriodSec  float64     `yaml:"grace_period_sec" json:"grace_period_sec"`
	LogLevel        string      `yaml:"log_level,omitempty" json:"log_level,omitempty"`
	ControllersFile string      `yaml:"controllers_file,omitempty" json:"controllers_file,omitempty"`
	Controllers     []string    `yaml:"controllers,omitempty" json:"controllers,omitempty"`
	API             APIConfig   `yaml:"api,omitempty" json:"api,omitempty"`
	Retry           RetryConfig `yaml:"retry,omitempty" json:"retry,omitempty"`
	Workloads       []Workload  `yaml:"workloads,omitempty" json:"workloads,omitempty"`
}

// APIConfig points the LLM client at its backend.
type APIConfig struct {
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	KeyEnv  string `yaml:"key_env,omitempty" json:"key_env,omitempty"`
}

// RetryConfig is the serializable form of the retry policy.
type RetryConfig struct {
	MaxAttempts    int     `yaml:"max_attempts" json:"max_attempts"`
	InitialDelayMs int     `yaml:"initial_delay_ms" json:"initial_delay_ms"`
	MaxDelayMs     int     `yaml:"max_delay_ms" json:"max_delay_ms"`
	Multiplier     float64 `yaml:"multiplier" json:"multiplier"`
}
