// Package config provides configuration management for the research
// workspace.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the fully resolved workspace configuration: environment
// variables supply paths and secrets, research-kit.yaml supplies gates,
// thresholds and persona wiring and wins when both are present.
type Config struct {
	WorkspaceDir string // root of the persistent state layout
	LogLevel     string
	LogPretty    bool
	LLMProvider  string
	LLMAPIKey    string
	S3Bucket     string // optional off-site validation replication target
	S3Region     string

	Gates GatesConfig
}

// GatesConfig holds the tunable thresholds and persona roster loaded from
// research-kit.yaml. Values here take precedence over any environment
// defaults, mirroring the teacher's settings-database-overrides-env
// precedence for credentials.
type GatesConfig struct {
	Ingestion  IngestionGates  `yaml:"ingestion"`
	Validation ValidationGates `yaml:"validation"`
	Personas   PersonaConfig   `yaml:"personas"`
	Checks     ChecksConfig    `yaml:"checks"`
}

// IngestionGates controls the quality filter (C3) thresholds.
type IngestionGates struct {
	SpecificityThreshold int `yaml:"specificity_threshold"`
	TrustThreshold       int `yaml:"trust_threshold"`
}

// ValidationGates controls the statistical validator (C9) gates.
type ValidationGates struct {
	MinSharpe          float64 `yaml:"min_sharpe"`
	MinConsistency      float64 `yaml:"min_consistency"`
	MaxDrawdown          float64 `yaml:"max_drawdown"`
	MinTrades            int     `yaml:"min_trades"`
	MaxAdjustedPValue    float64 `yaml:"max_adjusted_p_value"`
	CorrectionMethod     string  `yaml:"correction_method"` // fdr_bh, bonferroni
	BootstrapSamples     int     `yaml:"bootstrap_samples"`
	MaxFailedWindows     int     `yaml:"max_failed_windows"` // windows beyond this count abort the run instead of partial validation
}

// PersonaConfig controls the persona orchestrator (C10) roster and quorum.
type PersonaConfig struct {
	Roster     []string `yaml:"roster"`
	Quorum     int      `yaml:"quorum"`
	TimeoutSec int      `yaml:"timeout_seconds"`
	RateLimit  float64  `yaml:"rate_limit_per_second"`
}

// ChecksConfig controls which independent verification checks (C5) run.
type ChecksConfig struct {
	Enabled []string `yaml:"enabled"`
}

func defaultGates() GatesConfig {
	return GatesConfig{
		Ingestion: IngestionGates{
			SpecificityThreshold: 4,
			TrustThreshold:       50,
		},
		Validation: ValidationGates{
			MinSharpe:         0.5,
			MinConsistency:    0.6,
			MaxDrawdown:       0.35,
			MinTrades:         30,
			MaxAdjustedPValue: 0.05,
			CorrectionMethod:  "fdr_bh",
			BootstrapSamples:  1000,
			MaxFailedWindows:  2,
		},
		Personas: PersonaConfig{
			Roster:     []string{"momentum_trader", "risk_manager", "quant_researcher", "contrarian", "mad_genius"},
			Quorum:     3,
			TimeoutSec: 120,
			RateLimit:  1.0,
		},
		Checks: ChecksConfig{
			Enabled: []string{
				"look_ahead_bias",
				"survivorship_bias",
				"position_sizing_sanity",
				"data_availability",
				"parameter_sanity",
				"hardcoded_values",
			},
		},
	}
}

// Load reads workspace configuration from the environment and, if present,
// from {WorkspaceDir}/research-kit.yaml.
func Load() (*Config, error) {
	_ = godotenv.Load()

	workspaceDir := getEnv("RESEARCH_KIT_WORKSPACE", "")
	if workspaceDir == "" {
		workspaceDir = "./workspace"
	}
	absWorkspaceDir, err := filepath.Abs(workspaceDir)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace dir: %w", err)
	}
	if err := os.MkdirAll(absWorkspaceDir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace dir: %w", err)
	}

	cfg := &Config{
		WorkspaceDir: absWorkspaceDir,
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogPretty:    getEnvAsBool("LOG_PRETTY", false),
		LLMProvider:  getEnv("LLM_PROVIDER", ""),
		LLMAPIKey:    getEnv("LLM_API_KEY", ""),
		S3Bucket:     getEnv("RESEARCH_KIT_S3_BUCKET", ""),
		S3Region:     getEnv("RESEARCH_KIT_S3_REGION", "us-east-1"),
		Gates:        defaultGates(),
	}

	gatesPath := filepath.Join(absWorkspaceDir, "research-kit.yaml")
	if err := cfg.loadGates(gatesPath); err != nil {
		return nil, fmt.Errorf("load gates config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadGates merges research-kit.yaml over the defaults. Missing file is not
// an error: the workspace runs on defaults until a gates file is written.
func (c *Config) loadGates(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	gates := defaultGates()
	if err := yaml.Unmarshal(data, &gates); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	c.Gates = gates
	return nil
}

// Validate checks required configuration invariants.
func (c *Config) Validate() error {
	if c.Gates.Personas.Quorum > len(c.Gates.Personas.Roster) {
		return fmt.Errorf("persona quorum %d exceeds roster size %d", c.Gates.Personas.Quorum, len(c.Gates.Personas.Roster))
	}
	if c.Gates.Validation.CorrectionMethod != "fdr_bh" && c.Gates.Validation.CorrectionMethod != "bonferroni" {
		return fmt.Errorf("unknown correction method %q", c.Gates.Validation.CorrectionMethod)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
