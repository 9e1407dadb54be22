package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: every environment variable is read here and nowhere else
type Config struct {
	Env string // development, staging, production

	// Inputs
	MandateFile  string // YAML mandate (empty = built-in defaults)
	UniverseFile string // YAML bond universe (empty = built-in universe)
	ReportDir    string

	// Scenario engine
	Scenario ScenarioConfig

	// Multi-period simulation
	Simulation SimulationConfig

	// Fallback base curve (Nelson-Siegel)
	Curve CurveConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// ScenarioConfig controls stochastic scenario generation
type ScenarioConfig struct {
	Count      int
	Volatility float64
	Seed       int64
	Confidence float64
}

// SimulationConfig controls the rebalancing loop
type SimulationConfig struct {
	Steps          int
	StepYears      float64
	PathVolatility float64
	LocalScenarios int
	LocalVol       float64
}

// CurveConfig holds Nelson-Siegel parameters for the fallback base curve
type CurveConfig struct {
	Beta0 float64
	Beta1 float64
	Beta2 float64
	Tau   float64
}

// Load reads configuration from environment variables
// ⭐ SSOT: only this function calls os.Getenv()
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		MandateFile:  getEnv("MANDATE_FILE", ""),
		UniverseFile: getEnv("UNIVERSE_FILE", ""),
		ReportDir:    getEnv("REPORT_DIR", "final_reports"),

		Scenario: ScenarioConfig{
			Count:      getEnvAsInt("SCENARIO_COUNT", 500),
			Volatility: getEnvAsFloat("SCENARIO_VOLATILITY", 0.008),
			Seed:       getEnvAsInt64("SCENARIO_SEED", 42),
			Confidence: getEnvAsFloat("CONFIDENCE_LEVEL", 0.95),
		},

		Simulation: SimulationConfig{
			Steps:          getEnvAsInt("SIM_STEPS", 8),
			StepYears:      getEnvAsFloat("SIM_STEP_YEARS", 0.25),
			PathVolatility: getEnvAsFloat("SIM_PATH_VOLATILITY", 0.005),
			LocalScenarios: getEnvAsInt("SIM_LOCAL_SCENARIOS", 100),
			LocalVol:       getEnvAsFloat("SIM_LOCAL_VOLATILITY", 0.01),
		},

		Curve: CurveConfig{
			Beta0: getEnvAsFloat("CURVE_BETA0", 0.045),
			Beta1: getEnvAsFloat("CURVE_BETA1", -0.02),
			Beta2: getEnvAsFloat("CURVE_BETA2", 0.01),
			Tau:   getEnvAsFloat("CURVE_TAU", 2.0),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadFile loads an explicit env file before Load.
// Variables already present in the environment keep precedence.
func LoadFile(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", path, err)
		}
	}
	return Load()
}

// validate checks that configured values are usable
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}
	if c.Scenario.Count <= 0 {
		return fmt.Errorf("SCENARIO_COUNT must be > 0")
	}
	if c.Scenario.Volatility < 0 {
		return fmt.Errorf("SCENARIO_VOLATILITY must be >= 0")
	}
	if c.Scenario.Confidence <= 0 || c.Scenario.Confidence >= 1 {
		return fmt.Errorf("CONFIDENCE_LEVEL must be between 0 and 1")
	}
	if c.Simulation.Steps < 0 {
		return fmt.Errorf("SIM_STEPS must be >= 0")
	}
	if c.Simulation.StepYears <= 0 {
		return fmt.Errorf("SIM_STEP_YEARS must be > 0")
	}
	if c.Simulation.LocalScenarios <= 0 {
		return fmt.Errorf("SIM_LOCAL_SCENARIOS must be > 0")
	}
	if c.Curve.Tau <= 0 {
		return fmt.Errorf("CURVE_TAU must be > 0")
	}
	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}
