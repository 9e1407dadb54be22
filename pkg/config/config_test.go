package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Check defaults
	if cfg.Env != "development" {
		t.Errorf("Expected Env to be development, got %s", cfg.Env)
	}

	if cfg.Scenario.Count != 500 {
		t.Errorf("Expected SCENARIO_COUNT default 500, got %d", cfg.Scenario.Count)
	}

	if cfg.Scenario.Seed != 42 {
		t.Errorf("Expected SCENARIO_SEED default 42, got %d", cfg.Scenario.Seed)
	}

	if cfg.Curve.Beta0 != 0.045 || cfg.Curve.Tau != 2.0 {
		t.Errorf("Unexpected fallback curve: %+v", cfg.Curve)
	}

	if cfg.Simulation.Steps != 8 || cfg.Simulation.StepYears != 0.25 {
		t.Errorf("Unexpected simulation defaults: %+v", cfg.Simulation)
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("SCENARIO_COUNT", "250")
	t.Setenv("SCENARIO_SEED", "7")
	t.Setenv("CONFIDENCE_LEVEL", "0.99")
	t.Setenv("CURVE_BETA0", "0.05")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Env != "production" {
		t.Errorf("Expected Env to be production, got %s", cfg.Env)
	}

	if cfg.Scenario.Count != 250 {
		t.Errorf("Expected SCENARIO_COUNT to be 250, got %d", cfg.Scenario.Count)
	}

	if cfg.Scenario.Seed != 7 {
		t.Errorf("Expected SCENARIO_SEED to be 7, got %d", cfg.Scenario.Seed)
	}

	if cfg.Scenario.Confidence != 0.99 {
		t.Errorf("Expected CONFIDENCE_LEVEL to be 0.99, got %v", cfg.Scenario.Confidence)
	}

	if cfg.Curve.Beta0 != 0.05 {
		t.Errorf("Expected CURVE_BETA0 to be 0.05, got %v", cfg.Curve.Beta0)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("Expected LogLevel to be debug, got %s", cfg.LogLevel)
	}
}

func TestValidateInvalidEnv(t *testing.T) {
	t.Setenv("ENV", "invalid")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when ENV is invalid, got nil")
	}
}

func TestValidateConfidence(t *testing.T) {
	for _, value := range []string{"0", "1", "1.5"} {
		t.Run(value, func(t *testing.T) {
			t.Setenv("CONFIDENCE_LEVEL", value)

			if _, err := Load(); err == nil {
				t.Errorf("Expected error for CONFIDENCE_LEVEL=%s, got nil", value)
			}
		})
	}
}

func TestValidateCurveTau(t *testing.T) {
	t.Setenv("CURVE_TAU", "-1")

	if _, err := Load(); err == nil {
		t.Error("Expected error when CURVE_TAU is negative, got nil")
	}
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("TEST_INT", "100")

	value := getEnvAsInt("TEST_INT", 50)
	if value != 100 {
		t.Errorf("Expected value to be 100, got %d", value)
	}

	t.Setenv("TEST_INT", "not-a-number")
	if value := getEnvAsInt("TEST_INT", 50); value != 50 {
		t.Errorf("Expected fallback 50 for malformed input, got %d", value)
	}
}

func TestGetEnvAsFloat(t *testing.T) {
	t.Setenv("TEST_FLOAT", "0.0125")

	value := getEnvAsFloat("TEST_FLOAT", 1)
	if value != 0.0125 {
		t.Errorf("Expected value to be 0.0125, got %v", value)
	}
}

func TestGetEnvAsInt64(t *testing.T) {
	t.Setenv("TEST_INT64", "9007199254740993")

	value := getEnvAsInt64("TEST_INT64", 0)
	if value != 9007199254740993 {
		t.Errorf("Expected value to be 9007199254740993, got %d", value)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("SIM_LOCAL_SCENARIOS=77\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("SIM_LOCAL_SCENARIOS") })

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}
	if cfg.Simulation.LocalScenarios != 77 {
		t.Errorf("Expected SIM_LOCAL_SCENARIOS from file, got %d", cfg.Simulation.LocalScenarios)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("Expected error for missing env file")
	}
}
