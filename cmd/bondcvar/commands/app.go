package commands

import (
	"fmt"
	"os"

	"github.com/wonny/bondcvar/internal/bond"
	"github.com/wonny/bondcvar/internal/constraints"
	"github.com/wonny/bondcvar/internal/curve"
	"github.com/wonny/bondcvar/internal/optimizer"
	"github.com/wonny/bondcvar/internal/risk"
	"github.com/wonny/bondcvar/internal/simulation"
	"github.com/wonny/bondcvar/internal/universe"
	"github.com/wonny/bondcvar/pkg/config"
	"github.com/wonny/bondcvar/pkg/logger"
)

// app holds everything one command invocation needs
type app struct {
	cfg         *config.Config
	log         *logger.Logger
	mandate     constraints.Mandate
	mandateHash string
	universe    bond.Universe
	base        curve.Curve
	engine      *risk.Engine
}

// newApp loads config, inputs and the base curve.
// Order: config → logger → universe → mandate → curve → engine
func newApp() (*app, error) {
	// 1. Load config
	if rootCmd.PersistentFlags().Changed("env") {
		if err := os.Setenv("ENV", env); err != nil {
			return nil, fmt.Errorf("set env: %w", err)
		}
	}
	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if mandateFile != "" {
		cfg.MandateFile = mandateFile
	}
	if universeFile != "" {
		cfg.UniverseFile = universeFile
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Universe
	u := universe.Default()
	if cfg.UniverseFile != "" {
		u, _, err = universe.Load(cfg.UniverseFile)
		if err != nil {
			return nil, fmt.Errorf("load universe: %w", err)
		}
	}

	// 4. Mandate
	mandate := constraints.DefaultMandate()
	if cfg.MandateFile != "" {
		m, _, err := constraints.LoadMandate(cfg.MandateFile)
		if err != nil {
			return nil, fmt.Errorf("load mandate: %w", err)
		}
		mandate = *m
	}
	for _, w := range mandate.Warn(u.Len()) {
		log.WithField("code", w.Code).Warn(w.Message)
	}
	hash, err := constraints.Hash(mandate)
	if err != nil {
		return nil, fmt.Errorf("hash mandate: %w", err)
	}

	// 5. Base curve
	base, err := curve.New(curve.Params{
		Beta0: cfg.Curve.Beta0,
		Beta1: cfg.Curve.Beta1,
		Beta2: cfg.Curve.Beta2,
		Tau:   cfg.Curve.Tau,
	})
	if err != nil {
		return nil, fmt.Errorf("base curve: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"bonds":   u.Len(),
		"mandate": hash[:12],
		"curve":   base.String(),
	}).Debug("Inputs loaded")

	return &app{
		cfg:         cfg,
		log:         log,
		mandate:     mandate,
		mandateHash: hash,
		universe:    u,
		base:        base,
		engine:      risk.NewEngine(nil),
	}, nil
}

// setMandate swaps the mandate and its fingerprint
func (a *app) setMandate(m constraints.Mandate) error {
	hash, err := constraints.Hash(m)
	if err != nil {
		return fmt.Errorf("hash mandate: %w", err)
	}
	a.mandate = m
	a.mandateHash = hash
	return nil
}

func (a *app) generator() *curve.Generator {
	return curve.NewGenerator(a.base, a.cfg.Scenario.Seed)
}

func (a *app) scenarios() []curve.Curve {
	return a.generator().Generate(a.cfg.Scenario.Count, a.cfg.Scenario.Volatility)
}

func (a *app) optimizer() *optimizer.Optimizer {
	return optimizer.New(a.engine, a.mandate, a.log)
}

func (a *app) monteCarloConfig() risk.MonteCarloConfig {
	levels := []float64{a.cfg.Scenario.Confidence}
	if a.cfg.Scenario.Confidence != 0.99 {
		levels = append(levels, 0.99)
	}
	return risk.MonteCarloConfig{
		NumScenarios: a.cfg.Scenario.Count,
		Volatility:   a.cfg.Scenario.Volatility,
		Seed:         a.cfg.Scenario.Seed,
		Confidence:   levels,
	}
}

func (a *app) riskLimits() risk.RiskLimits {
	limits := risk.DefaultRiskLimits()
	limits.Confidence = a.cfg.Scenario.Confidence
	return limits
}

func (a *app) simulationConfig() simulation.Config {
	return simulation.Config{
		Steps:           a.cfg.Simulation.Steps,
		StepYears:       a.cfg.Simulation.StepYears,
		PathVolatility:  a.cfg.Simulation.PathVolatility,
		LocalScenarios:  a.cfg.Simulation.LocalScenarios,
		LocalVolatility: a.cfg.Simulation.LocalVol,
		Seed:            a.cfg.Scenario.Seed,
		Confidence:      a.cfg.Scenario.Confidence,
	}
}
