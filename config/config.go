// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package config defines the file-based configuration of a ledger instance.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/panoptisDev/zkledger/database/smt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Supported proof backends.
const (
	ProofNone    = "none"
	ProofReexec  = "reexec"
	ProofGroth16 = "groth16"
)

// Config is the top level configuration of a ledger instance.
type Config struct {
	Ledger  Ledger  `yaml:"Ledger"`
	Storage Storage `yaml:"Storage"`
	Proof   Proof   `yaml:"Proof"`
	Logging Logging `yaml:"Logging"`
}

// Ledger configures the commitment map the ledger operates on.
type Ledger struct {
	Scheme string `yaml:"Scheme"`
	Depth  int    `yaml:"Depth"`
}

// Storage configures where the ledger keeps its data.
type Storage struct {
	// DataDir hosts the map's leaf store and the root slot database.
	DataDir string `yaml:"DataDir"`
}

// Proof configures the oracle attesting transitions.
type Proof struct {
	Backend string `yaml:"Backend"`
	// KeysDir holds the Groth16 proving and verifying keys.
	KeysDir string `yaml:"KeysDir"`
}

// Logging configures the ledger's logger.
type Logging struct {
	Level    string `yaml:"Level"`
	Encoding string `yaml:"Encoding"`
}

// Default returns the configuration used for settings not present in a file.
func Default() Config {
	return Config{
		Ledger: Ledger{
			Scheme: smt.DefaultConfig.Scheme,
			Depth:  smt.DefaultConfig.Depth,
		},
		Storage: Storage{DataDir: "./data"},
		Proof:   Proof{Backend: ProofNone, KeysDir: "./keys"},
		Logging: Logging{Level: "info", Encoding: "console"},
	}
}

// Load reads the configuration from the given YAML file. Missing settings
// are taken from Default. The result is validated.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}
	res := Default()
	if err := yaml.Unmarshal(data, &res); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := res.Validate(); err != nil {
		return Config{}, err
	}
	return res, nil
}

// Map returns the configuration of the ledger's commitment map.
func (c Config) Map() smt.Config {
	return smt.Config{Scheme: c.Ledger.Scheme, Depth: c.Ledger.Depth}
}

// Validate checks the consistency of the configuration.
func (c Config) Validate() error {
	var errs []error
	if err := c.Map().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Storage.DataDir == "" {
		errs = append(errs, errors.New("no data directory configured"))
	}
	if !slices.Contains([]string{ProofNone, ProofReexec, ProofGroth16}, c.Proof.Backend) {
		errs = append(errs, fmt.Errorf("unknown proof backend %q", c.Proof.Backend))
	}
	if c.Proof.Backend == ProofGroth16 && c.Proof.KeysDir == "" {
		errs = append(errs, errors.New("groth16 proofs require a keys directory"))
	}
	if _, err := c.Logging.level(); err != nil {
		errs = append(errs, err)
	}
	if c.Logging.Encoding != "console" && c.Logging.Encoding != "json" {
		errs = append(errs, fmt.Errorf("unknown log encoding %q", c.Logging.Encoding))
	}
	return errors.Join(errs...)
}

func (l Logging) level() (zapcore.Level, error) {
	if l.Level == "" {
		return zapcore.InfoLevel, nil
	}
	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return level, fmt.Errorf("log setting: %w", err)
	}
	return level, nil
}

// Build creates a logger writing to stderr. If debug is set, the configured
// level is overridden by the debug level.
func (l Logging) Build(debug bool) (*zap.Logger, error) {
	level, err := l.level()
	if err != nil {
		return nil, err
	}
	if debug {
		level = zapcore.DebugLevel
	}

	cc := zap.NewProductionConfig()
	cc.DisableCaller = true
	cc.DisableStacktrace = true
	cc.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	cc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cc.Encoding = l.Encoding
	if cc.Encoding == "" {
		cc.Encoding = "console"
	}
	cc.Level = zap.NewAtomicLevelAt(level)
	cc.Sampling = nil
	return cc.Build()
}
