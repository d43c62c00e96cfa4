// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/panoptisDev/zkledger/common"
	"github.com/panoptisDev/zkledger/common/amount"
	"github.com/panoptisDev/zkledger/config"
	"github.com/panoptisDev/zkledger/database/smt"
	"github.com/panoptisDev/zkledger/database/smt/hash"
	"github.com/panoptisDev/zkledger/ledger"
	"github.com/panoptisDev/zkledger/ledger/slot"
	"github.com/panoptisDev/zkledger/proof/groth16"
	"github.com/panoptisDev/zkledger/proof/reexec"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// errLocalStoreBehind is returned when the ledger accepted a deposit the
// local map could not follow.
var errLocalStoreBehind = errors.New("ledger advanced but the local map is behind, re-sync or re-import the local store")

const (
	leavesDirectory = "leaves"
	slotDatabase    = "roots.db"
)

// loadConfig reads the configuration file given by the config flag, if any,
// and applies the overrides of explicitly set flags.
func loadConfig(context *cli.Context) (config.Config, error) {
	res := config.Default()
	if path := context.String(configFlag.Name); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		res = loaded
	}
	if context.IsSet(dataDirFlag.Name) {
		res.Storage.DataDir = context.String(dataDirFlag.Name)
	}
	if context.IsSet(schemeFlag.Name) {
		res.Ledger.Scheme = context.String(schemeFlag.Name)
	}
	if context.IsSet(depthFlag.Name) {
		res.Ledger.Depth = context.Int(depthFlag.Name)
	}
	if context.IsSet(proofFlag.Name) {
		res.Proof.Backend = context.String(proofFlag.Name)
	}
	if context.IsSet(keysDirFlag.Name) {
		res.Proof.KeysDir = context.String(keysDirFlag.Name)
	}
	if context.IsSet(logLevelFlag.Name) {
		res.Logging.Level = context.String(logLevelFlag.Name)
	}
	return res, res.Validate()
}

// instance bundles the components of a ledger hosted in a data directory:
// the ledger itself, backed by an SQLite slot, and the operator's copy of
// the commitment map, backed by LevelDB.
type instance struct {
	config config.Config
	log    *zap.Logger
	leaves *smt.Map
	slot   *slot.SQLite
	ledger *ledger.Ledger
}

func openInstance(context *cli.Context) (*instance, error) {
	cfg, err := loadConfig(context)
	if err != nil {
		return nil, err
	}
	log, err := cfg.Logging.Build(context.Bool(debugFlag.Name))
	if err != nil {
		return nil, err
	}
	executor, err := ledger.NewExecutor(cfg.Map())
	if err != nil {
		return nil, err
	}
	options := []ledger.Option{ledger.WithLogger(log)}
	switch cfg.Proof.Backend {
	case config.ProofReexec:
		options = append(options, ledger.WithOracle(reexec.New(executor)))
	case config.ProofGroth16:
		keys, err := groth16.LoadKeys(cfg.Proof.KeysDir, cfg.Ledger.Depth)
		if err != nil {
			return nil, fmt.Errorf("failed to load proving keys, run setup-keys first: %w", err)
		}
		oracle, err := groth16.New(executor, keys)
		if err != nil {
			return nil, err
		}
		options = append(options, ledger.WithOracle(oracle))
	}

	if err := os.MkdirAll(cfg.Storage.DataDir, 0o700); err != nil {
		return nil, err
	}
	store, err := smt.OpenLevelDB(filepath.Join(cfg.Storage.DataDir, leavesDirectory))
	if err != nil {
		return nil, err
	}
	leaves, err := smt.Open(store, cfg.Map())
	if err != nil {
		return nil, errors.Join(err, store.Close())
	}
	roots, err := slot.OpenSQLite(filepath.Join(cfg.Storage.DataDir, slotDatabase))
	if err != nil {
		return nil, errors.Join(err, leaves.Close())
	}
	l, err := ledger.New(executor, roots, options...)
	if err != nil {
		return nil, errors.Join(err, leaves.Close(), roots.Close())
	}
	return &instance{
		config: cfg,
		log:    log,
		leaves: leaves,
		slot:   roots,
		ledger: l,
	}, nil
}

// checkSynced verifies that the local map is summarized by the ledger's root
// and returns this root.
func (i *instance) checkSynced(context *cli.Context) (common.Hash, error) {
	root, initialized, err := i.ledger.Root(context.Context)
	if err != nil {
		return common.Hash{}, err
	}
	if !initialized {
		return common.Hash{}, ledger.ErrUninitialized
	}
	if local := i.leaves.Root(); local != root {
		return common.Hash{}, fmt.Errorf("local map with root %v is out of sync with ledger root %v", local, root)
	}
	return root, nil
}

// applyDeposit records the value of a key after a deposit the ledger
// accepted with the given root.
func (i *instance) applyDeposit(key common.Key, value amount.Amount, root common.Hash) error {
	i.leaves.Set(key, value)
	if err := i.leaves.Flush(); err != nil {
		return fmt.Errorf("%w: ledger root is %v: %w", errLocalStoreBehind, root, err)
	}
	if local := i.leaves.Root(); local != root {
		return fmt.Errorf("%w: local root %v, ledger root %v", errLocalStoreBehind, local, root)
	}
	return nil
}

func (i *instance) Close() error {
	_ = i.log.Sync()
	return errors.Join(i.leaves.Close(), i.ledger.Close())
}

// withInstance wraps an action requiring an opened instance.
func withInstance(action func(*cli.Context, *instance) error) cli.ActionFunc {
	return func(context *cli.Context) (err error) {
		inst, err := openInstance(context)
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, inst.Close()) }()
		return action(context, inst)
	}
}

// parseKey accepts a 32-byte map key or a 20-byte address, which is mapped
// to its account key using the hash scheme of the ledger.
func parseKey(hasher hash.Hasher, s string) (common.Key, error) {
	if len(strings.TrimPrefix(s, "0x")) == 2*len(common.Address{}) {
		address, err := common.ParseAddress(s)
		if err != nil {
			return common.Key{}, err
		}
		return hasher.AccountKey(address), nil
	}
	return common.ParseKey(s)
}
