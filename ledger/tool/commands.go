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
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/panoptisDev/zkledger/common/diagnostics"
	"github.com/panoptisDev/zkledger/database/smt/hash"
	"github.com/panoptisDev/zkledger/database/smt/witness"
	"github.com/panoptisDev/zkledger/ledger"
	"github.com/urfave/cli/v2"
)

var InitCmd = cli.Command{
	Action: withInstance(doInit),
	Name:   "init",
	Usage:  "initialize the ledger with the root of the empty map",
}

var RootCmd = cli.Command{
	Action: withInstance(doRoot),
	Name:   "root",
	Usage:  "print the current root of the ledger",
}

var KeyCmd = cli.Command{
	Action:    doKey,
	Name:      "key",
	Usage:     "print the map key of an account address",
	ArgsUsage: "<address>",
}

var BalanceCmd = cli.Command{
	Action:    withInstance(doBalance),
	Name:      "balance",
	Usage:     "print the balance held by a key or address",
	ArgsUsage: "<key|address>",
}

var binaryFlag = cli.BoolFlag{
	Name:  "binary",
	Usage: "print the compact binary encoding instead of JSON",
}

var WitnessCmd = cli.Command{
	Action:    withInstance(doWitness),
	Name:      "witness",
	Usage:     "print the witness of a key or address against the current root",
	ArgsUsage: "<key|address>",
	Flags:     []cli.Flag{&binaryFlag},
}

var (
	witnessFileFlag = cli.StringFlag{
		Name:  "witness",
		Usage: "JSON file holding the witness to submit, derived from the local map if empty",
	}
	claimedFlag = cli.StringFlag{
		Name:  "claimed",
		Usage: "claimed current balance, taken from the local map if empty",
	}
)

var DepositCmd = cli.Command{
	Action:    diagnostics.AddPerformanceDiagnosticsAction(withInstance(doDeposit)),
	Name:      "deposit",
	Usage:     "credit an amount to a key or address",
	ArgsUsage: "<key|address> <amount>",
	Flags:     []cli.Flag{&witnessFileFlag, &claimedFlag},
}

var HistoryCmd = cli.Command{
	Action: withInstance(doHistory),
	Name:   "history",
	Usage:  "list all roots the ledger went through",
}

func doInit(context *cli.Context, inst *instance) error {
	root, err := inst.ledger.Init(context.Context)
	if err != nil {
		return err
	}
	if local := inst.leaves.Root(); local != root {
		return fmt.Errorf("local map with root %v does not match initial root %v", local, root)
	}
	if err := inst.leaves.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(context.App.Writer, "%v\n", root)
	return nil
}

func doRoot(context *cli.Context, inst *instance) error {
	root, initialized, err := inst.ledger.Root(context.Context)
	if err != nil {
		return err
	}
	if !initialized {
		return ledger.ErrUninitialized
	}
	fmt.Fprintf(context.App.Writer, "%v\n", root)
	return nil
}

func doKey(context *cli.Context) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("missing address parameter")
	}
	cfg, err := loadConfig(context)
	if err != nil {
		return err
	}
	hasher, err := hash.ByName(cfg.Ledger.Scheme)
	if err != nil {
		return err
	}
	key, err := parseKey(hasher, context.Args().Get(0))
	if err != nil {
		return err
	}
	fmt.Fprintf(context.App.Writer, "%v\n", key)
	return nil
}

func doBalance(context *cli.Context, inst *instance) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("missing key parameter")
	}
	key, err := parseKey(inst.leaves.Hasher(), context.Args().Get(0))
	if err != nil {
		return err
	}
	fmt.Fprintf(context.App.Writer, "%v\n", inst.leaves.Get(key))
	return nil
}

func doWitness(context *cli.Context, inst *instance) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("missing key parameter")
	}
	key, err := parseKey(inst.leaves.Hasher(), context.Args().Get(0))
	if err != nil {
		return err
	}
	if _, err := inst.checkSynced(context); err != nil {
		return err
	}
	w := inst.leaves.Witness(key)
	if context.Bool(binaryFlag.Name) {
		data, err := witness.Encode(inst.leaves.Hasher(), w)
		if err != nil {
			return err
		}
		fmt.Fprintln(context.App.Writer, hexutil.Encode(data))
		return nil
	}
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(context.App.Writer, "%s\n", data)
	return nil
}

func doDeposit(context *cli.Context, inst *instance) error {
	if context.Args().Len() != 2 {
		return fmt.Errorf("expected key and amount parameters")
	}
	key, err := parseKey(inst.leaves.Hasher(), context.Args().Get(0))
	if err != nil {
		return err
	}
	value, err := ledger.ParseAmount(context.Args().Get(1))
	if err != nil {
		return err
	}
	if _, err := inst.checkSynced(context); err != nil {
		return err
	}

	claimed := inst.leaves.Get(key)
	if context.IsSet(claimedFlag.Name) {
		if claimed, err = ledger.ParseAmount(context.String(claimedFlag.Name)); err != nil {
			return err
		}
	}
	proof := inst.leaves.Witness(key)
	if path := context.String(witnessFileFlag.Name); path != "" {
		if proof, err = readWitness(path); err != nil {
			return err
		}
	}

	start := time.Now()
	root, err := inst.ledger.Deposit(context.Context, key, value, claimed, proof)
	if err != nil {
		return err
	}
	updated, _ := claimed.Add(value)
	if err := inst.applyDeposit(key, updated, root); err != nil {
		return err
	}
	fmt.Fprintf(context.App.Writer, "%v\n", root)
	fmt.Fprintf(context.App.ErrWriter, "deposit of %v to %v settled in %v\n", value, key, time.Since(start).Round(time.Millisecond))
	return nil
}

func readWitness(path string) (witness.Witness, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return witness.Witness{}, err
	}
	var res witness.Witness
	if err := json.Unmarshal(data, &res); err != nil {
		return witness.Witness{}, fmt.Errorf("invalid witness file %s: %w", path, err)
	}
	return res, nil
}

func doHistory(context *cli.Context, inst *instance) error {
	entries, err := inst.slot.History(context.Context)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		fmt.Fprintf(context.App.Writer, "%d\t%s\t%v\n", entry.Seq, entry.Time.UTC().Format(time.RFC3339), entry.Root)
	}
	return nil
}
