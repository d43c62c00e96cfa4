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
	"fmt"
	"os"

	"github.com/panoptisDev/zkledger/common/diagnostics"
	"github.com/urfave/cli/v2"
)

// Run using
//  go run ./ledger/tool <command> <flags>

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "YAML configuration file, defaults are used if empty",
	}
	dataDirFlag = cli.StringFlag{
		Name:  "datadir",
		Usage: "directory hosting the ledger, overrides the configuration",
	}
	schemeFlag = cli.StringFlag{
		Name:  "scheme",
		Usage: "hash scheme of the commitment map (mimc, keccak256, pedersen), overrides the configuration",
	}
	depthFlag = cli.IntFlag{
		Name:  "depth",
		Usage: "depth of the commitment map, overrides the configuration",
	}
	proofFlag = cli.StringFlag{
		Name:  "proof",
		Usage: "proof backend attesting deposits (none, reexec, groth16), overrides the configuration",
	}
	keysDirFlag = cli.StringFlag{
		Name:  "keysdir",
		Usage: "directory of the groth16 proving and verifying keys, overrides the configuration",
	}
	logLevelFlag = cli.StringFlag{
		Name:  "log-level",
		Usage: "log level, overrides the configuration",
	}
	debugFlag = cli.BoolFlag{
		Name:  "debug",
		Usage: "enable debug logging",
	}
)

var commands = []*cli.Command{
	&InitCmd,
	&RootCmd,
	&KeyCmd,
	&BalanceCmd,
	&WitnessCmd,
	&DepositCmd,
	&ExportCmd,
	&ImportCmd,
	&TotalSupplyCmd,
	&HistoryCmd,
	&SetupKeysCmd,
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "tool",
		Usage:     "authenticated balance ledger toolbox",
		Copyright: "(c) 2025 Sonic Operations Ltd",
		Flags: append([]cli.Flag{
			&configFlag,
			&dataDirFlag,
			&schemeFlag,
			&depthFlag,
			&proofFlag,
			&keysDirFlag,
			&logLevelFlag,
			&debugFlag,
		}, diagnostics.Flags()...),
		Commands: newCommands(),
	}
}

// newCommands copies the command definitions, since running an app
// modifies its commands.
func newCommands() []*cli.Command {
	res := make([]*cli.Command, 0, len(commands))
	for _, cmd := range commands {
		copied := *cmd
		res = append(res, &copied)
	}
	return res
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
