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
	"time"

	"github.com/panoptisDev/zkledger/common/diagnostics"
	"github.com/panoptisDev/zkledger/database/smt/hash"
	"github.com/panoptisDev/zkledger/proof/groth16"
	"github.com/urfave/cli/v2"
)

var SetupKeysCmd = cli.Command{
	Action: diagnostics.AddPerformanceDiagnosticsAction(doSetupKeys),
	Name:   "setup-keys",
	Usage:  "run a local groth16 setup and store the keys in the keys directory",
}

func doSetupKeys(context *cli.Context) error {
	cfg, err := loadConfig(context)
	if err != nil {
		return err
	}
	if cfg.Ledger.Scheme != hash.MiMCName {
		return fmt.Errorf("%w, configured scheme is %q", groth16.ErrUnsupportedScheme, cfg.Ledger.Scheme)
	}
	start := time.Now()
	keys, err := groth16.Setup(cfg.Ledger.Depth)
	if err != nil {
		return err
	}
	if err := keys.Save(cfg.Proof.KeysDir); err != nil {
		return err
	}
	fmt.Fprintf(context.App.Writer, "depth %d, %d constraints, keys written to %s in %v\n",
		keys.Depth(), keys.Constraints(), cfg.Proof.KeysDir, time.Since(start).Round(time.Millisecond))
	return nil
}
