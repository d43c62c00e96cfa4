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
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/panoptisDev/zkledger/common"
	"github.com/panoptisDev/zkledger/common/amount"
	"github.com/panoptisDev/zkledger/common/diagnostics"
	"github.com/panoptisDev/zkledger/database/smt"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var ExportCmd = cli.Command{
	Action:    diagnostics.AddPerformanceDiagnosticsAction(withInstance(doExport)),
	Name:      "export",
	Usage:     "write the content of the local map into a compressed stream",
	ArgsUsage: "<target file>",
}

var ImportCmd = cli.Command{
	Action:    diagnostics.AddPerformanceDiagnosticsAction(withInstance(doImport)),
	Name:      "import",
	Usage:     "populate an empty ledger from a stream produced by export",
	ArgsUsage: "<source file>",
}

func doExport(context *cli.Context, inst *instance) (err error) {
	if context.Args().Len() != 1 {
		return fmt.Errorf("missing target file parameter")
	}
	if _, err := inst.checkSynced(context); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Context, os.Interrupt)
	defer stop()

	path := context.Args().Get(0)
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, file.Close()) }()
	out := bufio.NewWriter(file)

	start := time.Now()
	root, err := inst.leaves.Export(ctx, out)
	if err != nil {
		return err
	}
	if err := out.Flush(); err != nil {
		return err
	}
	inst.log.Info("export completed",
		zap.String("file", path),
		zap.Int("leaves", inst.leaves.Len()),
		zap.Stringer("root", root),
		zap.Duration("duration", time.Since(start)),
	)
	fmt.Fprintf(context.App.Writer, "%v\n", root)
	return nil
}

func doImport(context *cli.Context, inst *instance) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("missing source file parameter")
	}
	if _, initialized, err := inst.ledger.Root(context.Context); err != nil {
		return err
	} else if initialized || inst.leaves.Len() != 0 {
		return fmt.Errorf("can only import into an empty ledger")
	}
	ctx, stop := signal.NotifyContext(context.Context, os.Interrupt)
	defer stop()

	path := context.Args().Get(0)
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	start := time.Now()
	imported, err := smt.Import(ctx, bufio.NewReader(file))
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", path, err)
	}
	if imported.Config() != inst.leaves.Config() {
		return fmt.Errorf("%w: stream holds %+v, ledger uses %+v", smt.ErrConfigMismatch, imported.Config(), inst.leaves.Config())
	}
	err = imported.Visit(func(key common.Key, value amount.Amount) error {
		inst.leaves.Set(key, value)
		return nil
	})
	if err != nil {
		return err
	}
	if err := inst.leaves.Flush(); err != nil {
		return err
	}
	root := inst.leaves.Root()
	if err := inst.slot.Initialize(ctx, root); err != nil {
		return err
	}
	inst.log.Info("import completed",
		zap.String("file", path),
		zap.Int("leaves", inst.leaves.Len()),
		zap.Stringer("root", root),
		zap.Duration("duration", time.Since(start)),
	)
	fmt.Fprintf(context.App.Writer, "%v\n", root)
	return nil
}
