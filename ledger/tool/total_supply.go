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

	"github.com/holiman/uint256"
	"github.com/panoptisDev/zkledger/common"
	"github.com/panoptisDev/zkledger/common/amount"
	"github.com/panoptisDev/zkledger/common/diagnostics"
	"github.com/urfave/cli/v2"
)

var TotalSupplyCmd = cli.Command{
	Action: diagnostics.AddPerformanceDiagnosticsAction(withInstance(doTotalSupplyCalc)),
	Name:   "total-supply",
	Usage:  "calculate the sum of all balances in the ledger",
}

// totalSupply sums up all balances of a map. The sum may exceed the value
// domain of a single balance, thus the overflow is reported separately.
type totalSupply struct {
	accounts uint64
	total    uint256.Int
	overflow bool
}

func (s *totalSupply) visit(_ common.Key, value amount.Amount) error {
	v := value.Uint256()
	if _, overflow := s.total.AddOverflow(&s.total, &v); overflow {
		s.overflow = true
	}
	s.accounts++
	return nil
}

func doTotalSupplyCalc(context *cli.Context, inst *instance) error {
	root, err := inst.checkSynced(context)
	if err != nil {
		return err
	}
	var supply totalSupply
	if err := inst.leaves.Visit(supply.visit); err != nil {
		return fmt.Errorf("failed visiting content: %w", err)
	}
	out := context.App.Writer
	fmt.Fprintf(out, "Root: %v\n", root)
	fmt.Fprintf(out, "Accounts count: %d\n", supply.accounts)
	if supply.overflow {
		fmt.Fprintf(out, "Total supply: exceeds 2^256\n")
		return nil
	}
	fmt.Fprintf(out, "Total supply: %s\n", supply.total.Dec())
	return nil
}
