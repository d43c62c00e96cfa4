// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package proof hosts the proof systems that can be attached to a ledger to
// attest its transitions. Sub-packages implement ledger.Oracle:
//
//   - groth16: succinct zero-knowledge proofs using gnark over BN254; the
//     circuit recomputes MiMC roots and thus requires the mimc hash scheme.
//   - reexec: a reference attestation carrying the private inputs, verified
//     by re-evaluating the transition; usable with any hash scheme.
package proof
