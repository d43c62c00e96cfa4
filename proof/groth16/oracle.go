// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package groth16 attests ledger transitions with Groth16 proofs over BN254.
// Proofs reveal nothing beyond the public inputs of a transition: the old and
// new root and the deposited amount. The circuit recomputes MiMC digests and
// can thus only serve ledgers using the mimc hash scheme.
package groth16

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/panoptisDev/zkledger/common"
	"github.com/panoptisDev/zkledger/common/amount"
	"github.com/panoptisDev/zkledger/database/smt/hash"
	"github.com/panoptisDev/zkledger/ledger"
)

var (
	// ErrUnsupportedScheme is returned when creating an oracle for a ledger
	// not using the mimc hash scheme.
	ErrUnsupportedScheme = errors.New("groth16 proofs require the mimc hash scheme")
	// ErrUnprovable is returned for transitions the circuit can not express.
	ErrUnprovable = errors.New("transition can not be proven")
)

// Keys bundles the compiled circuit and the key pair produced by the setup
// for a fixed tree depth.
type Keys struct {
	depth int
	ccs   constraint.ConstraintSystem
	pk    groth16.ProvingKey
	vk    groth16.VerifyingKey
}

// Setup compiles the deposit circuit for the given depth and runs a
// single-party trusted setup. The resulting keys are suitable for testing and
// private deployments only.
func Setup(depth int) (*Keys, error) {
	ccs, err := compile(depth)
	if err != nil {
		return nil, err
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("groth16 setup failed: %w", err)
	}
	return &Keys{depth: depth, ccs: ccs, pk: pk, vk: vk}, nil
}

func compile(depth int) (constraint.ConstraintSystem, error) {
	if depth < 1 {
		return nil, fmt.Errorf("invalid depth %d", depth)
	}
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, NewCircuit(depth))
	if err != nil {
		return nil, fmt.Errorf("failed to compile deposit circuit: %w", err)
	}
	return ccs, nil
}

// Depth returns the tree depth the keys were produced for.
func (k *Keys) Depth() int {
	return k.depth
}

// Constraints returns the number of constraints of the compiled circuit.
func (k *Keys) Constraints() int {
	return k.ccs.GetNbConstraints()
}

func keyFiles(directory string, depth int) (pk, vk string) {
	base := filepath.Join(directory, fmt.Sprintf("deposit-%d", depth))
	return base + ".pk", base + ".vk"
}

// Save writes the proving and verifying key into the given directory.
func (k *Keys) Save(directory string) error {
	if err := os.MkdirAll(directory, 0o700); err != nil {
		return err
	}
	pkFile, vkFile := keyFiles(directory, k.depth)
	return errors.Join(
		writeFile(pkFile, k.pk),
		writeFile(vkFile, k.vk),
	)
}

// LoadKeys reads keys for the given depth from a directory populated by
// Save. The circuit is recompiled, which is deterministic.
func LoadKeys(directory string, depth int) (*Keys, error) {
	ccs, err := compile(depth)
	if err != nil {
		return nil, err
	}
	pk := groth16.NewProvingKey(ecc.BN254)
	vk := groth16.NewVerifyingKey(ecc.BN254)
	pkFile, vkFile := keyFiles(directory, depth)
	if err := errors.Join(readFile(pkFile, pk), readFile(vkFile, vk)); err != nil {
		return nil, err
	}
	return &Keys{depth: depth, ccs: ccs, pk: pk, vk: vk}, nil
}

func writeFile(path string, data io.WriterTo) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, file.Close()) }()
	if _, err := data.WriteTo(file); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func readFile(path string, data io.ReaderFrom) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if _, err := data.ReadFrom(bytes.NewReader(content)); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil
}

var _ ledger.Oracle = (*Oracle)(nil)

// Oracle proves and verifies ledger transitions using Groth16.
type Oracle struct {
	keys *Keys
}

// New creates an oracle for the given executor. The executor must use the
// mimc hash scheme with the depth the keys were produced for.
func New(executor *ledger.Executor, keys *Keys) (*Oracle, error) {
	config := executor.Config()
	if config.Scheme != hash.MiMCName {
		return nil, fmt.Errorf("%w, ledger uses %q", ErrUnsupportedScheme, config.Scheme)
	}
	if config.Depth != keys.depth {
		return nil, fmt.Errorf("keys for depth %d can not serve ledger of depth %d", keys.depth, config.Depth)
	}
	return &Oracle{keys: keys}, nil
}

func (o *Oracle) Prove(ctx context.Context, transition ledger.Transition) (ledger.Proof, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	assignment, err := o.assign(transition)
	if err != nil {
		return nil, err
	}
	full, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, err
	}
	proof, err := groth16.Prove(o.keys.ccs, o.keys.pk, full)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnprovable, err)
	}
	var buffer bytes.Buffer
	if _, err := proof.WriteTo(&buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func (o *Oracle) Verify(ctx context.Context, proof ledger.Proof, inputs ledger.PublicInputs) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	parsed := groth16.NewProof(ecc.BN254)
	if _, err := parsed.ReadFrom(bytes.NewReader(proof)); err != nil {
		return false, nil
	}
	assignment := NewCircuit(o.keys.depth)
	setPublicInputs(assignment, inputs)
	setZeroSecrets(assignment)
	public, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return false, err
	}
	return groth16.Verify(parsed, o.keys.vk, public) == nil, nil
}

func (o *Oracle) assign(transition ledger.Transition) (*DepositCircuit, error) {
	w := transition.Witness
	if w.Depth() != o.keys.depth {
		return nil, fmt.Errorf("%w: witness of depth %d, circuit of depth %d", ErrUnprovable, w.Depth(), o.keys.depth)
	}
	masked := transition.Key.Mask(o.keys.depth)
	path := new(big.Int).SetBytes(masked[:])
	if path.BitLen() > pathBits || path.Cmp(fr.Modulus()) >= 0 {
		return nil, fmt.Errorf("%w: key %v exceeds the scalar field", ErrUnprovable, transition.Key)
	}

	res := NewCircuit(o.keys.depth)
	setPublicInputs(res, transition.PublicInputs())
	res.Path = path
	res.ClaimedLo, res.ClaimedHi = limbs(transition.Claimed)
	for i, sibling := range w.Siblings {
		res.Siblings[i] = field(sibling)
	}
	return res, nil
}

func setPublicInputs(circuit *DepositCircuit, inputs ledger.PublicInputs) {
	circuit.OldRoot = field(inputs.OldRoot)
	circuit.NewRoot = field(inputs.NewRoot)
	circuit.AmountLo, circuit.AmountHi = limbs(inputs.Amount)
}

func setZeroSecrets(circuit *DepositCircuit) {
	circuit.Path, circuit.ClaimedLo, circuit.ClaimedHi = 0, 0, 0
	for i := range circuit.Siblings {
		circuit.Siblings[i] = 0
	}
}

func field(digest common.Hash) *big.Int {
	element := hash.ToField(digest)
	return element.BigInt(new(big.Int))
}

func limbs(value amount.Amount) (lo, hi *big.Int) {
	l, h := value.Limbs()
	return new(big.Int).SetBytes(l[:]), new(big.Int).SetBytes(h[:])
}
