// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package smt

import (
	"bytes"
	"context"
	"math/rand"
	"testing"

	"github.com/golang/snappy"
	"github.com/panoptisDev/zkledger/common"
	"github.com/panoptisDev/zkledger/common/amount"
	"github.com/panoptisDev/zkledger/database/smt/hash"
	"github.com/stretchr/testify/require"
)

func TestExport_ImportReproducesMap(t *testing.T) {
	for _, config := range []Config{
		{Scheme: hash.KeccakName, Depth: 256},
		{Scheme: hash.MiMCName, Depth: 20},
	} {
		t.Run(config.Scheme, func(t *testing.T) {
			require := require.New(t)
			m, err := New(config)
			require.NoError(err)
			r := rand.New(rand.NewSource(11))
			for i := range 300 {
				m.Set(randomKey(r), amount.New(uint64(i+1)))
			}

			var buffer bytes.Buffer
			root, err := m.Export(context.Background(), &buffer)
			require.NoError(err)
			require.Equal(m.Root(), root)

			restored, err := Import(context.Background(), &buffer)
			require.NoError(err)
			require.Equal(config, restored.Config())
			require.Equal(root, restored.Root())
			require.Equal(m.Len(), restored.Len())
		})
	}
}

func TestExport_EmptyMap(t *testing.T) {
	require := require.New(t)
	m := newMap(t, hash.KeccakName, 8)

	var buffer bytes.Buffer
	_, err := m.Export(context.Background(), &buffer)
	require.NoError(err)

	restored, err := Import(context.Background(), &buffer)
	require.NoError(err)
	require.Equal(m.Root(), restored.Root())
	require.Zero(restored.Len())
}

func TestExport_CanBeCancelled(t *testing.T) {
	m := newMap(t, hash.KeccakName, 256)
	m.Set(common.Key{1}, amount.New(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Export(ctx, &bytes.Buffer{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestImport_CanBeCancelled(t *testing.T) {
	m := newMap(t, hash.KeccakName, 256)
	m.Set(common.Key{1}, amount.New(1))
	var buffer bytes.Buffer
	_, err := m.Export(context.Background(), &buffer)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Import(ctx, &buffer)
	require.ErrorIs(t, err, context.Canceled)
}

// rawExport produces an export stream with arbitrary content.
func rawExport(t *testing.T, config Config, body []byte) *bytes.Buffer {
	t.Helper()
	var buffer bytes.Buffer
	writer := snappy.NewBufferedWriter(&buffer)
	require.NoError(t, writeExportHeader(writer, config))
	_, err := writer.Write(body)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buffer
}

func leafRecord(key common.Key, value uint64) []byte {
	data := amount.New(value).Bytes32()
	res := append([]byte{leafTag}, key[:]...)
	return append(res, data[:]...)
}

func footerRecord(count byte, root common.Hash) []byte {
	res := []byte{endTag, 0, 0, 0, 0, 0, 0, 0, count}
	return append(res, root[:]...)
}

func TestImport_RejectsCorruptedStreams(t *testing.T) {
	config := Config{Scheme: hash.KeccakName, Depth: 8}
	m := newMap(t, config.Scheme, config.Depth)
	m.Set(common.Key{31: 1}, amount.New(1))
	m.Set(common.Key{31: 2}, amount.New(2))
	root := m.Root()

	concat := func(parts ...[]byte) []byte {
		return bytes.Join(parts, nil)
	}

	tests := map[string]*bytes.Buffer{
		"invalid config": rawExport(t, Config{Scheme: hash.KeccakName, Depth: 0}, footerRecord(0, root)),
		"unknown tag":    rawExport(t, config, []byte{0x42}),
		"out of order": rawExport(t, config, concat(
			leafRecord(common.Key{31: 2}, 2),
			leafRecord(common.Key{31: 1}, 1),
			footerRecord(2, root),
		)),
		"duplicate key": rawExport(t, config, concat(
			leafRecord(common.Key{31: 1}, 1),
			leafRecord(common.Key{31: 1}, 1),
			footerRecord(2, root),
		)),
		"key exceeding depth": rawExport(t, config, concat(
			leafRecord(common.Key{30: 1}, 1),
			footerRecord(1, root),
		)),
		"zero value": rawExport(t, config, concat(
			leafRecord(common.Key{31: 1}, 0),
			footerRecord(1, root),
		)),
		"wrong count": rawExport(t, config, concat(
			leafRecord(common.Key{31: 1}, 1),
			leafRecord(common.Key{31: 2}, 2),
			footerRecord(3, root),
		)),
		"wrong root": rawExport(t, config, concat(
			leafRecord(common.Key{31: 1}, 1),
			leafRecord(common.Key{31: 2}, 3),
			footerRecord(2, root),
		)),
	}

	for name, stream := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Import(context.Background(), stream)
			require.ErrorIs(t, err, ErrCorrupted)
		})
	}
}

func TestImport_RejectsTruncatedStream(t *testing.T) {
	config := Config{Scheme: hash.KeccakName, Depth: 8}
	stream := rawExport(t, config, leafRecord(common.Key{31: 1}, 1)[:20])
	_, err := Import(context.Background(), stream)
	require.Error(t, err)
}

func TestImport_RejectsForeignData(t *testing.T) {
	var buffer bytes.Buffer
	writer := snappy.NewBufferedWriter(&buffer)
	_, err := writer.Write([]byte("definitely not a map export"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	_, err = Import(context.Background(), &buffer)
	require.ErrorIs(t, err, ErrCorrupted)
}
