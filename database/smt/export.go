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
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/panoptisDev/zkledger/common"
	"github.com/panoptisDev/zkledger/common/amount"
)

// The export format is a snappy-framed stream of the form
//
//	magic | version | depth (2 bytes) | len(scheme) (1 byte) | scheme
//	{ leafTag | key (32 bytes) | value (32 bytes) }*   in ascending key order
//	endTag | number of leaves (8 bytes) | root (32 bytes)
var exportMagic = []byte("SMTX")

const (
	exportVersion = 1
	leafTag       = byte('L')
	endTag        = byte('E')

	// number of leaves processed between checks for cancellation
	cancelCheckInterval = 1024
)

// Export writes the content of the map to the given writer and returns the
// root of the exported map.
func (m *Map) Export(ctx context.Context, out io.Writer) (common.Hash, error) {
	writer := snappy.NewBufferedWriter(out)
	if err := writeExportHeader(writer, m.config); err != nil {
		return common.Hash{}, errors.Join(err, writer.Close())
	}

	count := uint64(0)
	err := m.Visit(func(key common.Key, value amount.Amount) error {
		if count%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		count++
		data := value.Bytes32()
		if _, err := writer.Write([]byte{leafTag}); err != nil {
			return err
		}
		if _, err := writer.Write(key[:]); err != nil {
			return err
		}
		_, err := writer.Write(data[:])
		return err
	})
	if err != nil {
		return common.Hash{}, errors.Join(err, writer.Close())
	}

	root := m.Root()
	footer := append([]byte{endTag}, binary.BigEndian.AppendUint64(nil, count)...)
	footer = append(footer, root[:]...)
	if _, err := writer.Write(footer); err != nil {
		return common.Hash{}, errors.Join(err, writer.Close())
	}
	return root, writer.Close()
}

func writeExportHeader(out io.Writer, config Config) error {
	if len(config.Scheme) > 255 {
		return fmt.Errorf("scheme name too long: %q", config.Scheme)
	}
	header := append([]byte{}, exportMagic...)
	header = append(header, exportVersion)
	header = binary.BigEndian.AppendUint16(header, uint16(config.Depth))
	header = append(header, byte(len(config.Scheme)))
	header = append(header, config.Scheme...)
	_, err := out.Write(header)
	return err
}

// Import reads a map produced by Export. The configuration of the map is
// taken from the stream. Leaves have to be listed in ascending order of their
// keys and must reproduce the root recorded at the end of the stream.
func Import(ctx context.Context, in io.Reader) (*Map, error) {
	reader := bufio.NewReader(snappy.NewReader(in))

	config, err := readExportHeader(reader)
	if err != nil {
		return nil, err
	}
	res, err := New(config)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupted, err)
	}

	var (
		previous common.Key
		count    uint64
		record   [2 * 32]byte
	)
	for {
		if count%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		tag, err := reader.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		if tag == endTag {
			break
		}
		if tag != leafTag {
			return nil, fmt.Errorf("%w: unknown record tag 0x%02x", ErrCorrupted, tag)
		}
		if _, err := io.ReadFull(reader, record[:]); err != nil {
			return nil, fmt.Errorf("failed to read leaf: %w", err)
		}
		key := common.Key(record[:32])
		value := amount.NewFromBytes(record[32:]...)
		if count > 0 && bytes.Compare(previous[:], key[:]) >= 0 {
			return nil, fmt.Errorf("%w: leaf %v out of order", ErrCorrupted, key)
		}
		if key.Mask(config.Depth) != key {
			return nil, fmt.Errorf("%w: key %v exceeds depth %d", ErrCorrupted, key, config.Depth)
		}
		if value.IsZero() {
			return nil, fmt.Errorf("%w: zero value listed for key %v", ErrCorrupted, key)
		}
		res.Set(key, value)
		previous = key
		count++
	}

	var footer [8 + 32]byte
	if _, err := io.ReadFull(reader, footer[:]); err != nil {
		return nil, fmt.Errorf("failed to read footer: %w", err)
	}
	if want := binary.BigEndian.Uint64(footer[:8]); want != count {
		return nil, fmt.Errorf("%w: stream lists %d leaves, found %d", ErrCorrupted, want, count)
	}
	if root := common.Hash(footer[8:]); root != res.Root() {
		return nil, fmt.Errorf("%w: leaves produce root %v, recorded root is %v", ErrCorrupted, res.Root(), root)
	}
	return res, nil
}

func readExportHeader(in *bufio.Reader) (Config, error) {
	var header [len("SMTX") + 1 + 2 + 1]byte
	if _, err := io.ReadFull(in, header[:]); err != nil {
		return Config{}, fmt.Errorf("failed to read header: %w", err)
	}
	if !bytes.Equal(header[:len(exportMagic)], exportMagic) {
		return Config{}, fmt.Errorf("%w: not a map export", ErrCorrupted)
	}
	if version := header[len(exportMagic)]; version != exportVersion {
		return Config{}, fmt.Errorf("%w: unsupported export version %d", ErrCorrupted, version)
	}
	depth := binary.BigEndian.Uint16(header[len(exportMagic)+1:])
	scheme := make([]byte, header[len(header)-1])
	if _, err := io.ReadFull(in, scheme); err != nil {
		return Config{}, fmt.Errorf("failed to read header: %w", err)
	}
	return Config{Scheme: string(scheme), Depth: int(depth)}, nil
}
