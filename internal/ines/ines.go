// Package ines parses iNES-format ROM images into a cartridge.Cartridge.
// Grounded on the reference Rust implementation's cartridge/mod.rs header
// layout and bank-sizing arithmetic, and on the teacher's own
// internal/cartridge LoadFromFile/iNESHeader struct for the Go file-
// reading shape (binary.Read into a fixed-size header struct, trailer
// byte slices sized from the header's bank counts).
package ines

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"gones/internal/cartridge"
)

const (
	headerSize   = 16
	trainerSize  = 512
	prgBankSize  = 16384
	chrBankSize  = 8192
)

var magic = [4]byte{'N', 'E', 'S', 0x1A}

// header mirrors the 16-byte iNES file header, byte for byte.
type header struct {
	Magic        [4]byte
	PRGBanks     uint8
	CHRBanks     uint8
	Flags6       uint8
	Flags7       uint8
	PRGRAMBanks  uint8
	TVSystem1    uint8
	TVSystem2    uint8
	Unused       [5]byte
}

// LoadFile reads and parses an iNES ROM image from disk.
func LoadFile(path string) (*cartridge.Cartridge, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ines: read %s: %w", path, err)
	}
	return Load(data)
}

// Load parses an iNES ROM image already held in memory.
func Load(data []uint8) (*cartridge.Cartridge, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("ines: file too short for a header (%d bytes)", len(data))
	}

	var h header
	if err := binary.Read(bytes.NewReader(data[:headerSize]), binary.BigEndian, &h); err != nil {
		return nil, fmt.Errorf("ines: reading header: %w", err)
	}
	if h.Magic != magic {
		return nil, fmt.Errorf("ines: bad magic bytes %v, not an iNES file", h.Magic)
	}
	if h.PRGBanks == 0 {
		return nil, fmt.Errorf("ines: header declares no PRG ROM banks")
	}

	offset := headerSize
	if h.Flags6&0x04 != 0 {
		offset += trainerSize // trainer present, unused by this emulator
	}

	mapperID := (h.Flags7 & 0xF0) | (h.Flags6 >> 4)

	prgSize := int(h.PRGBanks) * prgBankSize
	if offset+prgSize > len(data) {
		return nil, fmt.Errorf("ines: PRG ROM truncated: need %d bytes, have %d", prgSize, len(data)-offset)
	}
	prg := make([]uint8, prgSize)
	copy(prg, data[offset:offset+prgSize])
	offset += prgSize

	hasCHRRAM := h.CHRBanks == 0
	chrSize := int(h.CHRBanks) * chrBankSize
	var chr []uint8
	if hasCHRRAM {
		chr = make([]uint8, chrBankSize) // one 8KB CHR-RAM bank
	} else {
		if offset+chrSize > len(data) {
			return nil, fmt.Errorf("ines: CHR ROM truncated: need %d bytes, have %d", chrSize, len(data)-offset)
		}
		chr = make([]uint8, chrSize)
		copy(chr, data[offset:offset+chrSize])
	}

	mirror := cartridge.MirrorHorizontal
	if h.Flags6&0x01 != 0 {
		mirror = cartridge.MirrorVertical
	}

	if mapperID != 0 {
		return nil, fmt.Errorf("ines: unsupported mapper id %d (only NROM/0 is implemented)", mapperID)
	}

	return cartridge.New(prg, chr, hasCHRRAM, mirror, mapperID), nil
}

// LoadReader parses an iNES image from an arbitrary reader, for callers
// that already have the bytes open (embedded test fixtures, archives).
func LoadReader(r io.Reader) (*cartridge.Cartridge, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("ines: reading stream: %w", err)
	}
	return Load(data)
}
