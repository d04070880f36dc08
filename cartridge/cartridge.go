// Package cartridge parses the ROM header and dispatches reads/writes over
// 0x0000-0x7FFF and 0xA000-0xBFFF to the memory bank controller the header's
// cartridge-type byte selects.
package cartridge

import "github.com/valerio/gbcore/mode"

const (
	titleAddress         = 0x134
	titleLength          = 16
	cgbFlagAddress       = 0x143
	cartridgeTypeAddress = 0x147
	romSizeAddress       = 0x148
	ramSizeAddress       = 0x149
)

var ramBankCounts = map[uint8]uint8{
	0x00: 0,
	0x01: 1, // unofficial, 2KB, treated as one partial bank
	0x02: 1,
	0x03: 4,
	0x04: 16,
	0x05: 8,
}

// Cartridge owns the parsed header and the bank controller selected for it.
type Cartridge struct {
	title    string
	cgbFlag  uint8
	cartType uint8
	mbc      MBC
}

// New parses data's header and constructs the matching MBC.
func New(data []byte) *Cartridge {
	title := ""
	if len(data) >= titleAddress+titleLength {
		raw := data[titleAddress : titleAddress+titleLength]
		end := len(raw)
		for i, b := range raw {
			if b == 0 {
				end = i
				break
			}
		}
		title = string(raw[:end])
	}

	cartType := uint8(0)
	cgbFlag := uint8(0)
	ramSizeCode := uint8(0)
	if len(data) > cartridgeTypeAddress {
		cartType = data[cartridgeTypeAddress]
	}
	if len(data) > cgbFlagAddress {
		cgbFlag = data[cgbFlagAddress]
	}
	if len(data) > ramSizeAddress {
		ramSizeCode = data[ramSizeAddress]
	}

	return &Cartridge{
		title:    title,
		cgbFlag:  cgbFlag,
		cartType: cartType,
		mbc:      newMBC(cartType, data, ramBankCounts[ramSizeCode]),
	}
}

func newMBC(cartType uint8, rom []byte, ramBanks uint8) MBC {
	switch {
	case cartType == 0x00:
		return NewNoMBC(rom)
	case cartType >= 0x01 && cartType <= 0x03:
		return NewMBC1(rom, ramBanks)
	case cartType == 0x05 || cartType == 0x06:
		return NewMBC2(rom)
	case cartType >= 0x0F && cartType <= 0x13:
		return NewMBC3(rom, ramBanks)
	case cartType >= 0x19 && cartType <= 0x1E:
		return NewMBC5(rom, ramBanks)
	default:
		return NewNoMBC(rom)
	}
}

// Title returns the game title read from the header, trimmed at the first
// NUL byte.
func (c *Cartridge) Title() string {
	return c.title
}

// PreferredMode reports the hardware mode the cartridge header asks for:
// CGB when the CGB flag's top bit(s) request color support, DMG otherwise.
// The caller may still force DMG mode regardless of this hint.
func (c *Cartridge) PreferredMode() mode.Mode {
	if c.cgbFlag&0x80 != 0 {
		return mode.CGB
	}
	return mode.DMG
}

// Read dispatches to the selected MBC.
func (c *Cartridge) Read(address uint16) uint8 {
	return c.mbc.Read(address)
}

// Write dispatches to the selected MBC.
func (c *Cartridge) Write(address uint16, value uint8) {
	c.mbc.Write(address, value)
}
