package cartridge

import (
	"testing"

	"github.com/valerio/gbcore/mode"
)

func makeROM(size int, cartType, ramSizeCode byte) []byte {
	rom := make([]byte, size)
	copy(rom[titleAddress:], []byte("TESTGAME"))
	rom[cartridgeTypeAddress] = cartType
	rom[ramSizeAddress] = ramSizeCode
	return rom
}

func TestTitleParsedAndTrimmed(t *testing.T) {
	rom := makeROM(0x8000, 0x00, 0x00)
	c := New(rom)
	if c.Title() != "TESTGAME" {
		t.Fatalf("title = %q, want TESTGAME", c.Title())
	}
}

func TestNoMBCReadsDirectly(t *testing.T) {
	rom := makeROM(0x8000, 0x00, 0x00)
	rom[0x0150] = 0xAB
	c := New(rom)
	if got := c.Read(0x0150); got != 0xAB {
		t.Fatalf("read = %#02x, want 0xAB", got)
	}
}

func TestNoMBCIgnoresWrites(t *testing.T) {
	rom := makeROM(0x8000, 0x00, 0x00)
	c := New(rom)
	c.Write(0x0150, 0xFF)
	if got := c.Read(0x0150); got != 0x00 {
		t.Fatalf("NoMBC write mutated ROM: %#02x", got)
	}
}

func TestMBC1BankSwitching(t *testing.T) {
	rom := makeROM(0x40000, 0x01, 0x00) // 256KB, MBC1
	rom[0x4000*2+5] = 0x42              // bank 2, offset 5
	c := New(rom)

	c.Write(0x2000, 0x02) // select ROM bank 2
	if got := c.Read(0x4005); got != 0x42 {
		t.Fatalf("banked read = %#02x, want 0x42", got)
	}
}

func TestMBC1BankZeroRemapsToOne(t *testing.T) {
	rom := makeROM(0x40000, 0x01, 0x00)
	rom[0x4000*1+3] = 0x77 // bank 1
	c := New(rom)

	c.Write(0x2000, 0x00) // request bank 0, hardware remaps to 1
	if got := c.Read(0x4003); got != 0x77 {
		t.Fatalf("remapped read = %#02x, want 0x77", got)
	}
}

func TestMBC1RAMDisabledByDefault(t *testing.T) {
	rom := makeROM(0x8000, 0x03, 0x03) // MBC1+RAM+BATTERY, 32KB RAM
	c := New(rom)

	if got := c.Read(0xA000); got != 0xFF {
		t.Fatalf("RAM read while disabled = %#02x, want 0xFF", got)
	}
}

func TestMBC1RAMEnableAndWrite(t *testing.T) {
	rom := makeROM(0x8000, 0x03, 0x03)
	c := New(rom)

	c.Write(0x0000, 0x0A) // enable RAM
	c.Write(0xA010, 0x99)
	if got := c.Read(0xA010); got != 0x99 {
		t.Fatalf("RAM readback = %#02x, want 0x99", got)
	}
}

func TestMBC2BuiltinRAMMasksUpperNibble(t *testing.T) {
	rom := makeROM(0x8000, 0x05, 0x00)
	c := New(rom)

	c.Write(0x0000, 0x0A) // enable built-in RAM
	c.Write(0xA000, 0xFF)
	if got := c.Read(0xA000); got != 0xFF {
		t.Fatalf("MBC2 RAM read = %#02x, want 0xFF (4-bit value | 0xF0)", got)
	}
}

func TestMBC5LargeBankNumber(t *testing.T) {
	romSize := 0x4000 * 300
	rom := makeROM(romSize, 0x19, 0x00)
	rom[0x4000*257+1] = 0x55
	c := New(rom)

	c.Write(0x2000, 0x01) // low bank byte
	c.Write(0x3000, 0x01) // bank bit 8
	if got := c.Read(0x4001); got != 0x55 {
		t.Fatalf("MBC5 banked read = %#02x, want 0x55", got)
	}
}

func TestPreferredModeFromCGBFlag(t *testing.T) {
	rom := makeROM(0x8000, 0x00, 0x00)
	rom[cgbFlagAddress] = 0x80
	c := New(rom)

	if c.PreferredMode() != mode.CGB {
		t.Fatalf("preferred mode = %v, want CGB", c.PreferredMode())
	}
}

func TestPreferredModeDefaultsToDMG(t *testing.T) {
	rom := makeROM(0x8000, 0x00, 0x00)
	c := New(rom)
	if c.PreferredMode() != mode.DMG {
		t.Fatalf("preferred mode = %v, want DMG", c.PreferredMode())
	}
}
