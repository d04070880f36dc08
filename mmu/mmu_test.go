package mmu

import (
	"testing"

	"github.com/valerio/gbcore/addr"
	"github.com/valerio/gbcore/cartridge"
	"github.com/valerio/gbcore/mode"
)

func newTestCartridge() *cartridge.Cartridge {
	return cartridge.New(make([]byte, 0x8000))
}

func newTestMMU(m mode.Mode) *MMU {
	return New(m, newTestCartridge(), nil)
}

func TestHRAMRoundTrip(t *testing.T) {
	m := newTestMMU(mode.DMG)
	for addr := uint16(0xFF80); addr <= 0xFFFE; addr++ {
		m.Write(addr, 0x5A)
		if got := m.Read(addr); got != 0x5A {
			t.Fatalf("HRAM %#04x = %#02x, want 0x5A", addr, got)
		}
	}
}

func TestEchoRAMMirrorsWRAM(t *testing.T) {
	m := newTestMMU(mode.DMG)
	m.Write(0xC050, 0x11)
	if got := m.Read(0xE050); got != 0x11 {
		t.Fatalf("echo read = %#02x, want 0x11", got)
	}
	m.Write(0xE060, 0x22)
	if got := m.Read(0xC060); got != 0x22 {
		t.Fatalf("WRAM read after echo write = %#02x, want 0x22", got)
	}
}

func TestProhibitedRegionReadsFFAndIgnoresWrites(t *testing.T) {
	m := newTestMMU(mode.DMG)
	m.Write(0xFEB0, 0x42)
	if got := m.Read(0xFEB0); got != 0xFF {
		t.Fatalf("prohibited read = %#02x, want 0xFF", got)
	}
}

func TestDMGModeGatedCGBRegistersReadFF(t *testing.T) {
	m := newTestMMU(mode.DMG)
	gated := []uint16{addr.KEY1, addr.VBK, addr.HDMA1, addr.HDMA2, addr.HDMA3, addr.HDMA4, addr.HDMA5, addr.BCPS, addr.BCPD, addr.OCPS, addr.OCPD, addr.SVBK}
	for _, a := range gated {
		if got := m.Read(a); got != 0xFF {
			t.Fatalf("DMG read %#04x = %#02x, want 0xFF", a, got)
		}
	}
}

func TestDMGModeGatedCGBRegistersIgnoreWrites(t *testing.T) {
	m := newTestMMU(mode.DMG)
	m.Write(addr.SVBK, 0x03)
	if m.wramBank != 0 {
		t.Fatalf("SVBK write took effect on DMG: %d", m.wramBank)
	}
}

func TestIFRoundTrip(t *testing.T) {
	m := newTestMMU(mode.DMG)
	m.Write(addr.IF, 0x1F)
	if got := m.Read(addr.IF); got != 0xFF {
		t.Fatalf("IF readback = %#02x, want 0xFF (0x1F | 0xE0)", got)
	}
	m.Write(addr.IF, 0x00)
	if got := m.Read(addr.IF); got != 0xE0 {
		t.Fatalf("IF readback = %#02x, want 0xE0", got)
	}
}

func TestOAMDMADurationScenario(t *testing.T) {
	m := newTestMMU(mode.DMG)
	m.Write(0xC050, 0xAB) // source byte for post-DMA readback check

	m.Write(addr.DMA, 0xC0)
	if !m.oamDMA.Active() {
		t.Fatal("OAM-DMA not active right after trigger")
	}

	m.oamDMA.Tick(m, m.gpu, 4)
	if !m.gpu.OAMDMAActive() {
		t.Fatal("GPU OAM-DMA flag not raised after 4-cycle startup")
	}
	if m.oamDMA.Active() == false {
		t.Fatal("OAM-DMA deactivated too early")
	}

	m.oamDMA.Tick(m, m.gpu, 640)
	if m.gpu.OAMDMAActive() == false {
		t.Fatal("OAM-DMA flag dropped before the transfer finished")
	}

	m.oamDMA.Tick(m, m.gpu, 4)
	if m.gpu.OAMDMAActive() {
		t.Fatal("OAM-DMA flag still set after completion")
	}
	if m.oamDMA.Active() {
		t.Fatal("OAM-DMA still active after completion")
	}
}

func TestOAMMaskedDuringDMAThenReflectsCopiedByte(t *testing.T) {
	m := newTestMMU(mode.DMG)
	m.Write(0xC050, 0xAB)

	m.Write(addr.DMA, 0xC0)
	m.oamDMA.Tick(m, m.gpu, 4) // startup delay elapses
	if got := m.Read(0xFE50); got != 0xFF {
		t.Fatalf("OAM read during DMA = %#02x, want 0xFF", got)
	}

	m.oamDMA.Tick(m, m.gpu, 160*4) // copy the remaining 160 bytes
	m.oamDMA.Tick(m, m.gpu, 4)     // one more tick observes index==160 and deactivates
	if got := m.Read(0xFE50); got != 0xAB {
		t.Fatalf("OAM read after DMA = %#02x, want 0xAB", got)
	}
}

func TestBootROMDisableScenario(t *testing.T) {
	boot := make([]byte, 256)
	boot[0] = 0x11

	m := New(mode.DMG, newTestCartridge(), nil, WithBootROM(boot))
	if got := m.Read(0x0000); got != 0x11 {
		t.Fatalf("boot ROM read = %#02x, want 0x11", got)
	}

	m.Write(addr.BootROMDisable, 0x01)
	if got := m.Read(0x0000); got == 0x11 {
		t.Fatal("boot ROM still visible after disable")
	}

	m.Write(addr.BootROMDisable, 0x00)
	if got := m.Read(0x0000); got == 0x11 {
		t.Fatal("boot ROM reactivated by a later write")
	}
}

func TestHDMA5IdleReadOnCGB(t *testing.T) {
	m := newTestMMU(mode.CGB)
	if got := m.Read(addr.HDMA5); got != 0x80 {
		t.Fatalf("HDMA5 idle read = %#02x, want 0x80", got)
	}
}

func TestHDMAArmingAndBurstCompletion(t *testing.T) {
	m := newTestMMU(mode.CGB)
	for i := 0; i < 0x100; i++ {
		m.Write(0xC000+uint16(i), byte(i))
	}

	m.Write(addr.HDMA1, 0xC0)
	m.Write(addr.HDMA2, 0x00)
	m.Write(addr.HDMA3, 0x80)
	m.Write(addr.HDMA4, 0x00)
	m.Write(addr.HDMA5, 0x0F) // 16 blocks, general purpose

	if got := m.Read(addr.HDMA5); got != 0x0F {
		t.Fatalf("HDMA5 read while armed = %#02x, want 0x0F", got)
	}

	for i := 0; i < 16; i++ {
		m.hdma.GDMATick(m)
	}

	if got := m.Read(addr.HDMA5); got != 0x80 {
		t.Fatalf("HDMA5 read after completion = %#02x, want 0x80", got)
	}
	for i := 0; i < 0x100; i++ {
		if got := m.Read(0x8000 + uint16(i)); got != byte(i) {
			t.Fatalf("VRAM byte %#04x = %#02x, want %#02x", 0x8000+i, got, byte(i))
		}
	}
}

func TestSerialWriteTeesToSink(t *testing.T) {
	var got byte
	m := New(mode.DMG, newTestCartridge(), func(b byte) { got = b })
	m.Write(addr.SB, 0x42)
	if got != 0x42 {
		t.Fatalf("sink received %#02x, want 0x42", got)
	}
	if readBack := m.Read(addr.SB); readBack != 0x42 {
		t.Fatalf("SB readback = %#02x, want 0x42", readBack)
	}
}

func TestSCReadsConstant(t *testing.T) {
	m := newTestMMU(mode.DMG)
	if got := m.Read(addr.SC); got != 0x7E {
		t.Fatalf("SC read = %#02x, want 0x7E", got)
	}
}
