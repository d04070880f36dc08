// Package mmu implements the address-decode fabric that arbitrates every
// CPU-visible byte: a fixed partition table routes each address to ROM,
// VRAM, WRAM, OAM, HRAM, or one of the I/O-owning collaborators, applying
// the per-region visibility rules (boot-ROM overlay, echo-RAM aliasing,
// OAM-DMA masking, the prohibited region, and each register's own
// read/write mask).
package mmu

import (
	"github.com/valerio/gbcore/addr"
	"github.com/valerio/gbcore/apu"
	"github.com/valerio/gbcore/bit"
	"github.com/valerio/gbcore/cartridge"
	"github.com/valerio/gbcore/hdma"
	"github.com/valerio/gbcore/joypad"
	"github.com/valerio/gbcore/mode"
	"github.com/valerio/gbcore/oamdma"
	"github.com/valerio/gbcore/serial"
	"github.com/valerio/gbcore/timer"
	"github.com/valerio/gbcore/video"
)

// MMU owns every piece of CPU-visible state that isn't delegated to a
// narrower collaborator, and routes reads/writes across all of them.
type MMU struct {
	hwMode mode.Mode

	bootROM       [256]byte
	bootROMActive bool

	cart *cartridge.Cartridge
	gpu  *video.GPU
	apu  *apu.APU

	timer  *timer.Timer
	joypad *joypad.Joypad
	serial *serial.Port
	oamDMA *oamdma.DMA
	hdma   *hdma.HDMA

	wram     [8][0x1000]byte // bank 0 fixed at 0xC000, banks 1-7 switchable at 0xD000 on CGB
	wramBank uint8           // raw SVBK low 3 bits; 0 is remapped to 1 for addressing

	hram [127]byte
	ie   byte

	key1 byte

	// ioFallback backs any 0xFF00-0xFF7F address this MMU does not give a
	// dedicated register to (undocumented CGB latches included).
	ioFallback [0x80]byte
}

// Option configures an MMU at construction time.
type Option func(*MMU)

// WithBootROM installs a boot ROM image and activates the overlay. Only
// meaningful in DMG mode; images longer than 256 bytes are truncated.
func WithBootROM(image []byte) Option {
	return func(m *MMU) {
		if m.hwMode != mode.DMG {
			return
		}
		n := copy(m.bootROM[:], image)
		if n > 0 {
			m.bootROMActive = true
			m.timer.SetSeed(0)
		}
	}
}

// WithSerialLineLogging enables line-buffered structured logging of bytes
// written to the serial port.
func WithSerialLineLogging() Option {
	return func(m *MMU) {
		m.serial.EnableLineLogging()
	}
}

// New creates an MMU for the given hardware mode and cartridge, with the
// divider seeded to the post-boot snapshot value unless a boot ROM is
// installed via WithBootROM.
func New(hwMode mode.Mode, cart *cartridge.Cartridge, serialSink func(byte), opts ...Option) *MMU {
	m := &MMU{
		hwMode: hwMode,
		cart:   cart,
		gpu:    video.New(hwMode),
		apu:    apu.New(),
		timer:  timer.New(hwMode),
		joypad: joypad.New(),
		oamDMA: oamdma.New(),
		hdma:   hdma.New(),
	}
	m.serial = serial.New(serialSink)
	for i := range m.ioFallback {
		m.ioFallback[i] = 0xFF
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Mode returns the hardware mode this MMU was built for.
func (m *MMU) Mode() mode.Mode { return m.hwMode }

// GPU, APU, Timer, Joypad, Serial, OAMDMA and HDMA expose the collaborators
// the system composition root needs to drive with Tick calls.
func (m *MMU) GPU() *video.GPU        { return m.gpu }
func (m *MMU) APU() *apu.APU          { return m.apu }
func (m *MMU) Timer() *timer.Timer    { return m.timer }
func (m *MMU) Joypad() *joypad.Joypad { return m.joypad }
func (m *MMU) Serial() *serial.Port   { return m.serial }
func (m *MMU) OAMDMA() *oamdma.DMA    { return m.oamDMA }
func (m *MMU) HDMA() *hdma.HDMA       { return m.hdma }

// ApplyPostBootState seeds the registers a real boot ROM would have left
// behind, for a session that chooses to skip boot-ROM execution entirely.
func (m *MMU) ApplyPostBootState() {
	m.bootROMActive = false
	m.ie = 0x00
	m.gpu.SetPendingVBlankInterrupt(true)
	if m.hwMode.IsCGB() {
		m.ioFallback[0xFF6C-0xFF00] = 0xFE
		m.ioFallback[0xFF75-0xFF00] = 0x8F
	}
}

// oamMasked reports whether OAM is currently hidden from the CPU: either
// the GPU's own DMA-active flag, or the engine's brief restart window
// (during which the GPU flag is intentionally dropped).
func (m *MMU) oamMasked() bool {
	return m.gpu.OAMDMAActive() || m.oamDMA.Restarting()
}

// Read is total over 0x0000-0xFFFF.
func (m *MMU) Read(address uint16) byte {
	switch {
	case address <= 0x00FF:
		if m.bootROMActive {
			return m.bootROM[address]
		}
		return m.cart.Read(address)
	case address <= 0x7FFF:
		return m.cart.Read(address)
	case address <= 0x9FFF:
		return m.gpu.Read(address)
	case address <= 0xBFFF:
		return m.cart.Read(address)
	case address <= 0xDFFF:
		return m.readWRAM(address)
	case address <= 0xFDFF:
		return m.readWRAM(address - 0x2000)
	case address <= 0xFE9F:
		if m.oamMasked() {
			return 0xFF
		}
		return m.gpu.Read(address)
	case address <= 0xFEFF:
		return 0xFF
	default:
		return m.readIO(address)
	}
}

// Write is total over 0x0000-0xFFFF.
func (m *MMU) Write(address uint16, value byte) {
	switch {
	case address <= 0x7FFF:
		m.cart.Write(address, value)
	case address <= 0x9FFF:
		m.gpu.Write(address, value)
	case address <= 0xBFFF:
		m.cart.Write(address, value)
	case address <= 0xDFFF:
		m.writeWRAM(address, value)
	case address <= 0xFDFF:
		m.writeWRAM(address-0x2000, value)
	case address <= 0xFE9F:
		if !m.oamMasked() {
			m.gpu.Write(address, value)
		}
	case address <= 0xFEFF:
		// prohibited, writes ignored
	default:
		m.writeIO(address, value)
	}
}

func (m *MMU) effectiveWRAMBank() uint8 {
	if !m.hwMode.IsCGB() {
		return 1
	}
	bank := m.wramBank & 0x07
	if bank == 0 {
		bank = 1
	}
	return bank
}

func (m *MMU) readWRAM(address uint16) byte {
	if address <= 0xCFFF {
		return m.wram[0][address-0xC000]
	}
	return m.wram[m.effectiveWRAMBank()][address-0xD000]
}

func (m *MMU) writeWRAM(address uint16, value byte) {
	if address <= 0xCFFF {
		m.wram[0][address-0xC000] = value
		return
	}
	m.wram[m.effectiveWRAMBank()][address-0xD000] = value
}

func (m *MMU) readIO(address uint16) byte {
	switch address {
	case addr.P1:
		return m.joypad.Read()
	case addr.SB:
		return m.serial.LastByte()
	case addr.SC:
		return 0x7E
	case addr.DIV, addr.TIMA, addr.TMA, addr.TAC:
		return m.timer.Read(address)
	case addr.IF:
		return m.readIF()
	case addr.DMA:
		return m.oamDMA.SourceHigh()
	case addr.BootROMDisable:
		return 0xFF
	case addr.KEY1:
		if !m.hwMode.IsCGB() {
			return 0xFF
		}
		return m.key1 | 0x7E
	case addr.HDMA1, addr.HDMA2, addr.HDMA3, addr.HDMA4:
		if !m.hwMode.IsCGB() {
			return 0xFF
		}
		return 0xFF // write-only
	case addr.HDMA5:
		if !m.hwMode.IsCGB() {
			return 0xFF
		}
		return m.hdma.ReadControl()
	case addr.SVBK:
		if !m.hwMode.IsCGB() {
			return 0xFF
		}
		return 0xF8 | (m.wramBank & 0x07)
	case addr.IE:
		return m.ie
	}

	if address >= addr.AudioStart && address <= addr.WaveRAMEnd {
		return m.apu.Read(address)
	}
	if address >= addr.LCDC && address <= addr.WX {
		return m.gpu.Read(address)
	}
	if address == addr.VBK {
		return m.gpu.Read(address)
	}
	if address >= addr.BCPS && address <= addr.OCPD {
		return m.gpu.Read(address)
	}
	if address >= 0xFF80 && address <= 0xFFFE {
		return m.hram[address-0xFF80]
	}

	return m.ioFallback[address-0xFF00]
}

func (m *MMU) writeIO(address uint16, value byte) {
	switch address {
	case addr.P1:
		m.joypad.Write(value)
		return
	case addr.SB:
		m.serial.Write(value)
		return
	case addr.SC:
		return
	case addr.DIV, addr.TIMA, addr.TMA, addr.TAC:
		m.timer.Write(address, value)
		return
	case addr.IF:
		m.writeIF(value)
		return
	case addr.DMA:
		m.oamDMA.Activate(m.gpu, value)
		return
	case addr.BootROMDisable:
		if value&0x01 != 0 {
			m.bootROMActive = false
		}
		return
	case addr.KEY1:
		if m.hwMode.IsCGB() {
			m.key1 = value & 0x01
		}
		return
	case addr.HDMA1:
		if m.hwMode.IsCGB() {
			m.hdma.WriteSrcHigh(value)
		}
		return
	case addr.HDMA2:
		if m.hwMode.IsCGB() {
			m.hdma.WriteSrcLow(value)
		}
		return
	case addr.HDMA3:
		if m.hwMode.IsCGB() {
			m.hdma.WriteDstHigh(value)
		}
		return
	case addr.HDMA4:
		if m.hwMode.IsCGB() {
			m.hdma.WriteDstLow(value)
		}
		return
	case addr.HDMA5:
		if m.hwMode.IsCGB() {
			m.hdma.WriteControl(value)
		}
		return
	case addr.SVBK:
		if m.hwMode.IsCGB() {
			m.wramBank = value & 0x07
		}
		return
	case addr.IE:
		m.ie = value
		return
	}

	if address >= addr.AudioStart && address <= addr.WaveRAMEnd {
		m.apu.Write(address, value)
		return
	}
	if address >= addr.LCDC && address <= addr.WX {
		m.gpu.Write(address, value)
		return
	}
	if address == addr.VBK {
		m.gpu.Write(address, value)
		return
	}
	if address >= addr.BCPS && address <= addr.OCPD {
		m.gpu.Write(address, value)
		return
	}
	if address >= 0xFF80 && address <= 0xFFFE {
		m.hram[address-0xFF80] = value
		return
	}

	m.ioFallback[address-0xFF00] = value
}

// readIF composes the five peripheral request latches into the IF byte,
// forcing the unused upper three bits high.
func (m *MMU) readIF() byte {
	result := byte(0xE0)
	if m.joypad.PendingInterrupt() {
		result = bit.Set(4, result)
	}
	if m.serial.PendingInterrupt() {
		result = bit.Set(3, result)
	}
	if m.timer.PendingInterrupt() {
		result = bit.Set(2, result)
	}
	if m.gpu.PendingLCDStatInterrupt() {
		result = bit.Set(1, result)
	}
	if m.gpu.PendingVBlankInterrupt() {
		result = bit.Set(0, result)
	}
	return result
}

// writeIF decomposes the lower five written bits back into each
// peripheral's latch.
func (m *MMU) writeIF(value byte) {
	m.gpu.SetPendingVBlankInterrupt(bit.IsSet(0, value))
	m.gpu.SetPendingLCDStatInterrupt(bit.IsSet(1, value))
	m.timer.SetPendingInterrupt(bit.IsSet(2, value))
	m.serial.SetPendingInterrupt(bit.IsSet(3, value))
	m.joypad.SetPendingInterrupt(bit.IsSet(4, value))
}
