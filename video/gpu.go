// Package video models the GPU as a bus collaborator: it owns VRAM, OAM,
// CGB palette RAM, the LCD register file and the OAM-DMA visibility flag
// (set by the OAM-DMA engine), and advances the STAT mode timing far
// enough to gate H-Blank DMA ticks and the VBlank/LCDSTAT interrupt
// latches. It does not render: no tile fetch, no
// sprite compositing, no framebuffer.
package video

import (
	"github.com/valerio/gbcore/addr"
	"github.com/valerio/gbcore/bit"
	"github.com/valerio/gbcore/mode"
)

// lcdMode mirrors STAT bits 1-0.
type lcdMode uint8

const (
	modeHBlank lcdMode = 0
	modeVBlank lcdMode = 1
	modeOAM    lcdMode = 2
	modeVRAM   lcdMode = 3
)

const (
	oamScanCycles  = 80
	vramScanCycles = 172
	hblankCycles   = 204
	scanlineCycles = oamScanCycles + vramScanCycles + hblankCycles
	linesPerFrame  = 154
	vblankStartLn  = 144
)

const (
	statLYCIrq    = 6
	statOAMIrq    = 5
	statVBlankIrq = 4
	statHBlankIrq = 3
	statLYCEqual  = 2
)

// GPU owns the memory and registers a real PPU would, minus the rendering
// pipeline.
type GPU struct {
	mode mode.Mode

	vram    [2][0x2000]byte // bank 0 always; bank 1 only meaningful on CGB
	vramBnk uint8
	oam     [160]byte

	bgPalette  [64]byte // CGB BCPS/BCPD
	objPalette [64]byte // CGB OCPS/OCPD
	bcps, ocps uint8

	lcdc, stat, scy, scx, ly, lyc byte
	bgp, obp0, obp1, wy, wx       byte

	lcdMode        lcdMode
	cycles         int
	justEnteredHB  bool
	oamDMAActive   bool
	requestVBlank  bool
	requestLCDStat bool
}

// New creates a GPU with the post-boot LCD-on default state.
func New(m mode.Mode) *GPU {
	return &GPU{
		mode:    m,
		lcdc:    0x91,
		bgp:     0xFC,
		lcdMode: modeOAM,
	}
}

// Tick advances the STAT mode state machine by cycles T-cycles, latching
// VBlank/LCDSTAT interrupts on mode transitions and tracking whether an
// H-Blank boundary was just crossed (for the caller to drive HDMA's
// HBlankTick).
func (g *GPU) Tick(cycles int) {
	g.justEnteredHB = false
	if g.lcdc&0x80 == 0 {
		return
	}

	g.cycles += cycles

	switch g.lcdMode {
	case modeOAM:
		if g.cycles >= oamScanCycles {
			g.cycles -= oamScanCycles
			g.setMode(modeVRAM)
		}
	case modeVRAM:
		if g.cycles >= vramScanCycles {
			g.cycles -= vramScanCycles
			g.setMode(modeHBlank)
		}
	case modeHBlank:
		if g.cycles >= hblankCycles {
			g.cycles -= hblankCycles
			g.setLY(g.ly + 1)
			if int(g.ly) == vblankStartLn {
				g.setMode(modeVBlank)
				g.requestVBlank = true
				if bit.IsSet(statVBlankIrq, g.stat) {
					g.requestLCDStat = true
				}
			} else {
				g.setMode(modeOAM)
				if bit.IsSet(statOAMIrq, g.stat) {
					g.requestLCDStat = true
				}
			}
		}
	case modeVBlank:
		if g.cycles >= scanlineCycles {
			g.cycles -= scanlineCycles
			if int(g.ly) == linesPerFrame-1 {
				g.setLY(0)
				g.setMode(modeOAM)
				if bit.IsSet(statOAMIrq, g.stat) {
					g.requestLCDStat = true
				}
			} else {
				g.setLY(g.ly + 1)
			}
		}
	}
}

func (g *GPU) setMode(m lcdMode) {
	g.lcdMode = m
	g.stat = (g.stat &^ 0x03) | byte(m)
	if m == modeHBlank {
		g.justEnteredHB = true
	}
}

func (g *GPU) setLY(ly byte) {
	g.ly = ly
	wasEqual := bit.IsSet(statLYCEqual, g.stat)
	equal := g.ly == g.lyc
	if equal {
		g.stat = bit.Set(statLYCEqual, g.stat)
	} else {
		g.stat = bit.Reset(statLYCEqual, g.stat)
	}
	if equal && !wasEqual && bit.IsSet(statLYCIrq, g.stat) {
		g.requestLCDStat = true
	}
}

// JustEnteredHBlank reports whether the most recent Tick crossed into
// H-Blank, the moment the system drives one HDMA H-Blank block transfer.
func (g *GPU) JustEnteredHBlank() bool {
	return g.justEnteredHB
}

// Read dispatches a CPU read over VRAM, OAM, and the LCD/CGB-palette
// register surface this package owns.
func (g *GPU) Read(address uint16) byte {
	switch {
	case address >= 0x8000 && address <= 0x9FFF:
		return g.vram[g.vramBnk][address-0x8000]
	case address >= 0xFE00 && address <= 0xFE9F:
		return g.oam[address-0xFE00]
	}

	switch address {
	case addr.LCDC:
		return g.lcdc
	case addr.STAT:
		return g.stat | 0x80
	case addr.SCY:
		return g.scy
	case addr.SCX:
		return g.scx
	case addr.LY:
		return g.ly
	case addr.LYC:
		return g.lyc
	case addr.BGP:
		return g.bgp
	case addr.OBP0:
		return g.obp0
	case addr.OBP1:
		return g.obp1
	case addr.WY:
		return g.wy
	case addr.WX:
		return g.wx
	case addr.VBK:
		if !g.mode.IsCGB() {
			return 0xFF
		}
		return g.vramBnk | 0xFE
	case addr.BCPS:
		if !g.mode.IsCGB() {
			return 0xFF
		}
		return g.bcps | 0x40
	case addr.BCPD:
		if !g.mode.IsCGB() {
			return 0xFF
		}
		return g.bgPalette[g.bcps&0x3F]
	case addr.OCPS:
		if !g.mode.IsCGB() {
			return 0xFF
		}
		return g.ocps | 0x40
	case addr.OCPD:
		if !g.mode.IsCGB() {
			return 0xFF
		}
		return g.objPalette[g.ocps&0x3F]
	}

	return 0xFF
}

// Write dispatches a CPU write over the same surface Read covers.
func (g *GPU) Write(address uint16, value byte) {
	switch {
	case address >= 0x8000 && address <= 0x9FFF:
		g.vram[g.vramBnk][address-0x8000] = value
		return
	case address >= 0xFE00 && address <= 0xFE9F:
		g.oam[address-0xFE00] = value
		return
	}

	switch address {
	case addr.LCDC:
		g.lcdc = value
	case addr.STAT:
		g.stat = (g.stat & 0x07) | (value &^ 0x07)
	case addr.SCY:
		g.scy = value
	case addr.SCX:
		g.scx = value
	case addr.LY:
		// read-only
	case addr.LYC:
		g.lyc = value
	case addr.BGP:
		g.bgp = value
	case addr.OBP0:
		g.obp0 = value
	case addr.OBP1:
		g.obp1 = value
	case addr.WY:
		g.wy = value
	case addr.WX:
		g.wx = value
	case addr.VBK:
		if g.mode.IsCGB() {
			g.vramBnk = value & 0x01
		}
	case addr.BCPS:
		if g.mode.IsCGB() {
			g.bcps = value & 0xBF
		}
	case addr.BCPD:
		if g.mode.IsCGB() {
			g.bgPalette[g.bcps&0x3F] = value
			if g.bcps&0x80 != 0 {
				g.bcps = (g.bcps & 0x80) | ((g.bcps + 1) & 0x3F)
			}
		}
	case addr.OCPS:
		if g.mode.IsCGB() {
			g.ocps = value & 0xBF
		}
	case addr.OCPD:
		if g.mode.IsCGB() {
			g.objPalette[g.ocps&0x3F] = value
			if g.ocps&0x80 != 0 {
				g.ocps = (g.ocps & 0x80) | ((g.ocps + 1) & 0x3F)
			}
		}
	}
}

// WriteOAMByte stores value at OAM index i, bypassing the CPU-facing write
// path's own masking (the oamdma engine owns that decision).
func (g *GPU) WriteOAMByte(i int, value byte) {
	g.oam[i] = value
}

// SetOAMDMAActive toggles the CPU-visible OAM masking flag the OAM-DMA
// engine drives across its startup delay and copy loop.
func (g *GPU) SetOAMDMAActive(active bool) {
	g.oamDMAActive = active
}

// OAMDMAActive reports the flag SetOAMDMAActive last set.
func (g *GPU) OAMDMAActive() bool {
	return g.oamDMAActive
}

// ConsumeVBlankInterrupt reports and clears the latched VBlank request.
func (g *GPU) ConsumeVBlankInterrupt() bool {
	p := g.requestVBlank
	g.requestVBlank = false
	return p
}

// PendingVBlankInterrupt reports the latched VBlank request without
// clearing it.
func (g *GPU) PendingVBlankInterrupt() bool {
	return g.requestVBlank
}

// SetPendingVBlankInterrupt lets the MMU's IF write path set or clear the
// latch directly.
func (g *GPU) SetPendingVBlankInterrupt(pending bool) {
	g.requestVBlank = pending
}

// ConsumeLCDStatInterrupt reports and clears the latched LCDSTAT request.
func (g *GPU) ConsumeLCDStatInterrupt() bool {
	p := g.requestLCDStat
	g.requestLCDStat = false
	return p
}

// PendingLCDStatInterrupt reports the latched LCDSTAT request without
// clearing it.
func (g *GPU) PendingLCDStatInterrupt() bool {
	return g.requestLCDStat
}

// SetPendingLCDStatInterrupt lets the MMU's IF write path set or clear the
// latch directly.
func (g *GPU) SetPendingLCDStatInterrupt(pending bool) {
	g.requestLCDStat = pending
}
