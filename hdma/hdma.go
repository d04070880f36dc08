// Package hdma implements the CGB general-purpose and H-Blank VRAM DMA
// engine driven through HDMA1-5.
package hdma

// Kind identifies which of the two HDMA transfer modes is armed.
type Kind uint8

const (
	// None means no transfer is in progress.
	None Kind = iota
	// GeneralPurpose transfers one 16-byte block per GDMATick call.
	GeneralPurpose
	// HBlank transfers one 16-byte block per H-Blank via HBlankTick.
	HBlank
)

// Bus is the narrow read/write surface the engine needs from the MMU to
// move bytes from the source into VRAM.
type Bus interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
}

// HDMA is the CGB HDMA engine state. It is inert on DMG:
// the MMU never advances it and its register writes are rejected there.
type HDMA struct {
	kind Kind
	src  uint16
	dst  uint16

	// blocks is the number of remaining 16-byte blocks minus one, 0-127.
	blocks uint8

	// newHDMA is an edge flag set when an H-Blank transfer is just armed;
	// the GPU consumes (clears) it on acknowledgement before the first
	// HBlankTick call.
	newHDMA bool
}

// New creates an idle HDMA engine.
func New() *HDMA {
	return &HDMA{}
}

// Kind reports the currently armed transfer mode.
func (h *HDMA) Kind() Kind {
	return h.kind
}

// Active reports whether a transfer (of either kind) is in progress.
func (h *HDMA) Active() bool {
	return h.kind != None
}

// Src returns the current source address.
func (h *HDMA) Src() uint16 {
	return h.src
}

// Dst returns the current destination address, always folded into the
// 0x8000-0x9FF0 VRAM range regardless of what the raw register bits hold
// regardless of the raw register bits.
func (h *HDMA) Dst() uint16 {
	return 0x8000 | (h.dst & 0x1FFF)
}

// ConsumeNewHDMA reports and clears the H-Blank-armed edge flag.
func (h *HDMA) ConsumeNewHDMA() bool {
	v := h.newHDMA
	h.newHDMA = false
	return v
}

// RemainingBlocks returns the blocks-1 encoding HDMA5 reports while a
// transfer is active.
func (h *HDMA) RemainingBlocks() uint8 {
	return h.blocks
}

// WriteSrcHigh handles an HDMA1 write: the low nibble of the composed
// source address is always forced to zero.
func (h *HDMA) WriteSrcHigh(value byte) {
	h.src = (h.src & 0x00F0) | (uint16(value) << 8)
}

// WriteSrcLow handles an HDMA2 write: only the top nibble of the written
// byte participates, low nibble forced to zero.
func (h *HDMA) WriteSrcLow(value byte) {
	h.src = (h.src & 0xFF00) | uint16(value&0xF0)
}

// WriteDstHigh handles an HDMA3 write: destination is always interpreted
// within VRAM (0x8000-0x9FF0), low nibble forced to zero.
func (h *HDMA) WriteDstHigh(value byte) {
	h.dst = (h.dst & 0x00F0) | (uint16(value) << 8)
}

// WriteDstLow handles an HDMA4 write: low nibble forced to zero, only the
// top nibble of the written byte participates.
func (h *HDMA) WriteDstLow(value byte) {
	h.dst = (h.dst & 0x1F00) | uint16(value&0xF0)
}

// WriteControl handles an HDMA5 write. Bit 7 selects the kind: 0 arms a
// general-purpose transfer, 1 arms an H-Blank transfer and sets the
// newHDMA edge flag. Writing with bit 7 clear while an H-Blank transfer is
// active terminates that transfer instead of arming a new one.
func (h *HDMA) WriteControl(value byte) {
	hblankRequested := value&0x80 != 0

	if !hblankRequested && h.kind == HBlank {
		h.kind = None
		return
	}

	h.blocks = value & 0x7F
	if hblankRequested {
		h.kind = HBlank
		h.newHDMA = true
	} else {
		h.kind = GeneralPurpose
	}
}

// ReadControl returns the HDMA5 read value: remaining blocks while a
// transfer is in progress, 0x80 when idle. After a terminated H-Blank
// transfer, blocks still reflects the last remaining count with bit 7 set.
func (h *HDMA) ReadControl() byte {
	if h.kind == None {
		return h.blocks | 0x80
	}
	return h.blocks
}

// GDMATick performs one 16-byte general-purpose block transfer per call.
// The host calls it once per block while stalling the CPU for the
// equivalent of blocks*8 M-cycles.
func (h *HDMA) GDMATick(bus Bus) {
	if h.kind != GeneralPurpose {
		return
	}
	h.copyBlock(bus)
}

// HBlankTick performs one 16-byte block transfer, meant to be called once
// per H-Blank while an H-Blank transfer is armed.
func (h *HDMA) HBlankTick(bus Bus) {
	if h.kind != HBlank {
		return
	}
	h.copyBlock(bus)
}

func (h *HDMA) copyBlock(bus Bus) {
	for i := 0; i < 16; i++ {
		value := bus.Read(h.src)
		bus.Write(0x8000|(h.dst&0x1FFF), value)
		h.src++
		h.dst++
	}

	h.blocks--
	if h.blocks == 0xFF { // underflowed from 0
		h.blocks = 0
		h.kind = None
	}
}
