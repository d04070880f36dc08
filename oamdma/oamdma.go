// Package oamdma implements the sprite-DMA engine: a 160-byte copy from an
// arbitrary source page into OAM, with the cycle-accurate startup delay and
// restart semantics real hardware exhibits.
package oamdma

// Bus is the narrow read surface the OAM-DMA engine needs from the MMU to
// fetch source bytes. It is satisfied by the MMU itself.
type Bus interface {
	Read(address uint16) byte
}

// Target is the OAM-owning collaborator (the GPU) the engine writes into
// and whose visibility flag it toggles while a transfer is in flight.
type Target interface {
	// WriteOAMByte stores value at OAM index i (0-159), bypassing the
	// normal CPU-facing OAM write path (which is masked during DMA).
	WriteOAMByte(i int, value byte)
	// SetOAMDMAActive toggles the flag the MMU consults to mask CPU OAM
	// reads/writes while a transfer is in flight.
	SetOAMDMAActive(active bool)
}

// DMA is the OAM-DMA engine state.
type DMA struct {
	active            bool
	srcBase           uint16
	index             int
	justLaunched      bool
	restarting        bool
	accumulatedCycles int
}

// New creates an idle OAM-DMA engine.
func New() *DMA {
	return &DMA{}
}

// Active reports whether a transfer is in progress (including its startup
// window).
func (d *DMA) Active() bool {
	return d.active
}

// Restarting reports whether the engine is in the brief window between a
// restart trigger and its fresh startup delay completing. The MMU's OAM
// read/write masking must OR this in alongside the GPU's own
// OAMDMAActive flag, since the GPU flag is intentionally dropped for that
// window (see Tick).
func (d *DMA) Restarting() bool {
	return d.restarting
}

// SourceHigh returns the high byte of the current source address, as read
// back from 0xFF46.
func (d *DMA) SourceHigh() byte {
	return byte(d.srcBase >> 8)
}

// Activate starts (or restarts) a transfer from srcHigh<<8. A restart
// while already active replaces the source but still incurs a fresh
// 4-cycle startup delay; a cold start does the same.
func (d *DMA) Activate(target Target, srcHigh byte) {
	if d.accumulatedCycles > 0 {
		d.restarting = true
		target.SetOAMDMAActive(false)
	} else {
		d.justLaunched = true
	}

	d.accumulatedCycles = 0
	d.index = 0
	d.active = true
	d.srcBase = uint16(srcHigh) << 8
}

// Tick advances the engine by cycles T-cycles: 4 cycles of startup delay
// (after which gpu.OAMDMAActive is raised) followed by one source-byte
// copy per 4 cycles, aliasing sources >= 0xE000 into WRAM the way echo RAM
// does for CPU accesses.
func (d *DMA) Tick(bus Bus, target Target, cycles int) {
	if !d.active {
		return
	}
	if d.index == 160 {
		d.deactivate(target)
		return
	}

	d.accumulatedCycles += cycles

	if (d.restarting || d.justLaunched) && d.accumulatedCycles >= 4 {
		d.accumulatedCycles -= 4
		target.SetOAMDMAActive(true)
		d.restarting = false
		d.justLaunched = false
	}

	for d.accumulatedCycles >= 4 && d.index < 160 {
		d.accumulatedCycles -= 4

		fetch := d.srcBase
		if fetch >= 0xE000 {
			fetch &^= 0x2000
		}

		target.WriteOAMByte(d.index, bus.Read(fetch))
		d.srcBase++
		d.index++
	}
}

func (d *DMA) deactivate(target Target) {
	d.active = false
	d.justLaunched = false
	d.restarting = false
	d.accumulatedCycles = 0
	target.SetOAMDMAActive(false)
}
