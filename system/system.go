// Package system is the composition root: it wires an MMU's collaborators
// together and drives them forward one host step at a time, in the fixed
// order real hardware's cooperative scheduling model requires.
package system

import (
	"github.com/valerio/gbcore/cartridge"
	"github.com/valerio/gbcore/hdma"
	"github.com/valerio/gbcore/mmu"
	"github.com/valerio/gbcore/mode"
	"github.com/valerio/gbcore/video"
)

// System owns the MMU and advances every peripheral it composes.
type System struct {
	mmu *mmu.MMU
}

// New builds a System for the given hardware mode and cartridge. CPU
// instruction execution is the caller's responsibility; System only
// advances the peripherals a CPU step's elapsed T-cycles would drive.
func New(hwMode mode.Mode, cart *cartridge.Cartridge, serialSink func(byte), opts ...mmu.Option) *System {
	return &System{mmu: mmu.New(hwMode, cart, serialSink, opts...)}
}

// MMU exposes the bus for the host's CPU-step reads/writes.
func (s *System) MMU() *mmu.MMU {
	return s.mmu
}

// Step advances every peripheral by the T-cycles a single CPU memory
// operation (or instruction) just consumed. Order: GPU, Timer, APU, then
// the DMA engines, matching the host step the MMU's composition assumes.
func (s *System) Step(cycles int) {
	gpu := s.mmu.GPU()

	gpu.Tick(cycles)
	s.mmu.Timer().Tick(cycles)
	s.mmu.APU().Tick(cycles)
	s.mmu.OAMDMA().Tick(s.mmu, gpu, cycles)
	s.stepHDMA(gpu)
}

func (s *System) stepHDMA(gpu *video.GPU) {
	h := s.mmu.HDMA()

	switch h.Kind() {
	case hdma.HBlank:
		if gpu.JustEnteredHBlank() {
			h.ConsumeNewHDMA()
			h.HBlankTick(s.mmu)
		}
	case hdma.GeneralPurpose:
		h.GDMATick(s.mmu)
	}
}

// SkipBootROM applies the post-boot register snapshot directly, letting a
// host start emulation without executing boot-ROM code.
func (s *System) SkipBootROM() {
	s.mmu.ApplyPostBootState()
}
