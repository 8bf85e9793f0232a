// Package system assembles the CPU, Bus, and PPU into the console's
// top-level clock orchestration: the PPU ticks every dot, the CPU (or an
// in-progress OAM DMA) ticks every third dot, and a PPU-raised NMI is
// delivered to the CPU once per occurrence. Grounded on the reference
// Rust implementation's system/mod.rs, translated directly since it is
// itself already a small, mechanical loop.
package system

import (
	"gones/internal/bus"
	"gones/internal/cartridge"
	"gones/internal/cpu"
	"gones/internal/framebuffer"
	"gones/internal/ppu"
)

// System owns the whole console: CPU, Bus (which in turn owns RAM, PPU,
// controllers, and the cartridge), and the framebuffer the PPU renders
// into.
type System struct {
	CPU *cpu.CPU
	Bus *bus.Bus

	fb *framebuffer.Framebuffer

	clockCounter uint32
}

// New constructs a System with a fresh framebuffer, PPU, Bus, and CPU,
// wired together but with no cartridge inserted yet.
func New() *System {
	fb := framebuffer.New()
	p := ppu.New(fb)
	b := bus.New(p)
	c := cpu.New(b)

	return &System{
		CPU: c,
		Bus: b,
		fb:  fb,
	}
}

// InsertCartridge gives the Bus (and transitively the PPU) the cartridge,
// then resets the system to its power-on state.
func (s *System) InsertCartridge(cart *cartridge.Cartridge) {
	s.Bus.InsertCartridge(cart)
	s.Reset()
}

// Reset returns the CPU, Bus, and clock counter to power-on state.
func (s *System) Reset() {
	s.CPU.Reset()
	s.Bus.Reset()
	s.clockCounter = 0
}

// Framebuffer exposes the pixel buffer the PPU composites into; callers
// should read it only after NextFrame returns.
func (s *System) Framebuffer() *framebuffer.Framebuffer { return s.fb }

// Clock advances every subsystem by exactly one PPU dot: the PPU always
// clocks, the CPU (or an in-flight DMA transfer) clocks every third dot,
// and a PPU-raised NMI is delivered to the CPU the instant it appears.
func (s *System) Clock() {
	s.Bus.PPU.Clock()

	if s.clockCounter%3 == 0 {
		if !s.Bus.TreatDMATransfer(s.clockCounter) {
			s.CPU.Clock()
		}
	}

	if s.Bus.PPU.InterruptSent() {
		s.Bus.PPU.InterruptDone()
		s.CPU.NMI()
	}

	s.clockCounter++
}

// NextFrame clocks the system until the PPU completes a full frame, then
// returns the framebuffer holding it.
func (s *System) NextFrame() *framebuffer.Framebuffer {
	for !s.Bus.PPU.ScreenReady() {
		s.Clock()
	}
	return s.fb
}

// SetControllerState overwrites controller i's live button bitfield for
// the next strobe; the host calls this once per frame before NextFrame.
func (s *System) SetControllerState(i int, buttons uint8) {
	s.Bus.Controllers[i].SetState(buttons)
}
