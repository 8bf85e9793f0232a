package system

import (
	"gones/internal/cartridge"
	"testing"
)

func newTestSystem() *System {
	s := New()
	prg := make([]uint8, 0x8000)
	// reset vector -> 0x8000
	prg[0x7FFC] = 0x00
	prg[0x7FFD] = 0x80
	// NMI vector -> 0x9000
	prg[0x7FFA] = 0x00
	prg[0x7FFB] = 0x90
	cart := cartridge.New(prg, make([]uint8, 0x2000), true, cartridge.MirrorHorizontal, 0)
	s.InsertCartridge(cart)
	return s
}

func TestResetVectorsPCIntoCartridge(t *testing.T) {
	s := newTestSystem()
	if s.CPU.RegPC() != 0x8000 {
		t.Fatalf("PC after reset = %#x, want 0x8000", s.CPU.RegPC())
	}
}

func TestVBlankNMIDeliveredWhenEnabled(t *testing.T) {
	s := newTestSystem()
	s.Bus.PPU.CPUWrite(0, 0x80) // PPUCTRL: enable NMI

	pcBefore := s.CPU.RegPC()
	_ = pcBefore

	// Clock until the PPU reaches scanline 241 dot 1 and raises NMI: the
	// pre-render line, 240 visible lines and the post-render line are
	// 242*341 dots, less the one dot skipped at scanline 0.
	for i := 0; i < 242*341+2; i++ {
		s.Clock()
	}

	if s.CPU.RegPC() != 0x9000 {
		t.Fatalf("PC = %#x, expected NMI to load the NMI vector 0x9000", s.CPU.RegPC())
	}
}

func TestNextFrameAdvancesOneFullFrame(t *testing.T) {
	s := newTestSystem()
	fb := s.NextFrame()
	if fb == nil {
		t.Fatalf("NextFrame returned nil framebuffer")
	}
}
