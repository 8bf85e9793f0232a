package bus

import (
	"gones/internal/cartridge"
	"gones/internal/framebuffer"
	"gones/internal/ppu"
	"testing"
)

func newTestBus() *Bus {
	fb := framebuffer.New()
	p := ppu.New(fb)
	b := New(p)
	cart := cartridge.New(make([]uint8, 0x8000), make([]uint8, 0x2000), true, cartridge.MirrorHorizontal, 0)
	b.InsertCartridge(cart)
	return b
}

func TestRAMMirroring(t *testing.T) {
	b := newTestBus()
	b.Write(0x0000, 0x55)
	if got := b.Read(0x0800); got != 0x55 {
		t.Fatalf("0x0800 should mirror 0x0000, got %#x", got)
	}
	if got := b.Read(0x1800); got != 0x55 {
		t.Fatalf("0x1800 should mirror 0x0000, got %#x", got)
	}
}

func TestPPURegisterMirroring(t *testing.T) {
	b := newTestBus()
	b.Write(0x2006, 0x20) // PPUADDR high byte, via the mirrored 0x2006
	b.Write(0x200E, 0x00) // PPUADDR low byte, via the 0x2006 mirror at +8
	b.Write(0x2007, 0x7E) // PPUDATA write to VRAM 0x2000
	b.Write(0x2006, 0x20)
	b.Write(0x200E, 0x00)
	b.Read(0x2007) // primes the read buffer
	if got := b.Read(0x200F); got != 0x7E {
		t.Fatalf("PPUDATA read through the 0x2007 mirror = %#x, want 0x7E", got)
	}
}

func TestControllerStrobeAndSerialRead(t *testing.T) {
	b := newTestBus()
	b.Controllers[0].SetState(uint8(1) << 7) // B pressed only (bit7)
	b.Write(0x4016, 0x01)
	first := b.Read(0x4016)
	if first != 1 {
		t.Fatalf("first bit out should be B=1, got %d", first)
	}
	for i := 0; i < 6; i++ {
		b.Read(0x4016)
	}
	last := b.Read(0x4016)
	if last != 0 {
		t.Fatalf("eighth bit out should be Right=0, got %d", last)
	}
}

func TestDMATransferCopiesPageIntoOAM(t *testing.T) {
	b := newTestBus()
	for i := 0; i < 256; i++ {
		b.RAM.WriteMirrored(uint16(i), uint8(i), 0x07FF)
	}
	b.Write(0x4014, 0x00) // page 0 -> source 0x0000-0x00FF

	clock := uint32(0)
	for b.TreatDMATransfer(clock) {
		clock++
	}

	b.PPU.CPUWrite(3, 0x10) // OAMADDR = 0x10
	got := b.PPU.CPURead(4) // OAMDATA
	if got != 0x10 {
		t.Fatalf("OAM[0x10] after DMA = %#x, want 0x10", got)
	}
}

func TestDMADoesNotClaimBusWhenIdle(t *testing.T) {
	b := newTestBus()
	if b.TreatDMATransfer(0) {
		t.Fatalf("no DMA should be in progress initially")
	}
}
