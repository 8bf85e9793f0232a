package ppu

import (
	"gones/internal/cartridge"
	"gones/internal/framebuffer"
	"testing"
)

func newTestPPU() *PPU {
	fb := framebuffer.New()
	p := New(fb)
	cart := cartridge.New(make([]uint8, 0x4000), make([]uint8, 0x2000), true, cartridge.MirrorHorizontal, 0)
	p.InsertCartridge(cart)
	return p
}

func TestStatusReadClearsVBlankAndLatch(t *testing.T) {
	p := newTestPPU()
	p.status = StatusVerticalBlank
	p.addressLatch = true
	data := p.CPURead(2)
	if data&0x80 == 0 {
		t.Fatalf("status read should report vblank bit set, got %#x", data)
	}
	if p.status.has(StatusVerticalBlank) {
		t.Fatalf("reading status should clear vertical blank")
	}
	if p.addressLatch {
		t.Fatalf("reading status should reset the address latch")
	}
}

func TestPPUAddrWriteTwoStepThenDataAutoIncrement(t *testing.T) {
	p := newTestPPU()
	p.CPUWrite(6, 0x20) // high byte
	p.CPUWrite(6, 0x00) // low byte -> v = 0x2000
	if p.v.raw() != 0x2000 {
		t.Fatalf("v = %#x, want 0x2000", p.v.raw())
	}
	p.PPUWrite(0x2000, 0x42)
	p.CPURead(7) // buffered, returns stale value and primes buffer
	data := p.CPURead(7)
	if data != 0x42 {
		t.Fatalf("PPUDATA read = %#x, want 0x42", data)
	}
	if p.v.raw() != 0x2002 {
		t.Fatalf("v after two reads = %#x, want 0x2002 (increment 1)", p.v.raw())
	}
}

func TestPaletteMirroring(t *testing.T) {
	p := newTestPPU()
	p.PPUWrite(0x3F00, 0x0F)
	if got := p.PPURead(0x3F10); got != 0x0F {
		t.Fatalf("palette mirror 0x3F10 = %#x, want 0x0F (aliases 0x3F00)", got)
	}
}

func TestNametableMirroringHorizontal(t *testing.T) {
	p := newTestPPU()
	p.cart.Mirror = cartridge.MirrorHorizontal
	p.PPUWrite(0x2000, 0x11)
	if got := p.PPURead(0x2400); got != 0x11 {
		t.Fatalf("horizontal mirroring: 0x2400 should alias 0x2000, got %#x", got)
	}
	if got := p.PPURead(0x2800); got == 0x11 {
		t.Fatalf("horizontal mirroring: 0x2800 should be the second physical page")
	}
}

func TestSpriteZeroHitFlagSetWhenOverlapping(t *testing.T) {
	p := newTestPPU()
	p.mask = MaskRenderBackground | MaskRenderSprites | MaskRenderBackgroundLeft | MaskRenderSpritesLeft
	p.spriteZeroHitPossible = true
	p.spriteZeroBeingRendered = true
	p.dot = 100
	p.bgShifterPatternLo = 0x8000
	p.spriteShifterPatternLo[0] = 0x80
	p.spriteCount = 1
	p.composeAndEmitPixel()
	if !p.status.has(StatusSpriteZeroHit) {
		t.Fatalf("overlapping opaque background and sprite-zero pixel should set sprite zero hit")
	}
}

func TestFrameCompletesAfterFullScanlineSweep(t *testing.T) {
	p := newTestPPU()
	for i := 0; i < 341*262+2; i++ {
		p.Clock()
	}
	if !p.ScreenReady() {
		t.Fatalf("expected a completed frame after a full scanline sweep")
	}
}
