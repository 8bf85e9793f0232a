// Package ppu implements the NES 2C02 Picture Processing Unit: the
// register file, VRAM/nametable/palette storage, and the per-dot
// scanline rendering state machine (background shifters, foreground
// sprite pipeline, sprite-zero collision). Rebuilt from scratch against
// the cycle-accurate shift-register architecture the spec requires,
// since the teacher's own PPU computed pixels on demand rather than via
// shifters. Grounded on andrewthecodertx-go-nes-emulator's pkg/ppu (the
// bgShifterPatternLo/Hi, spriteShifterPatternLo/Hi naming and
// updateShifters/loadBackgroundShifters split), bdwalton-gintendo's
// ppu/loopy.go (the vram composite address pattern, see loopy.go), and
// the reference Rust implementation's exact per-dot ordering.
package ppu

import (
	"log"
	"os"

	"gones/internal/cartridge"
	"gones/internal/framebuffer"
	"gones/internal/palette"
)

// logger reports coarse lifecycle events only (reset); never called
// from the per-dot Clock hot path.
var logger = log.New(os.Stderr, "ppu: ", log.LstdFlags)

// Control register bits.
const (
	CtrlNametableX Control = 1 << iota
	CtrlNametableY
	CtrlIncrementMode
	CtrlPatternSprite
	CtrlPatternBackground
	CtrlSpriteSize
	CtrlSlaveMode
	CtrlEnableNMI
)

// Mask register bits.
const (
	MaskGrayscale Mask = 1 << iota
	MaskRenderBackgroundLeft
	MaskRenderSpritesLeft
	MaskRenderBackground
	MaskRenderSprites
	MaskEnhanceRed
	MaskEnhanceGreen
	MaskEnhanceBlue
)

// Status register bits.
const (
	StatusSpriteOverflow Status = 1 << 5
	StatusSpriteZeroHit  Status = 1 << 6
	StatusVerticalBlank  Status = 1 << 7
)

type Control uint8
type Mask uint8
type Status uint8

func (c Control) has(b Control) bool { return c&b != 0 }
func (m Mask) has(b Mask) bool       { return m&b != 0 }
func (s Status) has(b Status) bool   { return s&b != 0 }

// PPU is the 2C02 core.
type PPU struct {
	fb *framebuffer.Framebuffer

	cart *cartridge.Cartridge

	nameTable    [2][1024]uint8
	patternTable [2][4096]uint8
	paletteTable [32]uint8

	oam     oam
	oamAddr uint8

	control Control
	mask    Mask
	status  Status

	addressLatch  bool
	ppuDataBuffer uint8

	v vramAddr
	t vramAddr
	fineX uint8

	scanline int16
	dot      int16

	nmi            bool
	frameComplete  bool

	// background pipeline
	bgNextTileID     uint8
	bgNextTileAttrib uint8
	bgNextTileLSB    uint8
	bgNextTileMSB    uint8
	bgShifterPatternLo uint16
	bgShifterPatternHi uint16
	bgShifterAttribLo  uint16
	bgShifterAttribHi  uint16

	// foreground pipeline
	spriteScanline          [8]OAMEntry
	spriteCount             int
	spriteShifterPatternLo  [8]uint8
	spriteShifterPatternHi  [8]uint8
	spriteZeroHitPossible   bool
	spriteZeroBeingRendered bool
}

// New constructs a PPU writing into fb.
func New(fb *framebuffer.Framebuffer) *PPU {
	return &PPU{fb: fb, scanline: -1}
}

// InsertCartridge gives the PPU its half of the shared cartridge
// reference (the Bus holds the other half for CPU-side mapping).
func (p *PPU) InsertCartridge(cart *cartridge.Cartridge) { p.cart = cart }

// Reset returns the PPU to its power-on state.
func (p *PPU) Reset() {
	p.fineX = 0
	p.addressLatch = false
	p.ppuDataBuffer = 0
	p.scanline = -1
	p.dot = 0
	p.status = 0
	p.mask = 0
	p.control = 0
	p.v = 0
	p.t = 0
	p.bgShifterPatternLo, p.bgShifterPatternHi = 0, 0
	p.bgShifterAttribLo, p.bgShifterAttribHi = 0, 0
	p.spriteShifterPatternLo = [8]uint8{}
	p.spriteShifterPatternHi = [8]uint8{}
	logger.Print("reset")
}

// ScreenReady reports (and clears) the frame-complete flag, switching the
// framebuffer's work/draw halves when a frame just finished.
func (p *PPU) ScreenReady() bool {
	if !p.frameComplete {
		return false
	}
	p.frameComplete = false
	p.fb.Switch()
	return true
}

// InterruptSent reports whether the PPU has an NMI pending delivery.
func (p *PPU) InterruptSent() bool { return p.nmi }

// InterruptDone clears the pending NMI after the System has delivered it
// to the CPU.
func (p *PPU) InterruptDone() { p.nmi = false }

func (p *PPU) incrementScrollX() {
	if !(p.mask.has(MaskRenderBackground) || p.mask.has(MaskRenderSprites)) {
		return
	}
	if p.v.coarseX() == 31 {
		p.v.setCoarseX(0)
		p.v.flipNametableX()
	} else {
		p.v.setCoarseX(p.v.coarseX() + 1)
	}
}

func (p *PPU) incrementScrollY() {
	if !(p.mask.has(MaskRenderBackground) || p.mask.has(MaskRenderSprites)) {
		return
	}
	if p.v.fineY() < 7 {
		p.v.setFineY(p.v.fineY() + 1)
		return
	}
	p.v.setFineY(0)
	switch p.v.coarseY() {
	case 29:
		p.v.setCoarseY(0)
		p.v.flipNametableY()
	case 31:
		p.v.setCoarseY(0)
	default:
		p.v.setCoarseY(p.v.coarseY() + 1)
	}
}

func (p *PPU) transferAddressX() {
	if !(p.mask.has(MaskRenderBackground) || p.mask.has(MaskRenderSprites)) {
		return
	}
	p.v.setNametableX(p.t.nametableX())
	p.v.setCoarseX(p.t.coarseX())
}

func (p *PPU) transferAddressY() {
	if !(p.mask.has(MaskRenderBackground) || p.mask.has(MaskRenderSprites)) {
		return
	}
	p.v.setNametableY(p.t.nametableY())
	p.v.setCoarseY(p.t.coarseY())
	p.v.setFineY(p.t.fineY())
}

func (p *PPU) loadBackgroundShifters() {
	p.bgShifterPatternLo = (p.bgShifterPatternLo & 0xFF00) | uint16(p.bgNextTileLSB)
	p.bgShifterPatternHi = (p.bgShifterPatternHi & 0xFF00) | uint16(p.bgNextTileMSB)

	var attribLo, attribHi uint16
	if p.bgNextTileAttrib&0x01 != 0 {
		attribLo = 0xFF
	}
	if p.bgNextTileAttrib&0x02 != 0 {
		attribHi = 0xFF
	}
	p.bgShifterAttribLo = (p.bgShifterAttribLo & 0xFF00) | attribLo
	p.bgShifterAttribHi = (p.bgShifterAttribHi & 0xFF00) | attribHi
}

func (p *PPU) updateShifters() {
	if p.mask.has(MaskRenderBackground) {
		p.bgShifterPatternLo <<= 1
		p.bgShifterPatternHi <<= 1
		p.bgShifterAttribLo <<= 1
		p.bgShifterAttribHi <<= 1
	}
	if p.mask.has(MaskRenderSprites) && p.dot >= 1 && p.dot < 258 {
		for i := 0; i < p.spriteCount; i++ {
			if p.spriteScanline[i].X > 0 {
				p.spriteScanline[i].X--
			} else {
				p.spriteShifterPatternLo[i] <<= 1
				p.spriteShifterPatternHi[i] <<= 1
			}
		}
	}
}

// Clock advances the PPU by exactly one dot.
func (p *PPU) Clock() {
	switch {
	case p.scanline >= -1 && p.scanline <= 239:
		p.clockVisibleOrPrerender()
	case p.scanline == 240:
		// post-render: idle
	case p.scanline >= 241 && p.scanline <= 260:
		if p.scanline == 241 && p.dot == 1 {
			p.status |= StatusVerticalBlank
			if p.control.has(CtrlEnableNMI) {
				p.nmi = true
			}
		}
	}

	p.composeAndEmitPixel()

	p.dot++
	if p.dot >= 341 {
		p.dot = 0
		p.scanline++
		if p.scanline >= 261 {
			p.scanline = -1
			p.frameComplete = true
		}
	}
}

func (p *PPU) clockVisibleOrPrerender() {
	if p.scanline == 0 && p.dot == 0 {
		p.dot = 1 // odd-frame cycle skip
	}

	if p.scanline == -1 && p.dot == 1 {
		p.status &^= StatusVerticalBlank | StatusSpriteOverflow | StatusSpriteZeroHit
		p.spriteShifterPatternLo = [8]uint8{}
		p.spriteShifterPatternHi = [8]uint8{}
	}

	if (p.dot >= 2 && p.dot <= 257) || (p.dot >= 321 && p.dot <= 337) {
		p.updateShifters()
		switch (p.dot - 1) % 8 {
		case 0:
			p.loadBackgroundShifters()
			p.bgNextTileID = p.PPURead(0x2000 | (p.v.raw() & 0x0FFF))
		case 2:
			addr := uint16(0x23C0)
			if p.v.nametableY() {
				addr |= 1 << 11
			}
			if p.v.nametableX() {
				addr |= 1 << 10
			}
			addr |= (p.v.coarseY() >> 2) << 3
			addr |= p.v.coarseX() >> 2
			p.bgNextTileAttrib = p.PPURead(addr)
			if p.v.coarseY()&0x02 != 0 {
				p.bgNextTileAttrib >>= 4
			}
			if p.v.coarseX()&0x02 != 0 {
				p.bgNextTileAttrib >>= 2
			}
			p.bgNextTileAttrib &= 0x03
		case 4:
			base := uint16(0)
			if p.control.has(CtrlPatternBackground) {
				base = 1 << 12
			}
			p.bgNextTileLSB = p.PPURead(base + uint16(p.bgNextTileID)<<4 + p.v.fineY())
		case 6:
			base := uint16(0)
			if p.control.has(CtrlPatternBackground) {
				base = 1 << 12
			}
			p.bgNextTileMSB = p.PPURead(base + uint16(p.bgNextTileID)<<4 + p.v.fineY() + 8)
		case 7:
			p.incrementScrollX()
		}
	}

	if p.dot == 256 {
		p.incrementScrollY()
	}
	if p.dot == 257 {
		p.loadBackgroundShifters()
		p.transferAddressX()
	}
	if p.dot == 338 || p.dot == 340 {
		p.bgNextTileID = p.PPURead(0x2000 | (p.v.raw() & 0x0FFF))
	}
	if p.scanline == -1 && p.dot >= 280 && p.dot <= 304 {
		p.transferAddressY()
	}

	if p.dot == 257 && p.scanline >= 0 {
		p.evaluateSprites()
	}
	if p.dot == 340 {
		p.fetchSpritePatterns()
	}
}

// evaluateSprites runs sprite evaluation for the scanline that follows
// the current one, in one burst (the spec's documented non-cycle-accurate
// foreground simplification).
func (p *PPU) evaluateSprites() {
	for i := range p.spriteScanline {
		p.spriteScanline[i] = OAMEntry{0xFF, 0xFF, 0xFF, 0xFF}
	}
	p.spriteCount = 0
	p.spriteZeroHitPossible = false
	p.spriteShifterPatternLo = [8]uint8{}
	p.spriteShifterPatternHi = [8]uint8{}

	spriteHeight := int16(8)
	if p.control.has(CtrlSpriteSize) {
		spriteHeight = 16
	}

	for i := 0; i < 64; i++ {
		if p.spriteCount >= 9 {
			break
		}
		entry := p.oam.GetEntry(i)
		diff := p.scanline - int16(entry.Y)
		if diff >= 0 && diff < spriteHeight {
			if p.spriteCount < 8 {
				if i == 0 {
					p.spriteZeroHitPossible = true
				}
				p.spriteScanline[p.spriteCount] = entry
				p.spriteCount++
			} else {
				p.spriteCount++
			}
		}
	}
	p.status = statusSet(p.status, StatusSpriteOverflow, p.spriteCount > 8)
	if p.spriteCount > 8 {
		p.spriteCount = 8
	}
}

func statusSet(s Status, bit Status, on bool) Status {
	if on {
		return s | bit
	}
	return s &^ bit
}

func flipByte(b uint8) uint8 {
	b = (b&0xF0)>>4 | (b&0x0F)<<4
	b = (b&0xCC)>>2 | (b&0x33)<<2
	b = (b&0xAA)>>1 | (b&0x55)<<1
	return b
}

// fetchSpritePatterns extracts the row pattern bytes for every in-flight
// sprite at the end of the scanline (dot 340), per the spec's
// non-cycle-accurate foreground fetch.
func (p *PPU) fetchSpritePatterns() {
	for i := 0; i < p.spriteCount; i++ {
		sprite := p.spriteScanline[i]
		var lowAddr uint16

		flippedV := sprite.Attribute&0x80 != 0
		rowInSprite := p.scanline - int16(sprite.Y)

		if !p.control.has(CtrlSpriteSize) {
			row := uint16(rowInSprite)
			if flippedV {
				row = 7 - row
			}
			base := uint16(0)
			if p.control.has(CtrlPatternSprite) {
				base = 1 << 12
			}
			lowAddr = base | uint16(sprite.TileID)<<4 | row
		} else {
			topHalf := rowInSprite < 8
			if flippedV {
				topHalf = !topHalf
			}
			row := uint16(rowInSprite) & 0x07
			if flippedV {
				row = 7 - row
			}
			tile := uint16(sprite.TileID) & 0xFE
			if !topHalf {
				tile++
			}
			lowAddr = (uint16(sprite.TileID)&0x01)<<12 | tile<<4 | row
		}

		lo := p.PPURead(lowAddr)
		hi := p.PPURead(lowAddr + 8)

		if sprite.Attribute&0x40 != 0 {
			lo = flipByte(lo)
			hi = flipByte(hi)
		}
		p.spriteShifterPatternLo[i] = lo
		p.spriteShifterPatternHi[i] = hi
	}
}

func (p *PPU) composeAndEmitPixel() {
	var bgPixel, bgPalette uint8
	if p.mask.has(MaskRenderBackground) {
		bitMux := uint16(0x8000) >> p.fineX
		p0 := uint8(0)
		if p.bgShifterPatternLo&bitMux != 0 {
			p0 = 1
		}
		p1 := uint8(0)
		if p.bgShifterPatternHi&bitMux != 0 {
			p1 = 1
		}
		bgPixel = (p1 << 1) | p0

		pal0 := uint8(0)
		if p.bgShifterAttribLo&bitMux != 0 {
			pal0 = 1
		}
		pal1 := uint8(0)
		if p.bgShifterAttribHi&bitMux != 0 {
			pal1 = 1
		}
		bgPalette = (pal1 << 1) | pal0
	}

	var fgPixel, fgPalette uint8
	fgPriority := false
	if p.mask.has(MaskRenderSprites) {
		p.spriteZeroBeingRendered = false
		for i := 0; i < p.spriteCount; i++ {
			if p.spriteScanline[i].X != 0 {
				continue
			}
			lo := uint8(0)
			if p.spriteShifterPatternLo[i]&0x80 != 0 {
				lo = 1
			}
			hi := uint8(0)
			if p.spriteShifterPatternHi[i]&0x80 != 0 {
				hi = 1
			}
			fgPixel = (hi << 1) | lo
			fgPalette = (p.spriteScanline[i].Attribute & 0x03) + 4
			fgPriority = p.spriteScanline[i].Attribute&0x20 == 0
			if fgPixel != 0 {
				if i == 0 {
					p.spriteZeroBeingRendered = true
				}
				break
			}
		}
	}

	var pixel, pal uint8
	switch {
	case bgPixel == 0 && fgPixel == 0:
		pixel, pal = 0, 0
	case bgPixel == 0 && fgPixel != 0:
		pixel, pal = fgPixel, fgPalette
	case bgPixel != 0 && fgPixel == 0:
		pixel, pal = bgPixel, bgPalette
	default:
		if fgPriority {
			pixel, pal = fgPixel, fgPalette
		} else {
			pixel, pal = bgPixel, bgPalette
		}
		if p.spriteZeroHitPossible && p.spriteZeroBeingRendered &&
			p.mask.has(MaskRenderBackground) && p.mask.has(MaskRenderSprites) {
			leftEdgeMasked := !(p.mask.has(MaskRenderBackgroundLeft) && p.mask.has(MaskRenderSpritesLeft))
			if leftEdgeMasked {
				if p.dot >= 9 && p.dot < 258 {
					p.status |= StatusSpriteZeroHit
				}
			} else if p.dot >= 1 && p.dot < 258 {
				p.status |= StatusSpriteZeroHit
			}
		}
	}

	x := int(p.dot) - 1
	y := int(p.scanline)
	if x >= 0 && x < framebuffer.Width && y >= 0 && y < framebuffer.Height {
		idx := p.PPURead(0x3F00+uint16(pal)*4+uint16(pixel)) & 0x3F
		p.fb.SetPixel(x, y, palette.Lookup(idx))
	}
}

// CPUWrite handles a write to one of the 8 PPU registers, mirrored across
// [0x2000, 0x3FFF] by addr&7.
func (p *PPU) CPUWrite(reg uint16, data uint8) {
	switch reg & 7 {
	case 0: // Control
		p.control = Control(data)
		p.t.setNametableX(p.control.has(CtrlNametableX))
		p.t.setNametableY(p.control.has(CtrlNametableY))
	case 1: // Mask
		p.mask = Mask(data)
	case 2: // Status: no effect
	case 3: // OAM Address
		p.oamAddr = data
	case 4: // OAM Data: no oam_addr increment, matches the reference source
		p.oam.SetByte(p.oamAddr, data)
	case 5: // Scroll
		if !p.addressLatch {
			p.fineX = data & 0x07
			p.t.setCoarseX(uint16(data) >> 3)
			p.addressLatch = true
		} else {
			p.t.setFineY(uint16(data) & 0x07)
			p.t.setCoarseY(uint16(data) >> 3)
			p.addressLatch = false
		}
	case 6: // PPU Address
		if !p.addressLatch {
			p.t.setRaw((uint16(data)&0x3F)<<8 | (p.t.raw() & 0x00FF))
			p.addressLatch = true
		} else {
			p.t.setRaw((p.t.raw() & 0xFF00) | uint16(data))
			p.v = p.t
			p.addressLatch = false
		}
	case 7: // PPU Data
		p.PPUWrite(p.v.raw(), data)
		p.v.setRaw(p.v.raw() + p.vramIncrement())
	}
}

// CPURead handles a read from one of the 8 PPU registers.
func (p *PPU) CPURead(reg uint16) uint8 {
	var data uint8
	switch reg & 7 {
	case 2: // Status
		data = (uint8(p.status) & 0xE0) | (p.ppuDataBuffer & 0x1F)
		p.status &^= StatusVerticalBlank
		p.addressLatch = false
	case 4: // OAM Data
		data = p.oam.GetByte(p.oamAddr)
	case 7: // PPU Data
		data = p.ppuDataBuffer
		p.ppuDataBuffer = p.PPURead(p.v.raw())
		if p.v.raw() >= 0x3F00 {
			data = p.ppuDataBuffer
		}
		p.v.setRaw(p.v.raw() + p.vramIncrement())
	}
	return data
}

// DMAWrite is OAM DMA's direct byte-at-a-time path into Object Attribute
// Memory, bypassing the OAMADDR/OAMDATA register pair the CPU uses.
func (p *PPU) DMAWrite(addr uint8, data uint8) {
	p.oam.SetByte(addr, data)
}

func (p *PPU) vramIncrement() uint16 {
	if p.control.has(CtrlIncrementMode) {
		return 32
	}
	return 1
}

// PPURead is the PPU's own address space: pattern tables, nametables
// (mirrored per cartridge mirroring mode), and palette RAM.
func (p *PPU) PPURead(addr uint16) uint8 {
	addr &= 0x3FFF

	if v, ok := p.cart.PPUMapRead(addr); ok {
		return v
	}

	switch {
	case addr <= 0x1FFF:
		return p.patternTable[(addr&0x1000)>>12][addr&0x0FFF]
	case addr <= 0x3EFF:
		return p.readNametable(addr)
	default:
		return p.paletteTable[p.paletteIndex(addr)] & p.paletteReadMask()
	}
}

// PPUWrite mirrors PPURead's address decode for writes.
func (p *PPU) PPUWrite(addr uint16, data uint8) {
	addr &= 0x3FFF

	if p.cart.PPUMapWrite(addr, data) {
		return
	}

	switch {
	case addr <= 0x1FFF:
		p.patternTable[(addr&0x1000)>>12][addr&0x0FFF] = data
	case addr <= 0x3EFF:
		p.writeNametable(addr, data)
	default:
		p.paletteTable[p.paletteIndex(addr)] = data
	}
}

func (p *PPU) paletteIndex(addr uint16) uint16 {
	idx := addr & 0x1F
	switch idx {
	case 0x10, 0x14, 0x18, 0x1C:
		return idx & 0x0C
	default:
		return idx
	}
}

func (p *PPU) paletteReadMask() uint8 {
	if p.mask.has(MaskGrayscale) {
		return 0x30
	}
	return 0x3F
}

func (p *PPU) readNametable(addr uint16) uint8 {
	nt, idx := p.nametableSlot(addr)
	return p.nameTable[nt][idx]
}

func (p *PPU) writeNametable(addr uint16, data uint8) {
	nt, idx := p.nametableSlot(addr)
	p.nameTable[nt][idx] = data
}

func (p *PPU) nametableSlot(addr uint16) (int, uint16) {
	low := addr & 0x0FFF
	idx := addr & 0x03FF
	switch p.cart.Mirror {
	case cartridge.MirrorVertical:
		if low <= 0x03FF || (low >= 0x0800 && low <= 0x0BFF) {
			return 0, idx
		}
		return 1, idx
	default: // Horizontal (and one-screen modes, which mapper 0 never selects)
		if low <= 0x07FF {
			return 0, idx
		}
		return 1, idx
	}
}
