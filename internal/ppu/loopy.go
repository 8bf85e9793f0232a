package ppu

// vramAddr is the PPU's 15-bit composite VRAM address (the "loopy"
// register), packing {coarse_x:5, coarse_y:5, nametable_x:1,
// nametable_y:1, fine_y:3}. Implemented as accessor/mutator pairs around a
// single uint16, grounded on bdwalton-gintendo's ppu/loopy.go, per the
// design note that this preserves bit-exact scroll-increment semantics
// better than a struct of separate fields.
type vramAddr uint16

const (
	loopyCoarseXMask    = 0x001F
	loopyCoarseYShift   = 5
	loopyCoarseYMask    = 0x03E0
	loopyNametableXBit  = 1 << 10
	loopyNametableYBit  = 1 << 11
	loopyFineYShift     = 12
	loopyFineYMask      = 0x7000
	loopyAddrMask       = 0x7FFF
)

func (v vramAddr) coarseX() uint16 { return uint16(v) & loopyCoarseXMask }
func (v vramAddr) coarseY() uint16 { return (uint16(v) & loopyCoarseYMask) >> loopyCoarseYShift }
func (v vramAddr) nametableX() bool { return uint16(v)&loopyNametableXBit != 0 }
func (v vramAddr) nametableY() bool { return uint16(v)&loopyNametableYBit != 0 }
func (v vramAddr) fineY() uint16    { return (uint16(v) & loopyFineYMask) >> loopyFineYShift }
func (v vramAddr) raw() uint16      { return uint16(v) & loopyAddrMask }

func (v *vramAddr) setCoarseX(x uint16) {
	*v = vramAddr((uint16(*v) &^ loopyCoarseXMask) | (x & 0x1F))
}
func (v *vramAddr) setCoarseY(y uint16) {
	*v = vramAddr((uint16(*v) &^ loopyCoarseYMask) | ((y & 0x1F) << loopyCoarseYShift))
}
func (v *vramAddr) setNametableX(b bool) {
	if b {
		*v = vramAddr(uint16(*v) | loopyNametableXBit)
	} else {
		*v = vramAddr(uint16(*v) &^ loopyNametableXBit)
	}
}
func (v *vramAddr) setNametableY(b bool) {
	if b {
		*v = vramAddr(uint16(*v) | loopyNametableYBit)
	} else {
		*v = vramAddr(uint16(*v) &^ loopyNametableYBit)
	}
}
func (v *vramAddr) flipNametableX() { *v = vramAddr(uint16(*v) ^ loopyNametableXBit) }
func (v *vramAddr) flipNametableY() { *v = vramAddr(uint16(*v) ^ loopyNametableYBit) }
func (v *vramAddr) setFineY(y uint16) {
	*v = vramAddr((uint16(*v) &^ loopyFineYMask) | ((y & 0x07) << loopyFineYShift))
}
func (v *vramAddr) setRaw(x uint16) { *v = vramAddr(x & loopyAddrMask) }
