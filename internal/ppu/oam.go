package ppu

// OAMEntry is one sprite's 4-byte record. Memory order is y, tile_id,
// attribute, x - DMA relies on this byte order.
type OAMEntry struct {
	Y         uint8
	TileID    uint8
	Attribute uint8
	X         uint8
}

// oam is Object Attribute Memory: 256 bytes, addressable by byte index
// (DMA writes byte-at-a-time) or by 4-byte entry index (sprite evaluation
// reads entry-at-a-time).
type oam struct {
	bytes [256]uint8
}

func (o *oam) GetByte(addr uint8) uint8     { return o.bytes[addr] }
func (o *oam) SetByte(addr uint8, v uint8)  { o.bytes[addr] = v }

func (o *oam) GetEntry(index int) OAMEntry {
	base := index * 4
	return OAMEntry{
		Y:         o.bytes[base],
		TileID:    o.bytes[base+1],
		Attribute: o.bytes[base+2],
		X:         o.bytes[base+3],
	}
}
