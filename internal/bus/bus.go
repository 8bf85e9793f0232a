// Package bus wires together RAM, the PPU, the two controller ports, and
// the cartridge behind the CPU's 16-bit address space, and runs the OAM
// DMA state machine triggered by a write to $4014. Grounded on the
// reference Rust implementation's system/bus/mod.rs: cartridge gets
// first refusal on every CPU access (mapper ranges), then RAM
// ($0000-$1FFF, mirrored every 2KB), PPU registers ($2000-$3FFF, mirrored
// every 8 bytes), the DMA trigger register ($4014), and the two
// controller ports ($4016-$4017); everything else is open bus (reads
// 0, writes ignored).
package bus

import (
	"log"
	"os"

	"gones/internal/cartridge"
	"gones/internal/controller"
	"gones/internal/ppu"
	"gones/internal/ram"
)

// logger reports coarse lifecycle events only (cartridge inserted,
// reset); never called from Read/Write, which stay on the hot path.
var logger = log.New(os.Stderr, "bus: ", log.LstdFlags)

const (
	ramAddrStart uint16 = 0x0000
	ramAddrEnd   uint16 = 0x1FFF
	ramMirror    uint16 = 0x07FF

	ppuAddrStart uint16 = 0x2000
	ppuAddrEnd   uint16 = 0x3FFF

	dmaAddr uint16 = 0x4014

	ctrlAddrStart uint16 = 0x4016
	ctrlAddrEnd   uint16 = 0x4017
)

// Bus is every device a 6502 instruction can touch.
type Bus struct {
	PPU *ppu.PPU
	RAM *ram.RAM

	Controllers      [2]*controller.Controller
	controllerShadow [2]uint8

	cart *cartridge.Cartridge

	dma dmaState
}

type dmaState struct {
	page  uint8
	addr  uint8
	data  uint8

	transfer bool
	dummy    bool
}

// New builds a Bus around an already-constructed PPU (the System owns
// the framebuffer the PPU draws into). InsertCartridge must be called
// before Read/Write are used.
func New(p *ppu.PPU) *Bus {
	b := &Bus{
		PPU: p,
		RAM: ram.New(),
		dma: dmaState{dummy: true},
	}
	for i := range b.Controllers {
		b.Controllers[i] = controller.New()
	}
	return b
}

// InsertCartridge gives the Bus its half of the shared cartridge
// reference and hands the PPU its half too.
func (b *Bus) InsertCartridge(cart *cartridge.Cartridge) {
	b.cart = cart
	b.PPU.InsertCartridge(cart)
	logger.Printf("cartridge inserted: mirror=%v prg=%dKB chr=%dKB", cart.Mirror, len(cart.PRG)/1024, len(cart.CHR)/1024)
}

// Reset returns the PPU and the DMA state machine to power-on defaults.
func (b *Bus) Reset() {
	b.PPU.Reset()
	b.dma = dmaState{dummy: true}
	logger.Print("reset")
}

// Write dispatches a CPU-space write, giving the cartridge mapper first
// refusal before falling through to RAM, PPU registers, DMA trigger, or
// controller strobe.
func (b *Bus) Write(addr uint16, data uint8) {
	if b.cart.CPUMapWrite(addr, data) {
		return
	}

	switch {
	case addr >= ramAddrStart && addr <= ramAddrEnd:
		b.RAM.WriteMirrored(addr, data, ramMirror)
	case addr >= ppuAddrStart && addr <= ppuAddrEnd:
		b.PPU.CPUWrite(addr&0x07, data)
	case addr == dmaAddr:
		b.dma.page = data
		b.dma.addr = 0x00
		b.dma.transfer = true
	case addr >= ctrlAddrStart && addr <= ctrlAddrEnd:
		which := addr & 0x1
		b.Controllers[which].Strobe()
	}
}

// Read dispatches a CPU-space read, with the same device priority as
// Write.
func (b *Bus) Read(addr uint16) uint8 {
	if data, ok := b.cart.CPUMapRead(addr); ok {
		return data
	}

	switch {
	case addr >= ramAddrStart && addr <= ramAddrEnd:
		return b.RAM.ReadMirrored(addr, ramMirror)
	case addr >= ppuAddrStart && addr <= ppuAddrEnd:
		return b.PPU.CPURead(addr & 0x07)
	case addr >= ctrlAddrStart && addr <= ctrlAddrEnd:
		which := addr & 0x1
		return b.Controllers[which].Read()
	default:
		return 0
	}
}

// TreatDMATransfer advances the OAM DMA state machine by one CPU cycle
// (clockCounter is the System's free-running cycle counter, used to
// decide odd/even alignment). It reports whether a transfer is in
// progress, in which case the CPU must stall for this cycle.
func (b *Bus) TreatDMATransfer(clockCounter uint32) bool {
	if !b.dma.transfer {
		return false
	}

	if b.dma.dummy {
		if clockCounter%2 == 1 {
			b.dma.dummy = false
		}
		return true
	}

	if clockCounter%2 == 0 {
		b.dma.data = b.Read(uint16(b.dma.page)<<8 | uint16(b.dma.addr))
	} else {
		b.PPU.DMAWrite(b.dma.addr, b.dma.data)
		b.dma.addr++
		if b.dma.addr == 0x00 {
			b.dma.transfer = false
			b.dma.dummy = true
		}
	}
	return true
}
