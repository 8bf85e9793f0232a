package cpu

import (
	"bufio"
	"os"
	"regexp"
	"strconv"
	"testing"

	"gones/internal/cartridge"
	"gones/internal/ines"
)

type flatBus struct {
	mem [0x10000]uint8
}

func (b *flatBus) Read(addr uint16) uint8     { return b.mem[addr] }
func (b *flatBus) Write(addr uint16, v uint8) { b.mem[addr] = v }

func newTestCPU() (*CPU, *flatBus) {
	bus := &flatBus{}
	bus.mem[0xFFFC] = 0x00
	bus.mem[0xFFFD] = 0x80
	c := New(bus)
	c.Reset()
	for c.PendingCycles() > 0 {
		c.Clock()
	}
	return c, bus
}

func runInstruction(c *CPU) {
	c.Clock()
	for c.PendingCycles() > 0 {
		c.Clock()
	}
}

func TestResetState(t *testing.T) {
	c, _ := newTestCPU()
	if c.A != 0 || c.X != 0 || c.Y != 0 {
		t.Fatalf("registers not zeroed after reset")
	}
	if c.SP != 0xFD {
		t.Fatalf("SP = %#x, want 0xFD", c.SP)
	}
	if c.PC != 0x8000 {
		t.Fatalf("PC = %#x, want 0x8000", c.PC)
	}
	if c.Status != FlagU {
		t.Fatalf("status = %#x, want only Unused set", c.Status)
	}
}

func TestLDAThenTAX(t *testing.T) {
	c, bus := newTestCPU()
	bus.mem[0x8000] = 0xA9 // LDA #$42
	bus.mem[0x8001] = 0x42
	bus.mem[0x8002] = 0xAA // TAX
	runInstruction(c)
	runInstruction(c)
	if c.A != 0x42 || c.X != 0x42 {
		t.Fatalf("A=%#x X=%#x, want both 0x42", c.A, c.X)
	}
	if c.getFlag(FlagZ) {
		t.Fatalf("Z flag should be clear for 0x42")
	}
	if c.getFlag(FlagN) {
		t.Fatalf("N flag should be clear for 0x42")
	}
}

func TestADCSBCComplement(t *testing.T) {
	cases := []struct{ a, m uint8; carry bool }{
		{0x50, 0x10, true},
		{0xFF, 0x01, false},
		{0x7F, 0x01, true},
		{0x00, 0x00, false},
	}
	for _, tc := range cases {
		c1, bus1 := newTestCPU()
		c1.A = tc.a
		c1.setFlag(FlagC, tc.carry)
		bus1.mem[0x8000] = 0x69 // ADC #
		bus1.mem[0x8001] = tc.m
		runInstruction(c1)

		c2, bus2 := newTestCPU()
		c2.A = tc.a
		c2.setFlag(FlagC, tc.carry)
		bus2.mem[0x8000] = 0xE9 // SBC #
		bus2.mem[0x8001] = ^tc.m
		runInstruction(c2)

		if c1.A != c2.A || c1.Status != c2.Status {
			t.Fatalf("ADC(%#x,%#x)=%#x/%#x vs SBC(~%#x)=%#x/%#x mismatch",
				tc.a, tc.m, c1.A, c1.Status, tc.m, c2.A, c2.Status)
		}
	}
}

func TestStackWrapsModulo256(t *testing.T) {
	c, _ := newTestCPU()
	c.SP = 0x00
	c.push(0x11)
	if c.SP != 0xFF {
		t.Fatalf("SP after push from 0x00 = %#x, want 0xFF", c.SP)
	}
}

func TestBRKPushesBreakAndUnusedSet(t *testing.T) {
	c, bus := newTestCPU()
	bus.mem[0x8000] = 0x00 // BRK
	bus.mem[0xFFFE] = 0x34
	bus.mem[0xFFFF] = 0x12
	runInstruction(c)
	pushedStatus := bus.mem[0x0100+uint16(c.SP)+1]
	if pushedStatus&FlagB == 0 || pushedStatus&FlagU == 0 {
		t.Fatalf("BRK must push Break=1 and Unused=1, got %#x", pushedStatus)
	}
	if c.PC != 0x1234 {
		t.Fatalf("PC after BRK = %#x, want 0x1234", c.PC)
	}
}

func TestNMIPushesBreakClearUnusedSet(t *testing.T) {
	c, bus := newTestCPU()
	bus.mem[0xFFFA] = 0x00
	bus.mem[0xFFFB] = 0x90
	c.NMI()
	pushedStatus := bus.mem[0x0100+uint16(c.SP)+1]
	if pushedStatus&FlagB != 0 {
		t.Fatalf("NMI must push Break=0, got %#x", pushedStatus)
	}
	if pushedStatus&FlagU == 0 {
		t.Fatalf("NMI must push Unused=1, got %#x", pushedStatus)
	}
	if c.PC != 0x9000 {
		t.Fatalf("PC after NMI = %#x, want 0x9000", c.PC)
	}
}

func TestDispatchTableHas256Entries(t *testing.T) {
	c := &CPU{}
	c.buildTable()
	for op := 0; op < 256; op++ {
		entry := c.table[op]
		if entry.cycles < 2 || entry.cycles > 8 {
			t.Fatalf("opcode %#x has cycles=%d, want [2,8]", op, entry.cycles)
		}
	}
}

func TestIndirectJumpPageWrapBug(t *testing.T) {
	c, bus := newTestCPU()
	bus.mem[0x8000] = 0x6C // JMP (IND)
	bus.mem[0x8001] = 0xFF
	bus.mem[0x8002] = 0x02 // pointer = 0x02FF
	bus.mem[0x02FF] = 0x00
	bus.mem[0x0200] = 0x03 // high byte fetched from 0x0200, not 0x0300
	bus.mem[0x0300] = 0xFF
	runInstruction(c)
	if c.PC != 0x0300 {
		t.Fatalf("PC after bugged indirect jump = %#x, want 0x0300", c.PC)
	}
}

// nestestBus is the minimal CPU bus nestest's automated mode needs:
// cartridge PRG reads plus 2KB of work RAM. nestest never touches the
// PPU or APU when entered at 0xC000.
type nestestBus struct {
	cart *cartridge.Cartridge
	ram  [0x0800]uint8
}

func (b *nestestBus) Read(addr uint16) uint8 {
	if v, ok := b.cart.CPUMapRead(addr); ok {
		return v
	}
	if addr <= 0x1FFF {
		return b.ram[addr&0x07FF]
	}
	return 0
}

func (b *nestestBus) Write(addr uint16, data uint8) {
	if b.cart.CPUMapWrite(addr, data) {
		return
	}
	if addr <= 0x1FFF {
		b.ram[addr&0x07FF] = data
	}
}

var nestestTraceLine = regexp.MustCompile(
	`^([0-9A-F]{4}).*A:([0-9A-F]{2}) X:([0-9A-F]{2}) Y:([0-9A-F]{2}) P:([0-9A-F]{2}) SP:([0-9A-F]{2})`)

// TestNestestGoldenTrace runs the standard nestest ROM from its
// automated entry point (PC forced to 0xC000) and compares the CPU
// state at every instruction boundary against nintendulator's reference
// trace, via the RegPC/RegA/RegX/RegY/RegSP/RegStatus/PendingCycles
// accessors. Skipped unless both fixtures are present under testdata/,
// matching the teacher's own pattern of testdata-gated integration
// tests (rom-backed tests that t.Skipf when the fixture isn't checked
// in).
//
// Only the official-opcode portion of the trace is compared: past line
// officialOpcodeLines, nestest starts probing undocumented opcodes,
// which this CPU treats as plain NOPs per the core's documented
// Non-goal, so the trace necessarily diverges from nintendulator's own
// undocumented-opcode emulation from that point on.
func TestNestestGoldenTrace(t *testing.T) {
	const (
		romPath             = "testdata/nestest.nes"
		logPath             = "testdata/nestest.log"
		officialOpcodeLines = 5003
	)

	if _, err := os.Stat(romPath); err != nil {
		t.Skipf("nestest fixture not present: %v", err)
	}

	cart, err := ines.LoadFile(romPath)
	if err != nil {
		t.Fatalf("loading %s: %v", romPath, err)
	}

	logFile, err := os.Open(logPath)
	if err != nil {
		t.Skipf("nestest.nes present but reference trace missing: %v", err)
	}
	defer logFile.Close()

	bus := &nestestBus{cart: cart}
	c := New(bus)
	c.Reset()
	for c.PendingCycles() > 0 {
		c.Clock()
	}
	c.PC = 0xC000 // nestest's no-PPU-input automated entry point

	scanner := bufio.NewScanner(logFile)
	for lineNo := 1; scanner.Scan() && lineNo <= officialOpcodeLines; lineNo++ {
		line := scanner.Text()
		m := nestestTraceLine.FindStringSubmatch(line)
		if m == nil {
			t.Fatalf("line %d: could not parse reference trace %q", lineNo, line)
		}
		wantPC, _ := strconv.ParseUint(m[1], 16, 16)
		wantA, _ := strconv.ParseUint(m[2], 16, 8)
		wantX, _ := strconv.ParseUint(m[3], 16, 8)
		wantY, _ := strconv.ParseUint(m[4], 16, 8)
		wantP, _ := strconv.ParseUint(m[5], 16, 8)
		wantSP, _ := strconv.ParseUint(m[6], 16, 8)

		if uint16(wantPC) != c.RegPC() || uint8(wantA) != c.RegA() || uint8(wantX) != c.RegX() ||
			uint8(wantY) != c.RegY() || uint8(wantP) != c.RegStatus() || uint8(wantSP) != c.RegSP() {
			t.Fatalf("line %d: got PC=%#04x A=%#02x X=%#02x Y=%#02x P=%#02x SP=%#02x, want PC=%#04x A=%#02x X=%#02x Y=%#02x P=%#02x SP=%#02x",
				lineNo, c.RegPC(), c.RegA(), c.RegX(), c.RegY(), c.RegStatus(), c.RegSP(),
				wantPC, wantA, wantX, wantY, wantP, wantSP)
		}

		c.Clock()
		for c.PendingCycles() > 0 {
			c.Clock()
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("reading reference trace: %v", err)
	}
}
