// Package host runs the emulated console inside an ebiten window: it
// implements the ebiten.Game interface (Update/Draw/Layout), samples
// keyboard state into controller bitfields once per frame, and blits
// the system's framebuffer into the displayed image. Grounded on
// bdwalton-gintendo's console/bus.go (the Layout-returns-native-
// resolution trick that lets ebiten handle window scaling, and the
// Draw-copies-pixel-buffer shape) and the teacher's own internal/app
// CLI wiring for window setup calls.
package host

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"

	"gones/internal/controller"
	"gones/internal/framebuffer"
	"gones/internal/hostconfig"
	"gones/internal/system"
)

// Host adapts a system.System to the ebiten.Game interface.
type Host struct {
	sys    *system.System
	config *hostconfig.Config

	keymap [2]buttonKeyMap
	img    *ebiten.Image
}

type buttonKeyMap struct {
	up, down, left, right, a, b, start, select_ ebiten.Key
}

// NullAudio documents, rather than silently omitting, that this host
// opens no audio device: the NES APU is an explicit Non-goal of the
// core, so there is no sample stream for it to consume.
type NullAudio struct{}

// New builds a Host around sys, configuring the ebiten window per cfg
// and preparing both players' key bindings.
func New(sys *system.System, cfg *hostconfig.Config) (*Host, error) {
	h := &Host{
		sys:    sys,
		config: cfg,
		img:    ebiten.NewImage(framebuffer.Width, framebuffer.Height),
	}

	km1, err := parseKeyMapping(cfg.Input.Player1Keys)
	if err != nil {
		return nil, fmt.Errorf("host: player 1 key mapping: %w", err)
	}
	km2, err := parseKeyMapping(cfg.Input.Player2Keys)
	if err != nil {
		return nil, fmt.Errorf("host: player 2 key mapping: %w", err)
	}
	h.keymap[0] = km1
	h.keymap[1] = km2

	scale := cfg.Window.Scale
	if scale < 1 {
		scale = 1
	}
	ebiten.SetWindowSize(framebuffer.Width*scale, framebuffer.Height*scale)
	ebiten.SetWindowTitle("gones")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetFullscreen(cfg.Window.Fullscreen)
	ebiten.SetVsyncEnabled(cfg.Window.VSync)

	return h, nil
}

func parseKeyMapping(km hostconfig.KeyMapping) (buttonKeyMap, error) {
	lookup := func(name string) (ebiten.Key, error) {
		var k ebiten.Key
		if err := k.UnmarshalText([]byte(name)); err != nil {
			return 0, fmt.Errorf("unknown key %q: %w", name, err)
		}
		return k, nil
	}

	var bkm buttonKeyMap
	var err error
	if bkm.up, err = lookup(km.Up); err != nil {
		return bkm, err
	}
	if bkm.down, err = lookup(km.Down); err != nil {
		return bkm, err
	}
	if bkm.left, err = lookup(km.Left); err != nil {
		return bkm, err
	}
	if bkm.right, err = lookup(km.Right); err != nil {
		return bkm, err
	}
	if bkm.a, err = lookup(km.A); err != nil {
		return bkm, err
	}
	if bkm.b, err = lookup(km.B); err != nil {
		return bkm, err
	}
	if bkm.start, err = lookup(km.Start); err != nil {
		return bkm, err
	}
	if bkm.select_, err = lookup(km.Select); err != nil {
		return bkm, err
	}
	return bkm, nil
}

func sampleButtons(km buttonKeyMap) uint8 {
	var b uint8
	if ebiten.IsKeyPressed(km.right) {
		b |= uint8(controller.Right)
	}
	if ebiten.IsKeyPressed(km.left) {
		b |= uint8(controller.Left)
	}
	if ebiten.IsKeyPressed(km.down) {
		b |= uint8(controller.Down)
	}
	if ebiten.IsKeyPressed(km.up) {
		b |= uint8(controller.Up)
	}
	if ebiten.IsKeyPressed(km.start) {
		b |= uint8(controller.Start)
	}
	if ebiten.IsKeyPressed(km.select_) {
		b |= uint8(controller.Select)
	}
	if ebiten.IsKeyPressed(km.a) {
		b |= uint8(controller.A)
	}
	if ebiten.IsKeyPressed(km.b) {
		b |= uint8(controller.B)
	}
	return b
}

// Update samples input and runs exactly one emulated frame, satisfying
// ebiten.Game.
func (h *Host) Update() error {
	for i := range h.keymap {
		h.sys.SetControllerState(i, sampleButtons(h.keymap[i]))
	}
	h.sys.NextFrame()
	return nil
}

// Draw blits the system's framebuffer into the displayed image,
// satisfying ebiten.Game.
func (h *Host) Draw(screen *ebiten.Image) {
	fb := h.sys.Framebuffer()
	for y := 0; y < framebuffer.Height; y++ {
		for x := 0; x < framebuffer.Width; x++ {
			c := fb.Pixels()[y*framebuffer.Width+x]
			h.img.Set(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xFF})
		}
	}
	screen.DrawImage(h.img, nil)
}

// Layout returns the NES's native resolution; ebiten scales the window
// to fit around it, matching bdwalton-gintendo's approach.
func (h *Host) Layout(outsideWidth, outsideHeight int) (int, int) {
	return framebuffer.Width, framebuffer.Height
}

// Run starts the ebiten event loop, blocking until the window is
// closed.
func Run(h *Host) error {
	return ebiten.RunGame(h)
}
