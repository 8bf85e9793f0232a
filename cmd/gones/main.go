// Package main implements the gones NES emulator executable.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gones/internal/host"
	"gones/internal/hostconfig"
	"gones/internal/ines"
	"gones/internal/system"
	"gones/internal/version"
)

func main() {
	var (
		romFile    = flag.String("rom", "", "Path to NES ROM file (required)")
		configFile = flag.String("config", "./config/gones.json", "Path to configuration file")
		scale      = flag.Int("scale", 0, "Window scale override (0 = use config)")
		headless   = flag.Int("headless", 0, "Run N frames headless and exit instead of opening a window")
		showVer    = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVer {
		version.PrintBuildInfo()
		return
	}

	if *romFile == "" {
		fmt.Println("usage: gones -rom <file> [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := hostconfig.LoadFromFile(*configFile)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *scale > 0 {
		cfg.Window.Scale = *scale
	}

	cart, err := ines.LoadFile(*romFile)
	if err != nil {
		log.Fatalf("loading ROM %s: %v", *romFile, err)
	}

	sys := system.New()
	sys.InsertCartridge(cart)

	if *headless > 0 {
		runHeadless(sys, *headless)
		return
	}

	setupGracefulShutdown()

	h, err := host.New(sys, cfg)
	if err != nil {
		log.Fatalf("starting host: %v", err)
	}
	if err := host.Run(h); err != nil {
		log.Fatalf("host exited: %v", err)
	}
}

// runHeadless clocks the system for n frames without opening a window,
// for smoke-testing a ROM from a script.
func runHeadless(sys *system.System, n int) {
	for i := 0; i < n; i++ {
		sys.NextFrame()
	}
	fmt.Printf("ran %d frames headless\n", n)
}

func setupGracefulShutdown() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		fmt.Println("\ninterrupt received, shutting down")
		os.Exit(0)
	}()
}
