package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gekko3d/orbital"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	cfg, err := orbital.ParseFlags(os.Args[0], os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	app := orbital.NewAppBuilder().
		UseModule(
			orbital.LoggingModule{Debug: cfg.Debug},
			orbital.NewPlatformWindow(cfg.Window),
			orbital.TimeModule{Clock: glfw.GetTime},
			orbital.InputModule{},
			orbital.OrbitalModule{Config: cfg},
			orbital.CaptureModule{},
		).
		Build()

	app.Run()
}
