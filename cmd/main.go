package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	bannercolor "github.com/fatih/color"

	"github.com/forest-guardian/spectral-indices/internal/notification"
	"github.com/forest-guardian/spectral-indices/internal/properties"
	"github.com/forest-guardian/spectral-indices/internal/ui"
)

func printBanner() {
	banner := figure.NewFigure("Spectra", "isometric1", true)
	bannercolor.Cyan(banner.String())
	fmt.Println()
}

func main() {
	cfg, err := properties.Load(".env")
	if err != nil {
		ui.PrintError(err.Error())
		os.Exit(2)
	}

	defer func() {
		if r := recover(); r != nil {
			ui.PrintError(fmt.Sprintf("PANIC: %v", r))
			message := fmt.Sprintf("spectra panic:\n\n%v\n\nStack trace:\n%s", r, debug.Stack())
			if err := notification.Send(context.Background(), cfg.NotificationURL, "spectra panic", message, true); err != nil {
				ui.PrintError(fmt.Sprintf("failed to send notification: %s", err))
			}
			os.Exit(1)
		}
	}()

	root := newRootCmd(&app{cfg: cfg, in: os.Stdin})
	if len(os.Args) < 2 {
		printBanner()
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		ui.PrintError(err.Error())
		stop()
		os.Exit(1)
	}
}
