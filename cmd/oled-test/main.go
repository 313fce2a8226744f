// Command oled-test draws a moving test pattern on an SSD1306 panel.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dikkadev/prettyslog"
	"periph.io/x/host/v3"

	"github.com/BeatGlow/oled"
	"github.com/BeatGlow/oled/conn"
	"github.com/BeatGlow/oled/pixel"
)

func main() {
	widthFlag := flag.Int("width", oled.DefaultOpts.Width, "Display width")
	heightFlag := flag.Int("height", oled.DefaultOpts.Height, "Display height")
	spiBusFlag := flag.Int("spi-bus", conn.DefaultSPIConfig.Bus, "SPI bus")
	spiDeviceFlag := flag.Int("spi-dev", conn.DefaultSPIConfig.Device, "SPI device")
	resetPinFlag := flag.Int("reset", conn.DefaultSPIConfig.Reset, "Reset GPIO number")
	dcPinFlag := flag.Int("dc", conn.DefaultSPIConfig.DC, "Data/Command GPIO number (DC)")
	chipFlag := flag.String("chip", "", "GPIO character device, such as gpiochip0 (default: periph.io registry)")
	invertFlag := flag.Bool("invert", false, "Invert the display")
	frameFlag := flag.Duration("frame", 50*time.Millisecond, "Frame interval")
	flag.Parse()

	slog.SetDefault(slog.New(prettyslog.NewPrettyslogHandler("oled-test",
		prettyslog.WithLevel(slog.LevelDebug),
	)))

	if _, err := host.Init(); err != nil {
		fatal(err)
	}

	config := &conn.SPIConfig{
		Bus:    *spiBusFlag,
		Device: *spiDeviceFlag,
		Reset:  *resetPinFlag,
		DC:     *dcPinFlag,
	}
	if *chipFlag != "" {
		lines, err := conn.OpenChip(*chipFlag)
		if err != nil {
			fatal(err)
		}
		defer lines.Close()
		config.Lines = lines
	}

	output, err := oled.Open(config, &oled.Opts{Width: *widthFlag, Height: *heightFlag})
	if err != nil {
		fatal(err)
	}
	defer output.Close()
	slog.Info("using driver", "display", output.String())

	if *invertFlag {
		if err = output.Invert(true); err != nil {
			fatal(err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		fb     = output.Framebuffer()
		r      = fb.Bounds()
		ticker = time.NewTicker(*frameFlag)
	)
	defer ticker.Stop()

	// Draw box around edge
	for x := 0; x < r.Max.X; x++ {
		fb.SetBit(x, 0, true)
		fb.SetBit(x, r.Max.Y-1, true)
	}
	for y := 0; y < r.Max.Y; y++ {
		fb.SetBit(0, y, true)
		fb.SetBit(r.Max.X-1, y, true)
	}

	slog.Info("hit control-c to stop...")
	for offset := 0; ; offset++ {
		// Diagonal stripes inside the box
		for y := 1; y < r.Max.Y-1; y++ {
			for x := 1; x < r.Max.X-1; x++ {
				fb.Set(x, y, pixel.Mono{On: (x+y+offset)%4 == 0})
			}
		}
		if err = output.Flush(); err != nil {
			slog.Error("flush failed", "err", err)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "fatal: "+err.Error())
	os.Exit(1)
}
