// Command weather-oled shows weather updates posted over HTTP on an SSD1306 panel.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dikkadev/prettyslog"
	"golang.org/x/image/font"
	"periph.io/x/host/v3"

	"github.com/BeatGlow/oled"
	"github.com/BeatGlow/oled/conn"
	"github.com/BeatGlow/oled/led"
	"github.com/BeatGlow/oled/preview"
	"github.com/BeatGlow/oled/render"
)

const waitingMessage = "Waiting..."

var errShutdown = errors.New("shutting down")

var defaultHostInit = host.Init

// Replaced in tests.
var (
	hostInit         = defaultHostInit
	openLineProvider = openLines
	previewOut       io.Writer // nil writes to the colorable stdout
)

// panel is the display the pipeline draws on.
type panel interface {
	render.Displayer
	io.Closer
	fmt.Stringer
}

func main() {
	cfg, err := parseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		fatal(err)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(prettyslog.NewPrettyslogHandler("oled",
		prettyslog.WithLevel(level),
	)))

	if err = run(cfg); err != nil {
		fatal(err)
	}
}

func run(cfg *Config) error {
	// Signals during setup wait for the panel to be initialized, then tear it down.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var face font.Face
	if cfg.Font != "" {
		var err error
		if face, err = render.LoadFace(cfg.Font, cfg.FontSize); err != nil {
			return err
		}
	}

	hw, srv, err := setup(cfg, face)
	if err != nil {
		return err
	}
	defer hw.close()
	if ctx.Err() != nil {
		slog.Info("interrupted during setup, shutting down")
		return nil
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errs := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.Addr)
		errs <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err = <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown", "err", err)
	}

	// Renders still in flight finish before the panel goes dark.
	srv.mu.Lock()
	srv.closed = true
	srv.mu.Unlock()
	return nil
}

// setup opens the hardware and shows the initial message.
func setup(cfg *Config, face font.Face) (*hardware, *server, error) {
	hw, err := openHardware(cfg)
	if err != nil {
		return nil, nil, err
	}
	var (
		pipeline = &render.Pipeline{Out: hw.panel, Renderer: render.NewRenderer(face)}
		srv      = newServer(pipeline, hw.led, slog.Default())
	)
	slog.Info("display ready, showing initial message", "display", hw.panel.String())
	if err = srv.show(render.WeatherSample{Condition: waitingMessage}); err != nil {
		hw.close()
		return nil, nil, err
	}
	return hw, srv, nil
}

// hardware holds everything that must be released on exit.
type hardware struct {
	lines conn.LineProvider
	panel panel
	led   *led.Indicator
}

func openHardware(cfg *Config) (hw *hardware, err error) {
	hw = new(hardware)
	defer func() {
		if err != nil {
			hw.close()
		}
	}()

	if cfg.Preview {
		dev, err := preview.New(previewOut, &preview.Opts{Width: cfg.Width, Height: cfg.Height})
		if err != nil {
			return hw, err
		}
		hw.panel = dev
		return hw, nil
	}

	if _, err = hostInit(); err != nil {
		return hw, err
	}
	if hw.lines, err = openLineProvider(cfg.Chip); err != nil {
		return hw, err
	}

	spiConfig := &conn.SPIConfig{
		Bus:    cfg.SPIBus,
		Device: cfg.SPIDevice,
		Reset:  cfg.Reset,
		DC:     cfg.DC,
		Lines:  hw.lines,
	}
	dev, err := oled.Open(spiConfig, &oled.Opts{Width: cfg.Width, Height: cfg.Height})
	if err != nil {
		return hw, err
	}
	hw.panel = dev

	if cfg.LED >= 0 {
		line, err := hw.lines.Claim(cfg.LED)
		if err == nil {
			hw.led, err = led.New(line, cfg.LEDLimit)
		}
		if err != nil {
			// The display works without the LED.
			slog.Warn("led disabled", "pin", cfg.LED, "err", err)
		}
	}
	return hw, nil
}

func openLines(chip string) (conn.LineProvider, error) {
	if chip == "" {
		return new(conn.PeriphLines), nil
	}
	lines, err := conn.OpenChip(chip)
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// close releases the panel, the LED and the GPIO lines, in that order.
func (hw *hardware) close() {
	if hw.panel != nil {
		if err := hw.panel.Close(); err != nil {
			slog.Warn("display close", "err", err)
		}
		hw.panel = nil
	}
	if hw.led != nil {
		if err := hw.led.Close(); err != nil {
			slog.Warn("led close", "err", err)
		}
		hw.led = nil
	}
	if hw.lines != nil {
		if err := hw.lines.Close(); err != nil {
			slog.Warn("gpio close", "err", err)
		}
		hw.lines = nil
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "fatal: "+err.Error())
	os.Exit(1)
}
