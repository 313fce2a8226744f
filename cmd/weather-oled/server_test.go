package main

import (
	"errors"
	"flag"
	"image"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/BeatGlow/oled"
	"github.com/BeatGlow/oled/led"
	"github.com/BeatGlow/oled/render"
)

type testPanel struct {
	frames  int
	err     error
	closed  int
	onClose func()
}

func (p *testPanel) String() string { return "test panel" }

func (p *testPanel) Close() error {
	p.closed++
	if p.onClose != nil {
		p.onClose()
	}
	return nil
}

func (p *testPanel) Geometry() oled.Geometry {
	return oled.Geometry{Width: 128, Height: 64}
}

func (p *testPanel) Display(img image.Image) error {
	if p.err != nil {
		return p.err
	}
	p.frames++
	return nil
}

type testLine struct {
	gpiotest.Pin
	onClose func()
}

func (l *testLine) Close() error {
	if l.onClose != nil {
		l.onClose()
	}
	return nil
}

func newTestServer(t *testing.T) (*server, *testPanel, *testLine) {
	t.Helper()
	var (
		panel = new(testPanel)
		line  = &testLine{Pin: gpiotest.Pin{N: "GPIO26", Num: 26}}
	)
	indicator, err := led.New(line, led.DefaultLimit)
	if err != nil {
		t.Fatal(err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newServer(&render.Pipeline{Out: panel}, indicator, log), panel, line
}

func post(h http.Handler, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/update_weather", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestUpdateWeather(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		status      int
		frames      int
		led         gpio.Level
	}{
		{
			name:        "hot",
			contentType: "application/json",
			body:        `{"main":{"temp":31.5,"pressure":1008},"weather":[{"description":"clear sky"}]}`,
			status:      http.StatusOK,
			frames:      1,
			led:         gpio.High,
		},
		{
			name:        "mild",
			contentType: "application/json; charset=utf-8",
			body:        `{"main":{"temp":12,"pressure":1020},"weather":[]}`,
			status:      http.StatusOK,
			frames:      1,
			led:         gpio.Low,
		},
		{
			name:        "missing readings",
			contentType: "application/json",
			body:        `{}`,
			status:      http.StatusOK,
			frames:      1,
			led:         gpio.Low,
		},
		{
			name:        "not json",
			contentType: "text/plain",
			body:        `temp=31`,
			status:      http.StatusBadRequest,
		},
		{
			name:   "no content type",
			body:   `{"main":{"temp":31}}`,
			status: http.StatusBadRequest,
		},
		{
			name:        "malformed",
			contentType: "application/json",
			body:        `{"main":`,
			status:      http.StatusBadRequest,
		},
		{
			name:        "too large",
			contentType: "application/json",
			body:        `{"weather":[{"description":"` + strings.Repeat("x", maxUpdateSize) + `"}]}`,
			status:      http.StatusRequestEntityTooLarge,
		},
		{
			name:        "wrong type",
			contentType: "application/json",
			body:        `{"main":{"temp":"hot"}}`,
			status:      http.StatusBadRequest,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(it *testing.T) {
			s, panel, line := newTestServer(it)
			rec := post(s.routes(), test.contentType, test.body)
			if rec.Code != test.status {
				it.Fatalf("expected status %d, got %d: %s", test.status, rec.Code, rec.Body)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				it.Errorf("expected JSON reply, got %q", ct)
			}
			if panel.frames != test.frames {
				it.Errorf("expected %d frames, got %d", test.frames, panel.frames)
			}
			if v := line.Read(); v != test.led {
				it.Errorf("expected LED %s, got %s", test.led, v)
			}
		})
	}
}

func TestUpdateWeatherRenderFailure(t *testing.T) {
	s, panel, _ := newTestServer(t)
	panel.err = oled.ErrClosed
	rec := post(s.routes(), "application/json", `{"main":{"temp":20}}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "error") {
		t.Errorf("expected error reply, got %s", rec.Body)
	}
}

func TestUpdateWeatherMethod(t *testing.T) {
	s, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/update_weather", nil)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", rec.Code)
	}
}

func TestShowAfterShutdown(t *testing.T) {
	s, panel, _ := newTestServer(t)
	s.closed = true
	if err := s.show(render.WeatherSample{}); !errors.Is(err, errShutdown) {
		t.Errorf("expected errShutdown, got %v", err)
	}
	if panel.frames != 0 {
		t.Error("expected no frame after shutdown")
	}
}

func TestParseConfig(t *testing.T) {
	name := filepath.Join(t.TempDir(), "oled.yaml")
	if err := os.WriteFile(name, []byte("addr: :8080\nled: -1\nchip: gpiochip0\nheight: 32\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := parseConfig(flag.NewFlagSet("test", flag.ContinueOnError), []string{"-config", name, "-height", "16"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":8080" || cfg.LED != -1 || cfg.Chip != "gpiochip0" {
		t.Errorf("expected file values, got %+v", cfg)
	}
	if cfg.Height != 16 {
		t.Errorf("expected flag to override file, got height %d", cfg.Height)
	}
	if cfg.Width != DefaultConfig.Width || cfg.DC != DefaultConfig.DC {
		t.Errorf("expected defaults for unset values, got %+v", cfg)
	}

	if err = os.WriteFile(name, []byte("bogus: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err = parseConfig(flag.NewFlagSet("test", flag.ContinueOnError), []string{"-config", name}); err == nil {
		t.Error("expected an error for an unknown key")
	}
}
