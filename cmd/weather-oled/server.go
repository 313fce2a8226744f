package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"sync"

	"github.com/BeatGlow/oled/led"
	"github.com/BeatGlow/oled/render"
)

// maxUpdateSize bounds a weather update body; real responses are under 1 KiB.
const maxUpdateSize = 64 << 10

// weatherUpdate is the subset of an OpenWeatherMap current weather response we show.
type weatherUpdate struct {
	Main struct {
		Temp     *float64 `json:"temp"`
		Pressure *float64 `json:"pressure"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

func (u *weatherUpdate) sample() render.WeatherSample {
	s := render.WeatherSample{
		Temperature: u.Main.Temp,
		Pressure:    u.Main.Pressure,
	}
	if len(u.Weather) > 0 {
		s.Condition = u.Weather[0].Description
	}
	return s
}

// server owns the display pipeline; mu serializes every render and the shutdown.
type server struct {
	mu       sync.Mutex
	pipeline *render.Pipeline
	led      *led.Indicator
	log      *slog.Logger
	closed   bool
}

func newServer(pipeline *render.Pipeline, indicator *led.Indicator, log *slog.Logger) *server {
	if log == nil {
		log = slog.Default()
	}
	return &server{
		pipeline: pipeline,
		led:      indicator,
		log:      log,
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /update_weather", s.handleUpdateWeather)
	return mux
}

// show renders one sample and updates the LED.
func (s *server) show(sample render.WeatherSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errShutdown
	}

	if err := s.pipeline.Render(sample); err != nil {
		return err
	}
	if s.led != nil {
		if err := s.led.Update(sample.Temperature); err != nil {
			s.log.Warn("led update failed", "err", err)
		}
	}
	return nil
}

func (s *server) handleUpdateWeather(w http.ResponseWriter, r *http.Request) {
	if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType != "application/json" {
		reply(w, http.StatusBadRequest, "error", "request must be JSON")
		return
	}

	var (
		update  weatherUpdate
		tooLong *http.MaxBytesError
	)
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateSize)).Decode(&update); errors.As(err, &tooLong) {
		reply(w, http.StatusRequestEntityTooLarge, "error", err.Error())
		return
	} else if err != nil {
		s.log.Debug("invalid weather update", "remote", r.RemoteAddr, "err", err)
		reply(w, http.StatusBadRequest, "error", "invalid JSON: "+err.Error())
		return
	}

	sample := update.sample()
	s.log.Debug("weather update", "remote", r.RemoteAddr, "condition", sample.Condition)

	if err := s.show(sample); err != nil {
		s.log.Error("display update failed", "err", err)
		reply(w, http.StatusInternalServerError, "error", "internal server error: "+err.Error())
		return
	}
	reply(w, http.StatusOK, "message", "weather data processed successfully")
}

func reply(w http.ResponseWriter, status int, key, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{key: message})
}
