package main

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/BeatGlow/oled"
	"github.com/BeatGlow/oled/conn"
	"github.com/BeatGlow/oled/led"
)

// Config for the weather display service. Values come from the defaults,
// then the YAML file, then any flag given on the command line.
type Config struct {
	Addr string `yaml:"addr"`

	SPIBus    int    `yaml:"spiBus"`
	SPIDevice int    `yaml:"spiDevice"`
	Reset     int    `yaml:"reset"`
	DC        int    `yaml:"dc"`
	Chip      string `yaml:"chip"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`

	LED      int     `yaml:"led"`
	LEDLimit float64 `yaml:"ledLimit"`

	Font     string  `yaml:"font"`
	FontSize float64 `yaml:"fontSize"`

	Preview bool `yaml:"preview"`
	Debug   bool `yaml:"debug"`
}

// DefaultConfig matches the wiring of the reference board.
var DefaultConfig = Config{
	Addr:      ":5000",
	SPIBus:    conn.DefaultSPIConfig.Bus,
	SPIDevice: conn.DefaultSPIConfig.Device,
	Reset:     conn.DefaultSPIConfig.Reset,
	DC:        conn.DefaultSPIConfig.DC,
	Width:     oled.DefaultOpts.Width,
	Height:    oled.DefaultOpts.Height,
	LED:       26,
	LEDLimit:  led.DefaultLimit,
	FontSize:  10,
}

func (c *Config) flags(fs *flag.FlagSet) *string {
	configFile := fs.String("config", "", "YAML configuration file")
	fs.StringVar(&c.Addr, "addr", c.Addr, "HTTP listen address")
	fs.IntVar(&c.SPIBus, "spi-bus", c.SPIBus, "SPI bus")
	fs.IntVar(&c.SPIDevice, "spi-dev", c.SPIDevice, "SPI device")
	fs.IntVar(&c.Reset, "reset", c.Reset, "Reset GPIO number")
	fs.IntVar(&c.DC, "dc", c.DC, "Data/Command GPIO number (DC)")
	fs.StringVar(&c.Chip, "chip", c.Chip, "GPIO character device, such as gpiochip0 (default: periph.io registry)")
	fs.IntVar(&c.Width, "width", c.Width, "Display width")
	fs.IntVar(&c.Height, "height", c.Height, "Display height")
	fs.IntVar(&c.LED, "led", c.LED, "LED GPIO number, negative disables the LED")
	fs.Float64Var(&c.LEDLimit, "led-limit", c.LEDLimit, "Temperature in °C above which the LED is lit")
	fs.StringVar(&c.Font, "font", c.Font, "TrueType font file (default: built-in 7x13)")
	fs.Float64Var(&c.FontSize, "font-size", c.FontSize, "TrueType font size in points")
	fs.BoolVar(&c.Preview, "preview", c.Preview, "Show frames on the terminal instead of the panel")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "Enable debug logging")
	return configFile
}

// parseConfig parses args into a Config.
func parseConfig(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := new(Config)
	*cfg = DefaultConfig
	configFile := cfg.flags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *configFile == "" {
		return cfg, nil
	}

	given := make(map[string]string)
	fs.Visit(func(f *flag.Flag) {
		given[f.Name] = f.Value.String()
	})
	if err := cfg.load(*configFile); err != nil {
		return nil, err
	}
	for name, value := range given {
		if err := fs.Set(name, value); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (c *Config) load(name string) error {
	data, err := os.ReadFile(name)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err = yaml.UnmarshalStrict(data, c); err != nil {
		return fmt.Errorf("config: %s: %w", name, err)
	}
	return nil
}
