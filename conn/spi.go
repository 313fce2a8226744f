package conn

import (
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// Bus parameters from the SSD1306 datasheet. These are a hardware contract.
const (
	SPISpeed = 8 * physic.MegaHertz
	SPIMode  = spi.Mode0
	SPIBits  = 8
)

// PortOpener opens a SPI port by bus and device (chip select) number.
type PortOpener func(bus, device int) (spi.PortCloser, error)

// OpenPort opens a port from the periph.io SPI registry, requires host.Init.
func OpenPort(bus, device int) (spi.PortCloser, error) {
	return spireg.Open(fmt.Sprintf("SPI%d.%d", bus, device))
}

// SPIConfig describes the SPI bus configuration.
type SPIConfig struct {
	// Bus and Device select the SPI channel, /dev/spidev<Bus>.<Device> on Linux.
	Bus    int
	Device int

	// Reset and DC are the GPIO numbers of the reset and data/command lines.
	Reset int
	DC    int

	// BatchSize is the largest single bus transfer, larger writes are chunked.
	BatchSize int

	// Lines claims the GPIO lines, defaults to PeriphLines. A provider passed in
	// by the caller is not closed with the transport.
	Lines LineProvider

	// Opener opens the SPI port, defaults to OpenPort.
	Opener PortOpener

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultSPIConfig are the default configuration values.
var DefaultSPIConfig = SPIConfig{
	Bus:       0,
	Device:    0,
	Reset:     19,
	DC:        16,
	BatchSize: 4096,
}

// SPI is an open transport. It is not safe for concurrent use.
type SPI struct {
	name      string
	port      spi.PortCloser
	bus       spi.Conn
	lines     LineProvider
	ownsLines bool
	reset     Line
	dc        Line
	dcLevel   gpio.Level
	dcValid   bool
	batchSize int
	log       *slog.Logger
	closed    bool
}

// OpenSPI opens the SPI channel and claims the D/C and reset lines.
//
// On failure every resource claimed so far is released before returning.
func OpenSPI(config *SPIConfig) (*SPI, error) {
	if config == nil {
		config = new(SPIConfig)
		*config = DefaultSPIConfig
	}

	c := &SPI{
		name:      fmt.Sprintf("SPI%d.%d", config.Bus, config.Device),
		lines:     config.Lines,
		batchSize: config.BatchSize,
		log:       config.Logger,
	}
	if c.lines == nil {
		c.lines, c.ownsLines = new(PeriphLines), true
	}
	if c.batchSize <= 0 {
		c.batchSize = DefaultSPIConfig.BatchSize
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	opener := config.Opener
	if opener == nil {
		opener = OpenPort
	}

	if err := c.open(config, opener); err != nil {
		c.release()
		return nil, err
	}
	return c, nil
}

func (c *SPI) open(config *SPIConfig, opener PortOpener) (err error) {
	if c.port, err = opener(config.Bus, config.Device); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBusOpen, c.name, err)
	}
	if c.bus, err = c.port.Connect(SPISpeed, SPIMode, SPIBits); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBusOpen, c.name, err)
	}
	if c.dc, err = c.lines.Claim(config.DC); err != nil {
		return fmt.Errorf("data/command line: %w", err)
	}
	if c.reset, err = c.lines.Claim(config.Reset); err != nil {
		return fmt.Errorf("reset line: %w", err)
	}
	return nil
}

func (c *SPI) String() string {
	return fmt.Sprintf("SPI bus %s", c.name)
}

// Close releases the lines and the SPI channel. Closing twice is a no-op.
func (c *SPI) Close() error {
	if c.closed {
		return nil
	}
	return c.release()
}

// release frees whatever was claimed, in reverse order, reporting the first error.
func (c *SPI) release() (err error) {
	c.closed = true
	keep := func(e error) {
		if err == nil {
			err = e
		}
	}
	if c.reset != nil {
		keep(c.reset.Close())
		c.reset = nil
	}
	if c.dc != nil {
		keep(c.dc.Close())
		c.dc = nil
	}
	if c.port != nil {
		keep(c.port.Close())
		c.port, c.bus = nil, nil
	}
	if c.ownsLines && c.lines != nil {
		keep(c.lines.Close())
		c.lines = nil
	}
	return
}

// Reset sets the reset line to the provided level.
func (c *SPI) Reset(level gpio.Level) error {
	if c.closed {
		return ErrClosed
	}
	return c.reset.Out(level)
}

func (c *SPI) updateDC(level gpio.Level) error {
	if !c.dcValid || c.dcLevel != level {
		if err := c.dc.Out(level); err != nil {
			return err
		}
		c.dcLevel, c.dcValid = level, true
	}
	return nil
}

// Command sends command bytes (including their arguments) with D/C low.
func (c *SPI) Command(cmnds ...byte) (err error) {
	if c.closed {
		return ErrClosed
	}
	if len(cmnds) == 0 {
		return
	}
	if err = c.updateDC(gpio.Low); err != nil {
		return
	}
	return c.writeChunked(cmnds)
}

// Data sends display RAM bytes with D/C high.
func (c *SPI) Data(data ...byte) (err error) {
	if c.closed {
		return ErrClosed
	}
	if len(data) == 0 {
		return
	}
	if err = c.updateDC(gpio.High); err != nil {
		return
	}
	return c.writeChunked(data)
}

func (c *SPI) writeChunked(data []byte) (err error) {
	if len(data) <= c.batchSize {
		return c.bus.Tx(data, nil)
	}

	c.log.Debug("chunked write", "bytes", len(data), "chunks", (len(data)+c.batchSize-1)/c.batchSize)
	for buffer := data; len(buffer) > 0; {
		n := min(len(buffer), c.batchSize)
		if err = c.bus.Tx(buffer[:n], nil); err != nil {
			return
		}
		buffer = buffer[n:]
	}
	return
}
