package oled

// SSD1306 fundamental, addressing and hardware configuration commands.
const (
	ssd1xxxSetMemoryMode         = 0x20
	ssd1xxxSetColumnAddr         = 0x21
	ssd1xxxSetPageAddr           = 0x22
	ssd1xxxSetStartLine          = 0x40
	ssd1xxxSetContrast           = 0x81
	ssd1xxxSetChargePump         = 0x8D
	ssd1xxxSetSegmentRemap       = 0xA1
	ssd1xxxSetDisplayAllOnResume = 0xA4
	ssd1xxxSetNormalDisplay      = 0xA6
	ssd1xxxSetInvertDisplay      = 0xA7
	ssd1xxxSetMultiplexRatio     = 0xA8
	ssd1xxxSetDisplayOff         = 0xAE
	ssd1xxxSetDisplayOn          = 0xAF
	ssd1xxxSetComScanDec         = 0xC8
	ssd1xxxSetDisplayOffset      = 0xD3
	ssd1xxxSetDisplayClockDiv    = 0xD5
	ssd1xxxSetPrecharge          = 0xD9
	ssd1xxxSetComPins            = 0xDA
	ssd1xxxSetVCOMDeselect       = 0xDB
)

// Command arguments.
const (
	ssd1306ClockDiv        = 0x80 // reset ratio, default oscillator frequency
	ssd1306ChargePumpOn    = 0x14
	ssd1306HorizontalMode  = 0x00
	ssd1306ComPinsAlt      = 0x12 // alternative COM pin configuration, no left/right remap
	ssd1306ComPinsSeq      = 0x02 // sequential COM pin configuration
	ssd1306DefaultContrast = 0xCF
	ssd1306PrechargePeriod = 0xF1
	ssd1306VCOMDeselect    = 0x40
	ssd1306MaxWidth        = 128
	ssd1306MaxHeight       = 64
	ssd1306MinHeight       = 16
)
