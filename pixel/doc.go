// Package pixel implements the monochrome pixel containers used by the OLED driver.
//
// [VerticalLSB] mirrors the controller's page addressed display memory and [Bitmap]
// is the intensity image handed to the compositor. Both are compatible with Go's
// native [image.Image] / [draw.Image] interfaces.
package pixel
