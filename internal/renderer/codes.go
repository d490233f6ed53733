package renderer

import (
	"fmt"
	"image"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/code39"
	"github.com/boombuler/barcode/ean"
	"github.com/mkjmk-alt/label-engine/pkg/labelformat"
	"github.com/skip2/go-qrcode"
)

// Default code image dimensions at print resolution
const (
	defaultBarcodeWidth  = 800
	defaultBarcodeHeight = 240
	defaultQRSize        = 600
)

// GenerateBarcode encodes value into a 1D barcode image of the given size
func GenerateBarcode(value, format string, width, height int) (image.Image, error) {
	if value == "" {
		return nil, fmt.Errorf("barcode value is required")
	}
	if width <= 0 {
		width = defaultBarcodeWidth
	}
	if height <= 0 {
		height = defaultBarcodeHeight
	}

	var code barcode.Barcode
	var err error

	switch format {
	case "CODE128", "":
		code, err = code128.Encode(value)
	case "CODE39":
		code, err = code39.Encode(value, false, false)
	case "EAN13", "EAN8":
		code, err = ean.Encode(value)
	default:
		return nil, fmt.Errorf("unsupported barcode format: %s", format)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to encode barcode: %w", err)
	}

	scaled, err := barcode.Scale(code, width, height)
	if err != nil {
		return nil, fmt.Errorf("failed to scale barcode: %w", err)
	}

	return scaled, nil
}

// GenerateQRCode encodes value into a square QR image
func GenerateQRCode(value, errorCorrection string, size int) (image.Image, error) {
	if value == "" {
		return nil, fmt.Errorf("qrcode value is required")
	}
	if size <= 0 {
		size = defaultQRSize
	}

	level := qrcode.Medium
	switch errorCorrection {
	case "L":
		level = qrcode.Low
	case "M":
		level = qrcode.Medium
	case "Q":
		level = qrcode.High
	case "H":
		level = qrcode.Highest
	}

	qr, err := qrcode.New(value, level)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qrcode: %w", err)
	}

	return qr.Image(size), nil
}

// CodeImage renders the code section of a .label sheet at print resolution
func CodeImage(code labelformat.Code) (image.Image, error) {
	switch code.Type {
	case "qrcode":
		return GenerateQRCode(code.Value, code.ErrorCorrection, defaultQRSize)
	case "barcode", "":
		return GenerateBarcode(code.Value, code.Format, defaultBarcodeWidth, defaultBarcodeHeight)
	default:
		return nil, fmt.Errorf("unsupported code type: %s", code.Type)
	}
}
