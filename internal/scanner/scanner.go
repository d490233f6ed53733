// Package scanner decodes barcodes and QR codes from raster images
package scanner

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

var white = color.NRGBA{255, 255, 255, 255}

// Result is a successful decode
type Result struct {
	Value  string `json:"value"`
	Format string `json:"format"`
}

// Decode scans img for a QR code, an EAN/UPC barcode, or a CODE128
// barcode, in that order. Photographed labels benefit from the grayscale
// pass; small sources get a second attempt at double size.
func Decode(img image.Image) (*Result, error) {
	if img == nil {
		return nil, fmt.Errorf("image is required")
	}

	prepared := pad(imaging.Grayscale(img))

	if res := decodeOnce(prepared); res != nil {
		return res, nil
	}

	if prepared.Bounds().Dx() < 600 {
		upscaled := imaging.Resize(prepared, prepared.Bounds().Dx()*2, 0, imaging.Lanczos)
		if res := decodeOnce(upscaled); res != nil {
			return res, nil
		}
	}

	return nil, fmt.Errorf("no barcode or QR code found in image")
}

// pad surrounds the image with a white quiet zone so codes cropped
// tight to the bars still decode
func pad(img image.Image) image.Image {
	const margin = 48

	w := img.Bounds().Dx() + 2*margin
	h := img.Bounds().Dy() + 2*margin
	canvas := imaging.New(w, h, white)

	return imaging.Paste(canvas, img, image.Pt(margin, margin))
}

// DecodeBytes decodes an uploaded image payload and scans it
func DecodeBytes(data []byte) (*Result, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	return Decode(img)
}

func decodeOnce(img image.Image) *Result {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}

	readers := []gozxing.Reader{
		qrcode.NewQRCodeReader(),
		oned.NewMultiFormatUPCEANReader(hints),
		oned.NewCode128Reader(),
	}

	for _, reader := range readers {
		result, err := reader.Decode(bmp, hints)
		if err != nil {
			continue
		}
		return &Result{
			Value:  result.GetText(),
			Format: result.GetBarcodeFormat().String(),
		}
	}

	return nil
}
