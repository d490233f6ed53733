package renderer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"strings"
)

// DecodeDataURL decodes a base64 data URL into an image. The payload only
// has to be a decodable raster image, the MIME tag is not checked against
// the actual format.
func DecodeDataURL(dataURL string) (image.Image, error) {
	idx := strings.Index(dataURL, ",")
	if idx < 0 {
		return nil, fmt.Errorf("invalid data URL: missing payload separator")
	}

	meta := dataURL[:idx]
	if !strings.HasPrefix(meta, "data:") || !strings.Contains(meta, "base64") {
		return nil, fmt.Errorf("invalid data URL: expected base64-encoded image")
	}

	raw, err := base64.StdEncoding.DecodeString(dataURL[idx+1:])
	if err != nil {
		return nil, fmt.Errorf("failed to decode data URL payload: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	return img, nil
}

// EncodeDataURL encodes an image as a PNG data URL
func EncodeDataURL(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode PNG: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
