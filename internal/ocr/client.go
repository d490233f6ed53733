// Package ocr extracts text from label photos with a local tesseract
// install and cleans it up for barcode lookup
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"

	"github.com/disintegration/imaging"
)

// Client wraps the tesseract CLI for text extraction from images
type Client struct {
	binary string
	langs  string
}

// NewClient creates an OCR client configured from the environment
func NewClient() *Client {
	binary := os.Getenv("TESSERACT_BIN")
	if binary == "" {
		binary = "tesseract"
	}

	langs := os.Getenv("TESSERACT_LANGS")
	if langs == "" {
		// Korean product labels with latin digits mixed in
		langs = "kor+eng"
	}

	return &Client{binary: binary, langs: langs}
}

// Available reports whether the tesseract binary can be found
func (c *Client) Available() bool {
	_, err := exec.LookPath(c.binary)
	return err == nil
}

// ExtractText runs OCR over img and returns the cleaned text
func (c *Client) ExtractText(ctx context.Context, img image.Image) (string, error) {
	if img == nil {
		return "", fmt.Errorf("image is required")
	}

	tempFile, err := saveTempImage(img)
	if err != nil {
		return "", fmt.Errorf("failed to save temp image: %w", err)
	}
	defer os.Remove(tempFile)

	cmd := exec.CommandContext(ctx, c.binary, tempFile, "stdout", "-l", c.langs, "--psm", "6")

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract failed: %v: %s", err, stderr.String())
	}

	text := CleanText(out.String())
	if text == "" {
		return "", fmt.Errorf("no text extracted from image")
	}

	return text, nil
}

// ExtractFromBytes decodes an uploaded image payload and runs OCR on it
func (c *Client) ExtractFromBytes(ctx context.Context, data []byte) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	return c.ExtractText(ctx, img)
}

func saveTempImage(img image.Image) (string, error) {
	f, err := os.CreateTemp("", "label-ocr-*.png")
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		os.Remove(f.Name())
		return "", err
	}

	return f.Name(), nil
}
