package renderer

import (
	"testing"

	"github.com/mkjmk-alt/label-engine/pkg/labelformat"
)

func TestGenerateBarcode_Formats(t *testing.T) {
	cases := []struct {
		format string
		value  string
	}{
		{"CODE128", "NMCR-2026-0831"},
		{"CODE39", "ABC-1234"},
		{"EAN13", "8801234567893"},
		{"EAN8", "96385074"},
		{"", "defaults-to-code128"},
	}

	for _, tc := range cases {
		img, err := GenerateBarcode(tc.value, tc.format, 400, 120)
		if err != nil {
			t.Errorf("format %q: %v", tc.format, err)
			continue
		}
		if img.Bounds().Dx() != 400 || img.Bounds().Dy() != 120 {
			t.Errorf("format %q: expected 400x120, got %dx%d",
				tc.format, img.Bounds().Dx(), img.Bounds().Dy())
		}
	}
}

func TestGenerateBarcode_Invalid(t *testing.T) {
	if _, err := GenerateBarcode("", "CODE128", 400, 120); err == nil {
		t.Error("Expected error for empty value")
	}
	if _, err := GenerateBarcode("123", "PDF417", 400, 120); err == nil {
		t.Error("Expected error for unsupported format")
	}
	if _, err := GenerateBarcode("not-a-number", "EAN13", 400, 120); err == nil {
		t.Error("Expected error for non-numeric EAN13 value")
	}
}

func TestGenerateQRCode(t *testing.T) {
	for _, level := range []string{"L", "M", "Q", "H", ""} {
		img, err := GenerateQRCode("https://example.com/p/8801234567893", level, 256)
		if err != nil {
			t.Errorf("level %q: %v", level, err)
			continue
		}
		if img.Bounds().Dx() != 256 {
			t.Errorf("level %q: expected size 256, got %d", level, img.Bounds().Dx())
		}
	}

	if _, err := GenerateQRCode("", "M", 256); err == nil {
		t.Error("Expected error for empty value")
	}
}

func TestCodeImage(t *testing.T) {
	img, err := CodeImage(labelformat.Code{Type: "qrcode", Value: "hello"})
	if err != nil {
		t.Fatalf("Failed to generate qrcode: %v", err)
	}
	if img.Bounds().Dx() != defaultQRSize {
		t.Errorf("Expected QR size %d, got %d", defaultQRSize, img.Bounds().Dx())
	}

	img, err = CodeImage(labelformat.Code{Type: "barcode", Value: "8801234567893", Format: "EAN13"})
	if err != nil {
		t.Fatalf("Failed to generate barcode: %v", err)
	}
	if img.Bounds().Dx() != defaultBarcodeWidth {
		t.Errorf("Expected barcode width %d, got %d", defaultBarcodeWidth, img.Bounds().Dx())
	}

	if _, err := CodeImage(labelformat.Code{Type: "aztec", Value: "x"}); err == nil {
		t.Error("Expected error for unsupported code type")
	}
}
