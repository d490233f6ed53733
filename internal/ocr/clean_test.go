package ocr

import (
	"context"
	"reflect"
	"testing"

	"image/color"

	"github.com/disintegration/imaging"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"collapses spaces", "일반   감자칩\t120g", "일반 감자칩 120g"},
		{"drops empty lines", "first\n\n\nsecond", "first\nsecond"},
		{"normalizes CRLF", "a\r\nb\rc", "a\nb\nc"},
		{"trims lines", "  소비기한 : 2026-09-15  ", "소비기한 : 2026-09-15"},
		{"empty input", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.input); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestBarcodeCandidates(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			"valid ean13",
			"제품코드 8801234567893 감자칩",
			[]string{"8801234567893"},
		},
		{
			"ean13 bad checksum dropped",
			"코드 8801234567890",
			nil,
		},
		{
			"ean8 and gtin14",
			"96385074 and 10880123456786",
			[]string{"96385074", "10880123456786"},
		},
		{
			"confusion fixed but checksum still wrong",
			"88O12345678l2", // O->0, l->1 gives 8801234567812, check digit fails
			nil,
		},
		{
			"wrong lengths ignored",
			"123 45678 123456789 12345678901234567",
			nil,
		},
		{
			"duplicates dropped",
			"96385074 96385074",
			[]string{"96385074"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BarcodeCandidates(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestBarcodeCandidates_ConfusionMapping(t *testing.T) {
	// "88O1234567893" reads as 8801234567893 after O->0, which has a
	// valid check digit
	got := BarcodeCandidates("코드: 88O1234567893")

	if len(got) != 1 || got[0] != "8801234567893" {
		t.Errorf("Expected [8801234567893], got %v", got)
	}
}

func TestEAN13Valid(t *testing.T) {
	if !ean13Valid("8801234567893") {
		t.Error("Expected valid checksum for 8801234567893")
	}
	if ean13Valid("8801234567890") {
		t.Error("Expected invalid checksum for 8801234567890")
	}
	if ean13Valid("123") {
		t.Error("Expected invalid for wrong length")
	}
}

func TestExtractText_RequiresImage(t *testing.T) {
	c := NewClient()

	if _, err := c.ExtractText(context.Background(), nil); err == nil {
		t.Error("Expected error for nil image")
	}
}

func TestExtractText_Binary(t *testing.T) {
	c := NewClient()
	if !c.Available() {
		t.Skip("tesseract not installed")
	}

	img := imaging.New(200, 80, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})

	// Blank image: either an "empty output" error or empty-ish text, but
	// never a crash
	if text, err := c.ExtractText(context.Background(), img); err == nil && text == "" {
		t.Error("Expected error or non-empty text")
	}
}
