package renderer

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/mkjmk-alt/label-engine/pkg/labelformat"
)

func testLayout() labelformat.Layout {
	return labelformat.Layout{
		Rows:           2,
		Cols:           2,
		HMargin:        20,
		VMargin:        20,
		LabelFontSize:  40,
		ExpiryFontSize: 32,
		MaxLabelLines:  2,
		LineSpacing:    6,
	}
}

// solidBlack builds a source image with a known aspect ratio
func solidBlack(w, h int) image.Image {
	return imaging.New(w, h, color.NRGBA{A: 0xff})
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

// blackBounds returns the bounding box of near-black pixels inside region
func blackBounds(img image.Image, region image.Rectangle) (image.Rectangle, bool) {
	found := false
	minX, minY := region.Max.X, region.Max.Y
	maxX, maxY := region.Min.X, region.Min.Y

	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r < 0x4000 && g < 0x4000 && b < 0x4000 {
				found = true
				if x < minX {
					minX = x
				}
				if y < minY {
					minY = y
				}
				if x > maxX {
					maxX = x
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}

	return image.Rect(minX, minY, maxX+1, maxY+1), found
}

func TestRenderSheet_PageDimensions(t *testing.T) {
	r := New()

	page, err := r.RenderSheet(solidBlack(100, 50), testLayout(), labelformat.Label{ProductName: "감자칩"})
	if err != nil {
		t.Fatalf("Failed to render sheet: %v", err)
	}

	if page.Bounds().Dx() != labelformat.PageWidth || page.Bounds().Dy() != labelformat.PageHeight {
		t.Errorf("Expected %dx%d page, got %dx%d",
			labelformat.PageWidth, labelformat.PageHeight,
			page.Bounds().Dx(), page.Bounds().Dy())
	}
}

func TestRenderSheet_Deterministic(t *testing.T) {
	src := solidBlack(100, 50)
	layout := testLayout()
	label := labelformat.Label{ProductName: "일반 감자칩 120g", AddExpiry: true, ExpiryText: "2026-09-15"}

	r := New()

	first, err := r.RenderSheet(src, layout, label)
	if err != nil {
		t.Fatalf("First render failed: %v", err)
	}
	second, err := r.RenderSheet(src, layout, label)
	if err != nil {
		t.Fatalf("Second render failed: %v", err)
	}

	if !bytes.Equal(encodePNG(t, first), encodePNG(t, second)) {
		t.Error("Expected pixel-identical output for identical input")
	}
}

func TestRenderSheet_MarginsStayWhite(t *testing.T) {
	// All drawing must land inside the cell rectangles, margins included
	// around the outer page edge
	r := New()

	page, err := r.RenderSheet(solidBlack(200, 100), testLayout(), labelformat.Label{ProductName: "감자칩"})
	if err != nil {
		t.Fatalf("Failed to render sheet: %v", err)
	}

	// cellW = 1210: vertical margin bands at x < 20, 1230 <= x < 1250, x >= 2460
	bands := []image.Rectangle{
		image.Rect(0, 0, 20, labelformat.PageHeight),
		image.Rect(1230, 0, 1250, labelformat.PageHeight),
		image.Rect(2460, 0, labelformat.PageWidth, labelformat.PageHeight),
		image.Rect(0, 0, labelformat.PageWidth, 20),
	}

	for _, band := range bands {
		if _, found := blackBounds(page, band); found {
			t.Errorf("Expected margin band %v to stay white", band)
		}
	}
}

func TestRenderSheet_AspectRatioPreserved(t *testing.T) {
	// A 3:1 source fitted by width must keep its ratio when unconstrained
	// by the remaining cell height
	layout := labelformat.Layout{
		Rows: 1, Cols: 1,
		HMargin: 20, VMargin: 20,
		LabelFontSize: 40, ExpiryFontSize: 32,
		MaxLabelLines: 1, LineSpacing: 6,
	}

	r := New()

	page, err := r.RenderSheet(solidBlack(300, 100), layout, labelformat.Label{})
	if err != nil {
		t.Fatalf("Failed to render sheet: %v", err)
	}

	box, found := blackBounds(page, page.Bounds())
	if !found {
		t.Fatal("Expected the code image on the page")
	}

	ratio := float64(box.Dx()) / float64(box.Dy())
	if ratio < 2.9 || ratio > 3.1 {
		t.Errorf("Expected width/height ratio near 3.0, got %.3f (box %v)", ratio, box)
	}

	// Fitted to the width budget cellW-10
	cellW, _ := labelformat.CellSize(layout)
	if box.Dx() < cellW-12 || box.Dx() > cellW-8 {
		t.Errorf("Expected drawn width near %d, got %d", cellW-10, box.Dx())
	}
}

func TestRenderSheet_TallSourceClampedToArea(t *testing.T) {
	// Source much taller than the cell: height clamps to the available
	// area, width recomputed, image centered horizontally
	layout := labelformat.Layout{
		Rows: 4, Cols: 4,
		HMargin: 20, VMargin: 20,
		LabelFontSize: 40, ExpiryFontSize: 32,
		MaxLabelLines: 1, LineSpacing: 6,
	}

	r := New()

	page, err := r.RenderSheet(solidBlack(100, 3000), layout, labelformat.Label{})
	if err != nil {
		t.Fatalf("Failed to render sheet: %v", err)
	}

	cellW, cellH := labelformat.CellSize(layout)

	// First cell occupies (20,20)-(20+cellW, 20+cellH)
	cell := image.Rect(20, 20, 20+cellW, 20+cellH)
	box, found := blackBounds(page, cell)
	if !found {
		t.Fatal("Expected the code image in the first cell")
	}

	if box.Dy() > cellH {
		t.Errorf("Drawn height %d exceeds cell height %d", box.Dy(), cellH)
	}

	ratio := float64(box.Dy()) / float64(box.Dx())
	if ratio < 28 || ratio > 32 {
		t.Errorf("Expected height/width ratio near 30, got %.2f (box %v)", ratio, box)
	}

	// Horizontal centering within the cell
	leftGap := box.Min.X - cell.Min.X
	rightGap := cell.Max.X - box.Max.X
	if diff := leftGap - rightGap; diff < -2 || diff > 2 {
		t.Errorf("Expected horizontally centered image, gaps %d/%d", leftGap, rightGap)
	}
}

func TestRenderSheet_EmptyExpirySkipped(t *testing.T) {
	src := solidBlack(100, 50)
	layout := testLayout()

	r := New()

	withFlag, err := r.RenderSheet(src, layout, labelformat.Label{ProductName: "감자칩", AddExpiry: true, ExpiryText: ""})
	if err != nil {
		t.Fatalf("Failed to render sheet: %v", err)
	}
	withoutFlag, err := r.RenderSheet(src, layout, labelformat.Label{ProductName: "감자칩", AddExpiry: false})
	if err != nil {
		t.Fatalf("Failed to render sheet: %v", err)
	}

	if !bytes.Equal(encodePNG(t, withFlag), encodePNG(t, withoutFlag)) {
		t.Error("Expected empty expiry text to render identically to no expiry")
	}
}

func TestRenderSheet_NilSource(t *testing.T) {
	r := New()

	if _, err := r.RenderSheet(nil, testLayout(), labelformat.Label{}); err == nil {
		t.Error("Expected error for nil source image")
	}
}

func TestComposeSheet_AllOrNothing(t *testing.T) {
	r := New()

	cases := []struct {
		name    string
		dataURL string
	}{
		{"no separator", "data:image/png;base64"},
		{"not a data URL", "http://example.com/code.png"},
		{"bad base64", "data:image/png;base64,@@@@"},
		{"not an image", "data:image/png;base64,aGVsbG8gd29ybGQ="},
	}

	for _, tc := range cases {
		if _, err := r.ComposeSheet(tc.dataURL, testLayout(), labelformat.Label{ProductName: "x"}); err == nil {
			t.Errorf("%s: expected error, got page", tc.name)
		}
	}
}

func TestComposeSheet_RoundTrip(t *testing.T) {
	r := New()

	codeURL, err := EncodeDataURL(solidBlack(200, 80))
	if err != nil {
		t.Fatalf("Failed to encode source: %v", err)
	}

	pageURL, err := r.ComposeSheet(codeURL, testLayout(), labelformat.Label{ProductName: "일반 감자칩 120g"})
	if err != nil {
		t.Fatalf("Failed to compose sheet: %v", err)
	}

	page, err := DecodeDataURL(pageURL)
	if err != nil {
		t.Fatalf("Failed to decode composed page: %v", err)
	}

	if page.Bounds().Dx() != labelformat.PageWidth {
		t.Errorf("Expected page width %d, got %d", labelformat.PageWidth, page.Bounds().Dx())
	}
}

func TestRenderPage_Barcode(t *testing.T) {
	sheet := &labelformat.Sheet{
		Version: "1.0",
		Code:    labelformat.Code{Type: "barcode", Value: "8801234567893", Format: "EAN13"},
		Layout:  testLayout(),
		Label:   labelformat.Label{ProductName: "일반 감자칩 120g"},
	}

	r := New()

	page, err := r.RenderPage(sheet)
	if err != nil {
		t.Fatalf("Failed to render sheet: %v", err)
	}

	if _, found := blackBounds(page, image.Rect(20, 20, 1230, 1744)); !found {
		t.Error("Expected barcode pixels in the first cell")
	}
}
