// Package renderer composes A4 label sheets from barcode and QR images
package renderer

import (
	"os"

	"github.com/fogleman/gg"
)

// Cell layout constants, in pixels at page resolution
const (
	textTopPadding = 10 // Gap between cell top and first label line
	contentSpacing = 15 // Gap between text blocks and the code area
	minCodeArea    = 20 // Below this the code is skipped, cell stays text-only
)

// expiryPrefix is printed before the expiry date in every cell
const expiryPrefix = "소비기한 : "

// Renderer draws label sheets onto a gg canvas
type Renderer struct {
	fontPath string
}

// New creates a new renderer with the best available system font
func New() *Renderer {
	return &Renderer{fontPath: findFontPath()}
}

// SetFontPath overrides the font used for label text
func (r *Renderer) SetFontPath(path string) {
	r.fontPath = path
}

// findFontPath returns the first usable system font. Korean-capable fonts
// come first since label text is mostly Hangul.
func findFontPath() string {
	fontPaths := []string{
		"/usr/share/fonts/truetype/nanum/NanumGothic.ttf",
		"/usr/share/fonts/truetype/nanum/NanumBarunGothic.ttf",
		"/usr/share/fonts/opentype/noto/NotoSansCJK-Regular.ttc",
		"/System/Library/Fonts/AppleSDGothicNeo.ttc",
		"/System/Library/Fonts/Supplemental/AppleGothic.ttf",
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
		"C:\\Windows\\Fonts\\malgun.ttf",
	}

	for _, path := range fontPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	// gg falls back to its built-in face
	return ""
}

// setFontSize loads the renderer font at the given size. When no font file
// is available the context keeps its built-in face, which still measures.
func (r *Renderer) setFontSize(ctx *gg.Context, size float64) {
	if r.fontPath == "" {
		return
	}
	if err := ctx.LoadFontFace(r.fontPath, size); err != nil {
		r.fontPath = ""
	}
}
