package renderer

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/mkjmk-alt/label-engine/pkg/labelformat"
)

// RenderSheet tiles src over an A4 page according to the layout, drawing the
// product name and optional expiry text above the code in every cell. The
// page is all-or-nothing: any failure returns before an image escapes.
func (r *Renderer) RenderSheet(src image.Image, layout labelformat.Layout, label labelformat.Label) (image.Image, error) {
	if src == nil {
		return nil, fmt.Errorf("source code image is required")
	}
	if src.Bounds().Dx() == 0 || src.Bounds().Dy() == 0 {
		return nil, fmt.Errorf("source code image is empty")
	}

	ctx := gg.NewContext(labelformat.PageWidth, labelformat.PageHeight)
	ctx.SetColor(color.White)
	ctx.Clear()
	ctx.SetColor(color.Black)

	cellW, cellH := labelformat.CellSize(layout)

	// Row-major order. Cells are independent, the order only matters for
	// reproducibility.
	for row := 0; row < layout.Rows; row++ {
		for col := 0; col < layout.Cols; col++ {
			x := layout.HMargin + float64(col)*(float64(cellW)+layout.HMargin)
			y := layout.VMargin + float64(row)*(float64(cellH)+layout.VMargin)
			r.drawCell(ctx, src, layout, label, x, y, float64(cellW), float64(cellH))
		}
	}

	return ctx.Image(), nil
}

// drawCell lays out one label cell: wrapped name, optional expiry line,
// then the code image fitted into whatever vertical space remains.
func (r *Renderer) drawCell(ctx *gg.Context, src image.Image, layout labelformat.Layout, label labelformat.Label, x, y, cellW, cellH float64) {
	r.setFontSize(ctx, layout.LabelFontSize)

	measure := func(s string) float64 {
		w, _ := ctx.MeasureString(s)
		return w
	}

	lines := wrapText(measure, label.ProductName, cellW-10, layout.MaxLabelLines)

	cursor := y + textTopPadding
	for _, line := range lines {
		w, _ := ctx.MeasureString(line)
		ctx.DrawString(line, x+(cellW-w)/2, cursor+layout.LabelFontSize)
		cursor += layout.LabelFontSize + layout.LineSpacing
	}

	// Empty expiry text skips the line entirely, even with AddExpiry set
	if label.AddExpiry && label.ExpiryText != "" {
		cursor += contentSpacing
		r.setFontSize(ctx, layout.ExpiryFontSize)

		text := expiryPrefix + label.ExpiryText
		w, _ := ctx.MeasureString(text)
		ctx.DrawString(text, x+cellW-5-w, cursor+layout.ExpiryFontSize)
		cursor += layout.ExpiryFontSize
	}

	areaY := cursor + contentSpacing
	areaH := (y + cellH) - areaY - 10
	if areaH <= minCodeArea {
		// Not enough room left, the cell stays text-only
		return
	}

	// Fit the code to the cell width, clamp to the remaining height
	ratio := float64(src.Bounds().Dy()) / float64(src.Bounds().Dx())
	newW := cellW - 10
	newH := newW * ratio
	if newH > areaH {
		newH = areaH
		newW = newH / ratio
	}
	if int(newW) < 1 || int(newH) < 1 {
		return
	}

	scaled := imaging.Resize(src, int(newW), int(newH), imaging.Lanczos)

	imgX := x + (cellW-float64(scaled.Bounds().Dx()))/2
	imgY := areaY + (areaH-float64(scaled.Bounds().Dy()))/2
	ctx.DrawImage(scaled, int(imgX), int(imgY))
}

// ComposeSheet is the data-URL contract: a rendered code image in, a
// composed PNG page out. Decode failure means no page at all.
func (r *Renderer) ComposeSheet(codeDataURL string, layout labelformat.Layout, label labelformat.Label) (string, error) {
	src, err := DecodeDataURL(codeDataURL)
	if err != nil {
		return "", fmt.Errorf("failed to decode code image: %w", err)
	}

	page, err := r.RenderSheet(src, layout, label)
	if err != nil {
		return "", err
	}

	return EncodeDataURL(page)
}

// RenderPage renders a complete .label sheet: the code image is generated
// from its code section and tiled over the page.
func (r *Renderer) RenderPage(sheet *labelformat.Sheet) (image.Image, error) {
	src, err := CodeImage(sheet.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to generate code image: %w", err)
	}

	return r.RenderSheet(src, sheet.Layout, sheet.Label)
}
