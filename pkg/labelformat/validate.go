package labelformat

import (
	"fmt"
)

// Page dimensions in pixels, A4 at roughly 300 DPI
const (
	PageWidth  = 2480
	PageHeight = 3508
)

// CellSize returns the cell dimensions produced by a layout. Margins
// surround every cell including the outer page edge.
func CellSize(l Layout) (int, int) {
	cellW := int((PageWidth - float64(l.Cols+1)*l.HMargin) / float64(l.Cols))
	cellH := int((PageHeight - float64(l.Rows+1)*l.VMargin) / float64(l.Rows))
	return cellW, cellH
}

// Validate validates a Sheet structure
func Validate(s *Sheet) error {
	if s.Version == "" {
		return fmt.Errorf("version is required")
	}
	if s.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected 1.0)", s.Version)
	}

	if err := validateCode(&s.Code); err != nil {
		return err
	}

	if err := validateLayout(&s.Layout); err != nil {
		return err
	}

	if s.Copies < 0 {
		return fmt.Errorf("copies cannot be negative")
	}

	return nil
}

func validateCode(c *Code) error {
	if c.Value == "" {
		return fmt.Errorf("code value is required")
	}

	switch c.Type {
	case "barcode":
		if c.Format != "" {
			validFormats := []string{"CODE128", "CODE39", "EAN13", "EAN8"}
			valid := false
			for _, f := range validFormats {
				if c.Format == f {
					valid = true
					break
				}
			}
			if !valid {
				return fmt.Errorf("invalid barcode format '%s'", c.Format)
			}
		}
	case "qrcode":
		if c.ErrorCorrection != "" {
			validLevels := []string{"L", "M", "Q", "H"}
			valid := false
			for _, l := range validLevels {
				if c.ErrorCorrection == l {
					valid = true
					break
				}
			}
			if !valid {
				return fmt.Errorf("invalid error_correction '%s' (must be L, M, Q, or H)", c.ErrorCorrection)
			}
		}
	default:
		return fmt.Errorf("invalid code type '%s' (must be barcode or qrcode)", c.Type)
	}

	return nil
}

func validateLayout(l *Layout) error {
	if l.Rows < 1 {
		return fmt.Errorf("layout rows must be at least 1")
	}
	if l.Cols < 1 {
		return fmt.Errorf("layout cols must be at least 1")
	}
	if l.HMargin < 0 || l.VMargin < 0 {
		return fmt.Errorf("layout margins cannot be negative")
	}
	if l.LabelFontSize <= 0 {
		return fmt.Errorf("label_font_size must be positive")
	}
	if l.ExpiryFontSize <= 0 {
		return fmt.Errorf("expiry_font_size must be positive")
	}
	if l.MaxLabelLines < 1 {
		return fmt.Errorf("max_label_lines must be at least 1")
	}
	if l.LineSpacing < 0 {
		return fmt.Errorf("line_spacing cannot be negative")
	}

	// The renderer draws whatever geometry it is given, so degenerate grids
	// are rejected here instead.
	cellW, cellH := CellSize(*l)
	if cellW <= 0 || cellH <= 0 {
		return fmt.Errorf("layout produces non-positive cell size %dx%d (too many rows/cols or margins too large)", cellW, cellH)
	}

	return nil
}
