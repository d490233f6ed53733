// Package labelformat defines the types for the .label sheet format
package labelformat

// Sheet represents the root structure of a .label file: one barcode or QR
// code repeated over a grid of product labels on an A4 page.
type Sheet struct {
	Version     string `json:"version"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	CreatedWith string `json:"created_with,omitempty"`
	Code        Code   `json:"code"`
	Layout      Layout `json:"layout"`
	Label       Label  `json:"label"`
	Copies      int    `json:"copies,omitempty"` // Number of pages to render
}

// Code describes the machine-readable code printed in every cell
type Code struct {
	Type            string `json:"type"`                       // "barcode" or "qrcode"
	Value           string `json:"value"`                      // Encoded content
	Format          string `json:"format,omitempty"`           // CODE128, CODE39, EAN13, EAN8 (barcode only)
	ErrorCorrection string `json:"error_correction,omitempty"` // L, M, Q, H (qrcode only)
}

// Layout describes the page grid geometry in pixels at 300 DPI
type Layout struct {
	Rows           int     `json:"rows"`
	Cols           int     `json:"cols"`
	HMargin        float64 `json:"h_margin"`
	VMargin        float64 `json:"v_margin"`
	LabelFontSize  float64 `json:"label_font_size,omitempty"`
	ExpiryFontSize float64 `json:"expiry_font_size,omitempty"`
	MaxLabelLines  int     `json:"max_label_lines,omitempty"`
	LineSpacing    float64 `json:"line_spacing,omitempty"`
}

// Label describes the human-readable text printed in every cell
type Label struct {
	ProductName string `json:"product_name"`
	AddExpiry   bool   `json:"add_expiry,omitempty"`
	ExpiryText  string `json:"expiry_text,omitempty"`
}
