package labelformat

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Default layout values applied when a .label file omits them
const (
	DefaultLabelFontSize  = 40.0
	DefaultExpiryFontSize = 32.0
	DefaultMaxLabelLines  = 2
	DefaultLineSpacing    = 6.0
)

// Parse parses a .label file from a byte slice
func Parse(data []byte) (*Sheet, error) {
	var sheet Sheet
	if err := json.Unmarshal(data, &sheet); err != nil {
		return nil, fmt.Errorf("failed to parse label sheet: %w", err)
	}

	ApplyDefaults(&sheet)

	if err := Validate(&sheet); err != nil {
		return nil, err
	}

	return &sheet, nil
}

// ParseFile parses a .label file from disk
func ParseFile(path string) (*Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read label file: %w", err)
	}

	return Parse(data)
}

// LoadFromPathOrURL parses a .label file from a local path or an
// http(s) URL
func LoadFromPathOrURL(pathOrURL string) (*Sheet, error) {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		client := &http.Client{Timeout: 10 * time.Second}

		resp, err := client.Get(pathOrURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch label sheet: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("failed to fetch label sheet: HTTP %d", resp.StatusCode)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read label sheet: %w", err)
		}

		return Parse(data)
	}

	return ParseFile(pathOrURL)
}

// ApplyDefaults fills in omitted layout fields and the copy count
func ApplyDefaults(s *Sheet) {
	if s.Code.Type == "" {
		s.Code.Type = "barcode"
	}
	if s.Code.Type == "barcode" && s.Code.Format == "" {
		s.Code.Format = "CODE128"
	}
	if s.Layout.LabelFontSize == 0 {
		s.Layout.LabelFontSize = DefaultLabelFontSize
	}
	if s.Layout.ExpiryFontSize == 0 {
		s.Layout.ExpiryFontSize = DefaultExpiryFontSize
	}
	if s.Layout.MaxLabelLines == 0 {
		s.Layout.MaxLabelLines = DefaultMaxLabelLines
	}
	if s.Layout.LineSpacing == 0 {
		s.Layout.LineSpacing = DefaultLineSpacing
	}
	if s.Copies == 0 {
		s.Copies = 1
	}
}

// ToJSON converts a Sheet to JSON bytes
func (s *Sheet) ToJSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// SaveToFile saves a Sheet to a file
func (s *Sheet) SaveToFile(path string) error {
	data, err := s.ToJSON()
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
