package ocr

import (
	"strings"
	"unicode"
)

// Candidate digit-run lengths worth treating as product codes:
// EAN-8, UPC-A, EAN-13, GTIN-14
var candidateLengths = map[int]bool{8: true, 12: true, 13: true, 14: true}

// Characters OCR engines routinely misread inside digit runs
var digitConfusions = map[rune]rune{
	'O': '0', 'o': '0', 'Q': '0',
	'I': '1', 'l': '1', '|': '1',
	'Z': '2',
	'S': '5', 's': '5',
	'B': '8',
}

// CleanText normalizes raw OCR output: CRLF to LF, collapsed runs of
// spaces and tabs, trimmed lines, empty lines dropped.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}

	return strings.Join(lines, "\n")
}

// BarcodeCandidates extracts plausible product-code digit runs from OCR
// text. Confusable letters inside a run are mapped to digits first, then
// runs of candidate length survive; 13-digit runs must also pass the
// EAN-13 checksum. Order of first appearance is kept, duplicates dropped.
func BarcodeCandidates(text string) []string {
	var candidates []string
	seen := make(map[string]bool)

	var run []rune
	flush := func() {
		defer func() { run = run[:0] }()

		if !candidateLengths[len(run)] {
			return
		}

		code := string(run)
		if len(run) == 13 && !ean13Valid(code) {
			return
		}

		if !seen[code] {
			seen[code] = true
			candidates = append(candidates, code)
		}
	}

	for _, ch := range text {
		if fixed, ok := digitConfusions[ch]; ok {
			ch = fixed
		}

		if unicode.IsDigit(ch) {
			run = append(run, ch)
		} else {
			flush()
		}
	}
	flush()

	return candidates
}

// ean13Valid checks the EAN-13 check digit
func ean13Valid(code string) bool {
	if len(code) != 13 {
		return false
	}

	sum := 0
	for i, ch := range code[:12] {
		digit := int(ch - '0')
		if i%2 == 1 {
			digit *= 3
		}
		sum += digit
	}

	check := (10 - sum%10) % 10
	return check == int(code[12]-'0')
}
