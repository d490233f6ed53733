package renderer

// wrapText greedily wraps text into at most maxLines lines whose measured
// width stays within maxWidth. Wrapping is rune-by-rune rather than
// word-by-word: Korean label text has no space-delimited words and breaking
// mid-syllable-block is acceptable. Input past the line cap is dropped.
func wrapText(measure func(string) float64, text string, maxWidth float64, maxLines int) []string {
	if maxLines < 1 {
		return nil
	}

	var lines []string
	current := ""

	for _, ch := range text {
		trial := current + string(ch)

		if measure(trial) > maxWidth && current != "" {
			lines = append(lines, current)
			if len(lines) >= maxLines {
				return lines
			}
			current = string(ch)
		} else {
			// A single rune wider than maxWidth still gets its own line:
			// it is only committed once the next rune arrives.
			current = trial
		}
	}

	if current != "" && len(lines) < maxLines {
		lines = append(lines, current)
	}

	return lines
}
