package chat

import (
	"sort"
	"strings"
)

// Snippet is a scored context window cut out of a corpus document
type Snippet struct {
	DocID string `json:"doc_id"`
	Title string `json:"title"`
	Text  string `json:"text"`
	Score int    `json:"score"`
}

// Context window around the first term hit, in runes
const (
	snippetBefore = 80
	snippetAfter  = 320
)

// Search scores corpus documents by query-term occurrences and returns up
// to k snippets, best first. Ties keep corpus order.
func Search(query string, k int) []Snippet {
	terms := queryTerms(query)
	if len(terms) == 0 || k < 1 {
		return nil
	}

	var snippets []Snippet

	for _, doc := range corpus {
		body := strings.ToLower(doc.Body)
		title := strings.ToLower(doc.Title)

		score := 0
		firstHit := -1

		for _, term := range terms {
			score += strings.Count(body, term)
			// Title hits weigh more, titles are what users ask about
			score += 3 * strings.Count(title, term)

			if idx := strings.Index(body, term); idx >= 0 {
				if firstHit < 0 || idx < firstHit {
					firstHit = idx
				}
			}
		}

		if score == 0 {
			continue
		}

		snippets = append(snippets, Snippet{
			DocID: doc.ID,
			Title: doc.Title,
			Text:  contextWindow(doc.Body, byteToRuneIndex(doc.Body, firstHit)),
			Score: score,
		})
	}

	sort.SliceStable(snippets, func(i, j int) bool {
		return snippets[i].Score > snippets[j].Score
	})

	if len(snippets) > k {
		snippets = snippets[:k]
	}

	return snippets
}

func queryTerms(query string) []string {
	var terms []string
	for _, field := range strings.Fields(strings.ToLower(query)) {
		// Single-rune terms match everywhere and drown the scoring
		if len([]rune(field)) >= 2 {
			terms = append(terms, field)
		}
	}
	return terms
}

// contextWindow slices the document body around the hit position
func contextWindow(body string, hit int) string {
	runes := []rune(body)
	if hit < 0 {
		hit = 0
	}

	start := hit - snippetBefore
	if start < 0 {
		start = 0
	}
	end := hit + snippetAfter
	if end > len(runes) {
		end = len(runes)
	}

	return string(runes[start:end])
}

// byteToRuneIndex converts a byte offset from strings.Index into a rune
// offset usable for window slicing. Title-only hits have no body offset.
func byteToRuneIndex(s string, byteIdx int) int {
	if byteIdx < 0 {
		return 0
	}
	return len([]rune(s[:byteIdx]))
}
