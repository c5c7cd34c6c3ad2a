package ingest

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractText strips the announcement HTML down to its visible text,
// excluding image tags (their content is recovered separately via OCR).
func ExtractText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style, img").Remove()

	text := doc.Find("body").Text()
	if text == "" {
		text = doc.Text()
	}
	return normalizeWhitespace(text), nil
}

// ImageSources returns the src attribute of every img tag, in document
// order. Empty sources are skipped.
func ImageSources(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var sources []string
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		if src, ok := sel.Attr("src"); ok && strings.TrimSpace(src) != "" {
			sources = append(sources, strings.TrimSpace(src))
		}
	})
	return sources, nil
}

func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	var kept []string
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, "\n")
}
