package wordpress

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const blockSelector = "p, div, br, li, h1, h2, h3, h4, h5, h6, tr, td, th, blockquote, figcaption, pre"

// PlainText strips markup, decodes entities and collapses runs of whitespace
// into single spaces. It is pure and deterministic.
func PlainText(markup string) string {
	if markup == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return strings.Join(strings.Fields(markup), " ")
	}
	doc.Find("script, style").Remove()

	// Separate block elements so adjacent words do not merge once tags are gone.
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		s.AfterNodes(&html.Node{Type: html.TextNode, Data: " "})
	})

	return strings.Join(strings.Fields(doc.Text()), " ")
}
