package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// emptyResultSelectors match the markers the site renders for a search without hits
var emptyResultSelectors = []string{
	".pc-empty",
	".empty-content",
	".no-result",
	".search-empty",
}

// PageDiagnostics summarises a page on which an expected element was missing
type PageDiagnostics struct {
	Title         string // <title> of the page
	SelectorCount int    // number of elements matching the expected selector
	EmptyResult   bool   // page shows a "no results" marker
	Message       string // text of the "no results" marker, if any
}

// PageDiagnosticsParser inspects a page snapshot for a single selector
type PageDiagnosticsParser struct {
	selector string
}

// NewPageDiagnosticsParser creates a parser that counts matches of selector
func NewPageDiagnosticsParser(selector string) SingleResultParser[PageDiagnostics] {
	return &PageDiagnosticsParser{selector: selector}
}

// ParseHtml parses a page snapshot and reports what it contains
func (p *PageDiagnosticsParser) ParseHtml(body io.Reader) (PageDiagnostics, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return PageDiagnostics{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	result := PageDiagnostics{
		Title:         strings.TrimSpace(doc.Find("title").First().Text()),
		SelectorCount: doc.Find(p.selector).Length(),
	}

	for _, sel := range emptyResultSelectors {
		marker := doc.Find(sel).First()
		if marker.Length() == 0 {
			continue
		}
		result.EmptyResult = true
		result.Message = strings.Join(strings.Fields(marker.Text()), " ")
		break
	}

	return result, nil
}
