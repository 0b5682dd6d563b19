// Package goquery extracts per-symbol documentation blocks from rendered
// Sphinx HTML pages using CSS selectors.
package goquery

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/lmmx/reswirl"
)

// ExtractFragment returns the HTML of the documentation block anchored at
// the given fragment id. Sphinx renders API entries as a dt carrying the
// anchor followed by a dd with the body, so for dt anchors the sibling dd
// is included. An empty fragment selects the page's main content region.
func ExtractFragment(html, fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", reswirl.Errorf(reswirl.EINVALID, "failed to parse HTML: %v", err)
	}

	if fragment == "" {
		return extractMain(doc)
	}

	sel := doc.Find(fmt.Sprintf("[id=%q]", fragment)).First()
	if sel.Length() == 0 {
		return "", reswirl.Errorf(reswirl.ENOTFOUND, "anchor %q not found in page", fragment)
	}

	out, err := goquery.OuterHtml(sel)
	if err != nil {
		return "", reswirl.Errorf(reswirl.EINTERNAL, "rendering anchor %q: %v", fragment, err)
	}

	if goquery.NodeName(sel) == "dt" {
		next := sel.Next()
		if goquery.NodeName(next) == "dd" {
			body, err := goquery.OuterHtml(next)
			if err != nil {
				return "", reswirl.Errorf(reswirl.EINTERNAL, "rendering anchor %q: %v", fragment, err)
			}
			out += body
		}
	}

	return out, nil
}

// Main-content selectors in preference order, covering the common Sphinx
// themes.
var mainSelectors = []string{
	"div[role=main]",
	"main",
	"article",
	"body",
}

func extractMain(doc *goquery.Document) (string, error) {
	for _, selector := range mainSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		out, err := goquery.OuterHtml(sel)
		if err != nil {
			return "", reswirl.Errorf(reswirl.EINTERNAL, "rendering main content: %v", err)
		}
		return out, nil
	}
	return "", reswirl.Errorf(reswirl.ENOTFOUND, "no main content region found in page")
}
