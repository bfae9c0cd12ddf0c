// Package parse holds the static extraction helpers the deep
// extraction stage applies to already-fetched fragments: description
// HTML, detail tables, rating counts, store names.
package parse

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DescriptionImages extracts the image sources embedded in a product
// description fragment, skipping spacer gifs.
func DescriptionImages(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var urls []string
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		if !ok || src == "" || strings.HasSuffix(src, "gif") {
			return
		}
		urls = append(urls, src)
	})
	return urls, nil
}

// DetailRows parses the product-details text block into key/value
// pairs. Each line holds one pair split on the first tab; lines
// without a tab are skipped.
func DetailRows(text string) map[string]string {
	details := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		key, value, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		details[key] = value
	}
	return details
}

// Digits keeps only the decimal digits of s, the shape a localized
// "12,345 ratings" count reduces to.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// storeBoilerplate lists the phrases marketplace store links wrap
// around the actual store name.
var storeBoilerplate = []string{"Visit the ", "Brand: ", " Store", " Brand"}

// StoreName strips the known boilerplate phrases from a store link's
// text.
func StoreName(s string) string {
	for _, phrase := range storeBoilerplate {
		s = strings.ReplaceAll(s, phrase, "")
	}
	return strings.TrimSpace(s)
}
