// Package types holds the record shapes shared by the pipeline and
// the export layer.
package types

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Product is one harvest record. Listing fields are filled at the
// candidate-listing stage; deep fields and pipeline metadata only for
// candidates that survive deep extraction.
type Product struct {
	// Listing fields.
	Title         string
	Price         string
	URL           string
	ASIN          string
	SimplifiedURL string
	IsSponsored   bool

	// Deep fields.
	TitleInfo            string
	PriceInfo            string
	ImageLink            string
	About                string
	Description          string
	Details              map[string]string
	Rating               string
	NumberOfRatings      string
	Store                string
	StoreURL             string
	ImageURLs            []string
	DescriptionImageURLs []string
	ScrapedAt            string

	// Pipeline metadata. SortID is assigned only to survivors, dense
	// and zero padded, so downstream file naming stays stable.
	SortID     string
	SortTitle  string
	TLD        string
	Keyword    string
	ImageNames []string
}

// FormatSortID renders a dense ordinal as the zero-padded sort id.
func FormatSortID(n int) string {
	return fmt.Sprintf("%04d", n)
}

// ImageNamesFor derives per-image output filenames from the sort id: a
// letter suffix in listing order plus the source image's extension.
func ImageNamesFor(sortID string, urls []string) []string {
	names := make([]string, 0, len(urls))
	for i, u := range urls {
		ext := strings.TrimPrefix(path.Ext(strippedPath(u)), ".")
		names = append(names, fmt.Sprintf("%s%c.%s", sortID, 'a'+rune(i), ext))
	}
	return names
}

func strippedPath(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		return u.Path
	}
	return raw
}

// Columns is the results table header, sort_title first so spreadsheet
// sorting follows the harvest order.
func (Product) Columns() []string {
	return []string{
		"sort_title", "sort_id", "title", "price", "url", "asin",
		"simplified_url", "is_sponsored", "title_info", "price_info",
		"image_link", "about", "product_description", "product_details",
		"rating", "number_of_ratings", "store", "store_url",
		"image_urls", "description_image_urls", "image_names",
		"tld", "keyword", "time",
	}
}

// Row renders the record in Columns order.
func (p Product) Row() []string {
	details, _ := json.Marshal(p.Details)
	return []string{
		p.SortTitle, p.SortID, p.Title, p.Price, p.URL, p.ASIN,
		p.SimplifiedURL, fmt.Sprintf("%t", p.IsSponsored), p.TitleInfo, p.PriceInfo,
		p.ImageLink, p.About, p.Description, string(details),
		p.Rating, p.NumberOfRatings, p.Store, p.StoreURL,
		strings.Join(p.ImageURLs, "|"), strings.Join(p.DescriptionImageURLs, "|"), strings.Join(p.ImageNames, "|"),
		p.TLD, p.Keyword, p.ScrapedAt,
	}
}
