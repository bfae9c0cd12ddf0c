package export

import (
	"encoding/csv"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/humlab/amazon-scraper/internal/types"
)

// utf8BOM prefixes the results table so spreadsheet tools do not
// misread the encoding. Review tables stay plain UTF-8.
const utf8BOM = "\xEF\xBB\xBF"

// csvDelimiter matches the downstream tooling's expectation.
const csvDelimiter = ';'

// ResultsFileName derives the results table name from the storefront
// host and the search keyword.
func ResultsFileName(baseURL, keyword string) string {
	host := baseURL
	if parsed, err := url.Parse(baseURL); err == nil && parsed.Host != "" {
		host = parsed.Host
	}
	host = strings.ReplaceAll(host, "/", "_")
	return host + "_" + keyword + ".csv"
}

// WriteProducts writes the harvested records as a delimited table
// under dir and returns the file path.
func WriteProducts(dir, baseURL, keyword string, products []types.Product) (string, error) {
	path := filepath.Join(dir, ResultsFileName(baseURL, keyword))

	rows := make([][]string, 0, len(products))
	for _, product := range products {
		rows = append(rows, product.Row())
	}
	if err := writeTable(path, utf8BOM, types.Product{}.Columns(), rows); err != nil {
		return "", err
	}
	return path, nil
}

// WriteReviews writes one product's reviews for one sentiment. A
// product without reviews gets a zero-byte file, so a missing file
// always means the step never ran.
func WriteReviews(path string, reviews []types.Review) error {
	if len(reviews) == 0 {
		return writeEmpty(path)
	}
	rows := make([][]string, 0, len(reviews))
	for _, review := range reviews {
		rows = append(rows, review.Row())
	}
	return writeTable(path, "", types.Review{}.Columns(), rows)
}

func writeEmpty(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("table dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return f.Close()
}

func writeTable(path, preamble string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("table dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(preamble); err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	w := csv.NewWriter(f)
	w.Comma = csvDelimiter
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write table: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}
