package export

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/humlab/amazon-scraper/internal/types"
)

// ImageSaver downloads product imagery into a run's output tree.
type ImageSaver struct {
	client *http.Client
	logger *slog.Logger
}

func NewImageSaver(logger *slog.Logger) *ImageSaver {
	return &ImageSaver{
		client: &http.Client{Timeout: 60 * time.Second},
		logger: logger.With("component", "image_saver"),
	}
}

// SaveProductImages downloads a product's gallery images under
// dir/{sort_id}, using the names assigned at harvest time. Individual
// download failures are logged and skipped; the run never fails over a
// single image.
func (s *ImageSaver) SaveProductImages(dir string, product types.Product) {
	target := filepath.Join(dir, product.SortID)
	for i, rawURL := range product.ImageURLs {
		if i >= len(product.ImageNames) {
			break
		}
		s.fetch(rawURL, filepath.Join(target, product.ImageNames[i]))
	}
}

// SaveDescriptionImages downloads images embedded in the product
// description, numbered in document order.
func (s *ImageSaver) SaveDescriptionImages(dir string, product types.Product) {
	target := filepath.Join(dir, product.SortID)
	for i, rawURL := range product.DescriptionImageURLs {
		name := fmt.Sprintf("%s_product_image_%02d%s", product.SortID, i+1, urlExt(rawURL))
		s.fetch(rawURL, filepath.Join(target, name))
	}
}

func (s *ImageSaver) fetch(rawURL, localPath string) {
	if err := s.download(rawURL, localPath); err != nil {
		s.logger.Warn("image download failed", "url", rawURL, "error", err)
		return
	}
	s.logger.Debug("image downloaded", "url", rawURL, "path", localPath)
}

func (s *ImageSaver) download(rawURL, localPath string) error {
	resp, err := s.client.Get(rawURL)
	if err != nil {
		return fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: status %d", rawURL, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return fmt.Errorf("image dir: %w", err)
	}
	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("create image: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(localPath)
		return fmt.Errorf("write image: %w", err)
	}
	return nil
}

func urlExt(rawURL string) string {
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Path != "" {
		if ext := path.Ext(parsed.Path); ext != "" {
			return ext
		}
	}
	return ".jpg"
}
