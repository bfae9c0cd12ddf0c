package export

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/jarcoal/httpmock"

	"github.com/humlab/amazon-scraper/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestSaveProductImages(t *testing.T) {
	saver := NewImageSaver(testLogger)
	httpmock.ActivateNonDefault(saver.client)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "https://img.test/main.jpg",
		httpmock.NewBytesResponder(200, []byte("jpegbytes")))
	httpmock.RegisterResponder("GET", "https://img.test/side.png",
		httpmock.NewBytesResponder(200, []byte("pngbytes")))

	dir := t.TempDir()
	product := types.Product{
		SortID:     "0001",
		ImageURLs:  []string{"https://img.test/main.jpg", "https://img.test/side.png"},
		ImageNames: []string{"0001a.jpg", "0001b.png"},
	}
	saver.SaveProductImages(dir, product)

	for _, name := range product.ImageNames {
		raw, err := os.ReadFile(filepath.Join(dir, "0001", name))
		if err != nil {
			t.Fatalf("image %s not written: %v", name, err)
		}
		if len(raw) == 0 {
			t.Errorf("image %s empty", name)
		}
	}
}

func TestSaveProductImagesSkipsFailures(t *testing.T) {
	saver := NewImageSaver(testLogger)
	httpmock.ActivateNonDefault(saver.client)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "https://img.test/gone.jpg",
		httpmock.NewStringResponder(http.StatusNotFound, "nope"))
	httpmock.RegisterResponder("GET", "https://img.test/ok.jpg",
		httpmock.NewBytesResponder(200, []byte("jpegbytes")))

	dir := t.TempDir()
	product := types.Product{
		SortID:     "0002",
		ImageURLs:  []string{"https://img.test/gone.jpg", "https://img.test/ok.jpg"},
		ImageNames: []string{"0002a.jpg", "0002b.jpg"},
	}
	saver.SaveProductImages(dir, product)

	if _, err := os.Stat(filepath.Join(dir, "0002", "0002a.jpg")); !os.IsNotExist(err) {
		t.Error("failed download must not leave a file")
	}
	if _, err := os.Stat(filepath.Join(dir, "0002", "0002b.jpg")); err != nil {
		t.Errorf("healthy download skipped: %v", err)
	}
}

func TestSaveDescriptionImagesNaming(t *testing.T) {
	saver := NewImageSaver(testLogger)
	httpmock.ActivateNonDefault(saver.client)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "https://img.test/desc.png",
		httpmock.NewBytesResponder(200, []byte("pngbytes")))

	dir := t.TempDir()
	product := types.Product{
		SortID:               "0003",
		DescriptionImageURLs: []string{"https://img.test/desc.png"},
	}
	saver.SaveDescriptionImages(dir, product)

	if _, err := os.Stat(filepath.Join(dir, "0003", "0003_product_image_01.png")); err != nil {
		t.Errorf("description image missing: %v", err)
	}
}
