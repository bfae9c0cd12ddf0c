package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/humlab/amazon-scraper/internal/browser"
	"github.com/humlab/amazon-scraper/internal/parse"
	"github.com/humlab/amazon-scraper/internal/retry"
	"github.com/humlab/amazon-scraper/internal/types"
)

// noTextDescription marks products whose description is image-only.
const noTextDescription = "IMAGE_DESCRIPTION_ONLY"

const (
	deepExtractAttempts = 3
	deepExtractPause    = 30 * time.Second
)

// DeepExtract visits every candidate's product page in listing order.
// Page-load timeouts are retried with a fixed pause; any other failure
// drops the candidate. Survivors receive dense ordinal sort ids in
// survival order, so downstream per-item file naming stays stable.
func (p *Pipeline) DeepExtract(spec RunSpec, candidates []types.Product) []types.Product {
	var products []types.Product
	ordinal := 1

	for _, candidate := range candidates {
		info, err := retry.Do(p.logger, "product info",
			func() (deepInfo, error) { return p.productInfo(candidate.URL) },
			retry.Options[deepInfo]{
				Times:     deepExtractAttempts,
				Sleep:     deepExtractPause,
				Retryable: func(err error) bool { return errors.Is(err, types.ErrPageLoadTimeout) },
			})
		if err != nil {
			p.stats.CandidatesDropped++
			p.logger.Error("skipped: product extraction failed", "url", candidate.URL, "error", err)
			continue
		}

		product := candidate
		info.apply(&product)

		product.SortID = types.FormatSortID(ordinal)
		product.SortTitle = product.SortID + "_" + product.TitleInfo
		product.ImageNames = types.ImageNamesFor(product.SortID, product.ImageURLs)
		product.TLD = tld(spec.BaseURL)
		product.Keyword = spec.Keyword

		products = append(products, product)
		ordinal++
	}

	return products
}

// deepInfo is the field set read from one product page.
type deepInfo struct {
	title           string
	price           string
	imageLink       string
	about           string
	description     string
	descriptionImgs []string
	details         map[string]string
	rating          string
	numberOfRatings string
	store           string
	storeURL        string
	imageURLs       []string
	scrapedAt       string
}

func (d deepInfo) apply(p *types.Product) {
	p.TitleInfo = d.title
	p.PriceInfo = d.price
	p.ImageLink = d.imageLink
	p.About = d.about
	p.Description = d.description
	p.DescriptionImageURLs = d.descriptionImgs
	p.Details = d.details
	p.Rating = d.rating
	p.NumberOfRatings = d.numberOfRatings
	p.Store = d.store
	p.StoreURL = d.storeURL
	p.ImageURLs = d.imageURLs
	p.ScrapedAt = d.scrapedAt
}

// productInfo extracts the deep field set from one product page.
func (p *Pipeline) productInfo(url string) (deepInfo, error) {
	var info deepInfo

	if err := p.session.Navigate(url); err != nil {
		return info, err
	}
	if err := browser.AwaitReady(p.session); err != nil {
		return info, err
	}

	var err error
	if info.title, err = p.gate.FindAttribute(p.session, "title", "innerText", ""); err != nil {
		return info, err
	}
	if info.price, err = p.gate.FindAttribute(p.session, "price", "innerText", ""); err != nil {
		return info, err
	}
	if info.imageLink, err = p.gate.FindAttribute(p.session, "image", "src", ""); err != nil {
		return info, err
	}

	about, err := p.gate.FindAttribute(p.session, "about", "innerText", "")
	if err != nil {
		return info, err
	}
	info.about = strings.TrimSpace(about)

	description, err := p.gate.FindAttribute(p.session, "description", "innerText", noTextDescription)
	if err != nil {
		return info, err
	}
	info.description = strings.TrimSpace(description)

	if info.descriptionImgs, err = p.descriptionImages(); err != nil {
		return info, err
	}

	detailsText, err := p.gate.FindAttribute(p.session, "details", "innerText", "")
	if err != nil {
		return info, err
	}
	info.details = parse.DetailRows(detailsText)

	rating, err := p.gate.FindAttribute(p.session, "rating", "innerText", "")
	if err != nil {
		return info, err
	}
	info.rating = strings.TrimSpace(rating)

	ratings, err := p.gate.FindAttribute(p.session, "number_of_ratings", "innerText", "")
	if err != nil {
		return info, err
	}
	info.numberOfRatings = parse.Digits(ratings)

	store, err := p.gate.FindAttribute(p.session, "store", "innerText", "")
	if err != nil {
		return info, err
	}
	info.store = parse.StoreName(store)

	if info.storeURL, err = p.gate.FindAttribute(p.session, "store", "href", ""); err != nil {
		return info, err
	}

	if info.imageURLs, err = p.imageURLs(); err != nil {
		p.logger.Warn("image urls failed", "url", url, "error", err)
		info.imageURLs = nil
	}

	info.scrapedAt = time.Now().Format("2006-01-02 15:04:05")
	return info, nil
}

// descriptionImages pulls image sources embedded in the description
// fragment. No description means no images, not an error.
func (p *Pipeline) descriptionImages() ([]string, error) {
	el, err := p.gate.Find(p.session, "description")
	if err != nil || el == nil {
		return nil, err
	}
	html, err := el.Attribute("innerHTML")
	if err != nil || html == "" {
		return nil, err
	}
	return parse.DescriptionImages(html)
}

// imageURLs walks the product gallery: hover every visible thumbnail
// so the full-size variants load, then read the main image container.
// data-old-hires is preferred over src; spacer gifs are skipped.
func (p *Pipeline) imageURLs() ([]string, error) {
	thumbs, err := p.gate.FindAll(p.session, "alt_images")
	if err != nil {
		return nil, err
	}
	for _, thumb := range thumbs {
		_, height, err := thumb.Size()
		if err != nil || height == 0 {
			continue
		}
		if err := thumb.Hover(); err != nil {
			continue
		}
		time.Sleep(time.Second)
	}

	container, err := p.gate.Find(p.session, "main_images")
	if err != nil {
		return nil, err
	}
	if container == nil {
		return nil, fmt.Errorf("main image container: %w", types.ErrElementNotFound)
	}

	images, err := container.FindAll("img")
	if err != nil {
		return nil, err
	}

	var urls []string
	for _, image := range images {
		if hires, err := image.Attribute("data-old-hires"); err == nil && hires != "" {
			urls = append(urls, hires)
			continue
		}
		src, err := image.Attribute("src")
		if err != nil {
			continue
		}
		if src != "" && !strings.HasSuffix(src, "gif") {
			urls = append(urls, src)
		}
	}
	return urls, nil
}
