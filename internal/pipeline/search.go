package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/humlab/amazon-scraper/internal/browser"
	"github.com/humlab/amazon-scraper/internal/export"
	"github.com/humlab/amazon-scraper/internal/types"
)

// rankingMarker is the token search result URLs carry on the first
// page; synthesized page URLs replace it with the per-page variant.
const rankingMarker = "nb_sb_noss"

// SearchResultPages submits the keyword and synthesizes one listing
// page URL per result page, clamped to maxPages. The search box is the
// one element whose absence is fatal; a missing or unreadable page
// count means a single page, the common case.
func (p *Pipeline) SearchResultPages(baseURL, keyword string, maxPages int) ([]string, error) {
	if err := p.session.Navigate(baseURL); err != nil {
		return nil, err
	}

	if err := p.gate.Wait(p.session, "search_box", 30*time.Second); err != nil {
		return nil, err
	}
	box, err := p.gate.Find(p.session, "search_box")
	if err != nil {
		return nil, err
	}
	if box == nil {
		return nil, fmt.Errorf("search box: %w", types.ErrElementNotFound)
	}
	if err := box.Input(keyword); err != nil {
		return nil, fmt.Errorf("enter keyword: %w", err)
	}
	if err := box.PressEnter(); err != nil {
		return nil, fmt.Errorf("submit search: %w", err)
	}

	if err := browser.AwaitReady(p.session); err != nil {
		return nil, err
	}
	p.gate.RejectCookies(p.session)

	return p.discoverPages(maxPages)
}

// discoverPages reads the page-count element and builds the listing
// page URLs. Any failure to read or parse the count collapses to one
// page; the site omits the element on single-page results, so this is
// the expected fallback, not an error.
func (p *Pipeline) discoverPages(maxPages int) ([]string, error) {
	current, err := p.session.CurrentURL()
	if err != nil {
		return nil, err
	}

	count, err := p.readPageCount()
	if err != nil {
		p.logger.Info("found only one page", "reason", err)
		return []string{current}, nil
	}
	p.logger.Info("found result pages", "count", count)

	if maxPages > 0 && count > maxPages {
		count = maxPages
		p.logger.Info("max search result pages applied", "max", maxPages)
	}
	if count <= 1 {
		return []string{current}, nil
	}

	pages := []string{current}
	for page := 2; page <= count; page++ {
		pages = append(pages, fmt.Sprintf("%s&page=%d",
			strings.Replace(current, rankingMarker, fmt.Sprintf("sr_pg_%d", page-1), 1), page))
	}
	return pages, nil
}

func (p *Pipeline) readPageCount() (int, error) {
	if err := p.gate.Wait(p.session, "number_of_pages", 30*time.Second); err != nil {
		return 0, err
	}
	text, err := p.gate.FindAttribute(p.session, "number_of_pages", "textContent", "1")
	if err != nil {
		return 0, err
	}
	count, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("parse page count %q: %w", text, err)
	}
	return count, nil
}

// CollectCandidates walks the listing pages in order, accumulating
// listing records until the result cap is reached. A page that fails
// is skipped, not fatal to the run.
func (p *Pipeline) CollectCandidates(pages []string, spec RunSpec) []types.Product {
	var candidates []types.Product
	for i, page := range pages {
		shot := ""
		if spec.OutputDir != "" {
			shot = filepath.Join(spec.OutputDir, fmt.Sprintf("search_page_%02d.png", i+1))
		}

		found, err := p.ProductsOnPage(page, spec.BaseURL, shot)
		if err != nil {
			p.logger.Error("skipped: listing page failed", "page", page, "error", err)
			continue
		}
		p.stats.PagesVisited++
		candidates = append(candidates, found...)

		if spec.MaxResults > 0 && len(candidates) >= spec.MaxResults {
			p.logger.Info("result cap reached, stopping search", "max_results", spec.MaxResults)
			break
		}
	}

	if spec.MaxResults > 0 && len(candidates) > spec.MaxResults {
		candidates = candidates[:spec.MaxResults]
	}
	return candidates
}

// ProductsOnPage navigates to one listing page and extracts identity
// and listing fields from every product container. A container that
// fails extraction, or carries no ASIN, is skipped.
func (p *Pipeline) ProductsOnPage(page, baseURL, screenshotPath string) ([]types.Product, error) {
	if err := p.session.Navigate(page); err != nil {
		return nil, err
	}
	if err := browser.AwaitReady(p.session); err != nil {
		return nil, err
	}

	if screenshotPath != "" {
		// Side effect, independent of extraction success.
		if err := export.SavePageAsPNG(p.session, p.gate, "", screenshotPath, p.logger); err != nil {
			p.logger.Warn("listing page screenshot failed", "page", page, "error", err)
		}
	}

	containers, err := p.gate.FindAll(p.session, "products")
	if err != nil {
		return nil, err
	}

	var products []types.Product
	for _, container := range containers {
		product, err := p.listingFields(container, baseURL)
		if err != nil {
			p.logger.Warn("skipped: product container failed", "page", page, "error", err)
			continue
		}
		products = append(products, product)
	}

	p.logger.Info("processed listing page", "page", page, "products", len(products))
	return products, nil
}

func (p *Pipeline) listingFields(container browser.Element, baseURL string) (types.Product, error) {
	asin, err := container.Attribute("data-asin")
	if err != nil {
		return types.Product{}, err
	}
	if asin == "" {
		return types.Product{}, errors.New("container has no asin")
	}

	title, err := p.gate.FindAttribute(container, "product_title", "textContent", "")
	if err != nil {
		return types.Product{}, err
	}
	price, err := p.gate.FindAttribute(container, "product_price", "innerText", "")
	if err != nil {
		return types.Product{}, err
	}
	href, err := p.gate.FindAttribute(container, "product_url", "href", "")
	if err != nil {
		return types.Product{}, err
	}
	sponsored, err := p.gate.FindAttribute(container, "sponsored", "innerText", "")
	if err != nil {
		return types.Product{}, err
	}

	return types.Product{
		Title:         title,
		Price:         price,
		URL:           href,
		ASIN:          asin,
		SimplifiedURL: baseURL + "/dp/" + asin,
		IsSponsored:   sponsored != "",
	}, nil
}
