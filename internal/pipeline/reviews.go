package pipeline

import (
	"fmt"
	"strings"

	"github.com/humlab/amazon-scraper/internal/browser"
	"github.com/humlab/amazon-scraper/internal/types"
)

// allStarsLabel is the dropdown entry that resets the star filter
// before a sentiment filter is applied.
const allStarsLabel = "All stars"

// Reviews collects the reviews of one product filtered to a sentiment.
// A product with no review section, or a storefront that does not
// offer the requested filter, yields an empty slice rather than an
// error.
func (p *Pipeline) Reviews(baseURL, asin string, sentiment types.Sentiment) ([]types.Review, error) {
	if !sentiment.Valid() {
		return nil, fmt.Errorf("unknown review sentiment %q", sentiment)
	}

	url := baseURL + "/product-reviews/" + asin
	if err := p.session.Navigate(url); err != nil {
		return nil, err
	}
	if err := browser.AwaitReady(p.session); err != nil {
		return nil, err
	}
	p.gate.RejectCookies(p.session)
	p.gate.DismissPopup(p.session, "dismiss_delivery_options")

	filtered, err := p.selectSentiment(asin, sentiment)
	if err != nil {
		return nil, err
	}
	if !filtered {
		return nil, nil
	}

	// The filter change replaces the review list in place; a reload
	// guarantees fresh element handles.
	if err := p.session.Refresh(); err != nil {
		return nil, err
	}
	if err := browser.AwaitReady(p.session); err != nil {
		return nil, err
	}

	containers, err := p.gate.FindAll(p.session, "review_elements")
	if err != nil {
		return nil, err
	}

	reviews := make([]types.Review, 0, len(containers))
	for _, container := range containers {
		review, err := p.reviewFields(container, asin)
		if err != nil {
			p.logger.Warn("skipped: review extraction failed", "asin", asin, "error", err)
			continue
		}
		reviews = append(reviews, review)
	}

	p.logger.Info("reviews collected", "asin", asin, "sentiment", sentiment, "count", len(reviews))
	return reviews, nil
}

// selectSentiment opens the star filter dropdown and picks the
// sentiment entry. Either control being absent means the storefront
// has no filterable reviews; that ends the product's collection
// without error.
func (p *Pipeline) selectSentiment(asin string, sentiment types.Sentiment) (bool, error) {
	button, err := p.gate.FindWithText(p.session, "reviews_stars_button", allStarsLabel)
	if err != nil {
		return false, err
	}
	if button == nil {
		p.logger.Warn("review filter button missing", "asin", asin)
		return false, nil
	}
	if err := button.Click(); err != nil {
		return false, err
	}

	entry, err := p.gate.Find(p.session, sentiment.SelectorKey())
	if err != nil {
		return false, err
	}
	if entry == nil {
		p.logger.Warn("review filter entry missing", "asin", asin, "sentiment", sentiment)
		return false, nil
	}
	if err := entry.Click(); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Pipeline) reviewFields(container browser.Element, asin string) (types.Review, error) {
	review := types.Review{ASIN: asin}

	author, err := p.gate.FindAttribute(container, "review_author", "textContent", "")
	if err != nil {
		return review, err
	}
	review.Author = strings.TrimSpace(author)

	rating, err := p.gate.FindAttribute(container, "review_rating", "innerHTML", "")
	if err != nil {
		return review, err
	}
	review.Rating = strings.TrimSpace(rating)

	title, err := p.gate.FindAttribute(container, "review_title", "textContent", "")
	if err != nil {
		return review, err
	}
	review.Title = strings.TrimSpace(title)

	location, err := p.gate.FindAttribute(container, "review_date", "textContent", "")
	if err != nil {
		return review, err
	}
	review.LocationAndDate = strings.TrimSpace(location)

	verified, err := p.gate.FindAttribute(container, "review_verified", "textContent", "")
	if err != nil {
		return review, err
	}
	review.Verified = strings.TrimSpace(verified)

	text, err := p.gate.FindAttribute(container, "review_text", "innerText", "")
	if err != nil {
		return review, err
	}
	review.Text = strings.TrimSpace(text)

	return review, nil
}
