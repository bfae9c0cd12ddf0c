package types

// Sentiment selects which review filter the review sub-pipeline
// applies. Each sentiment maps to the selector key
// "{sentiment}_reviews" in configuration.
type Sentiment string

const (
	OneStar   Sentiment = "1_star"
	TwoStar   Sentiment = "2_star"
	ThreeStar Sentiment = "3_star"
	FourStar  Sentiment = "4_star"
	FiveStar  Sentiment = "5_star"
	Positive  Sentiment = "positive"
	Critical  Sentiment = "critical"
	AllStars  Sentiment = "all"
)

// Sentiments lists every recognized sentiment.
var Sentiments = []Sentiment{
	OneStar, TwoStar, ThreeStar, FourStar, FiveStar,
	Positive, Critical, AllStars,
}

// Valid reports whether s names a recognized sentiment.
func (s Sentiment) Valid() bool {
	for _, known := range Sentiments {
		if s == known {
			return true
		}
	}
	return false
}

// SelectorKey is the configuration key of this sentiment's review
// filter control.
func (s Sentiment) SelectorKey() string {
	return string(s) + "_reviews"
}

// Review is one customer review record, keyed by product ASIN.
// Independent lifecycle from Product: fetched on demand per exported
// sentiment.
type Review struct {
	ASIN            string
	Author          string
	Rating          string
	Title           string
	LocationAndDate string
	Verified        string
	Text            string
}

// Columns is the review table header.
func (Review) Columns() []string {
	return []string{"asin", "author", "rating", "title", "location_and_date", "verified", "text"}
}

// Row renders the record in Columns order.
func (r Review) Row() []string {
	return []string{r.ASIN, r.Author, r.Rating, r.Title, r.LocationAndDate, r.Verified, r.Text}
}
