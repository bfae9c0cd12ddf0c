// Package storage mirrors harvested records into MongoDB when a run
// enables it. The CSV export stays the primary artifact; this is a
// secondary sink and its failures never abort a run.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/humlab/amazon-scraper/internal/types"
)

// MongoExporter writes harvest records to a MongoDB collection.
type MongoExporter struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewMongoExporter connects and pings within a short deadline.
func NewMongoExporter(uri, database, collection string, logger *slog.Logger) (*MongoExporter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	return &MongoExporter{
		client:     client,
		collection: client.Database(database).Collection(collection),
		logger:     logger.With("component", "mongo_exporter"),
	}, nil
}

// StoreProducts inserts the run's surviving records as one batch.
func (e *MongoExporter) StoreProducts(products []types.Product) error {
	if len(products) == 0 {
		return nil
	}

	docs := make([]any, len(products))
	for i, p := range products {
		docs[i] = bson.M{
			"sort_id":                p.SortID,
			"sort_title":             p.SortTitle,
			"title":                  p.Title,
			"price":                  p.Price,
			"url":                    p.URL,
			"asin":                   p.ASIN,
			"simplified_url":         p.SimplifiedURL,
			"is_sponsored":           p.IsSponsored,
			"title_info":             p.TitleInfo,
			"price_info":             p.PriceInfo,
			"image_link":             p.ImageLink,
			"about":                  p.About,
			"product_description":    p.Description,
			"product_details":        p.Details,
			"rating":                 p.Rating,
			"number_of_ratings":      p.NumberOfRatings,
			"store":                  p.Store,
			"store_url":              p.StoreURL,
			"image_urls":             p.ImageURLs,
			"description_image_urls": p.DescriptionImageURLs,
			"image_names":            p.ImageNames,
			"tld":                    p.TLD,
			"keyword":                p.Keyword,
			"time":                   p.ScrapedAt,
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := e.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("mongodb insert: %w", err)
	}
	e.logger.Debug("records stored in mongodb", "count", len(products))
	return nil
}

// Close disconnects the client.
func (e *MongoExporter) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return e.client.Disconnect(ctx)
}
