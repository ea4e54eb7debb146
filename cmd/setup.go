package cmd

import (
	"context"
	"fmt"

	"github.com/hurou927/text2sql/internal/catalog"
	"github.com/hurou927/text2sql/internal/converter"
	"github.com/hurou927/text2sql/internal/model"
	"github.com/hurou927/text2sql/internal/schema"
)

// loadCatalog reads and validates the configured schema document.
func loadCatalog() (*catalog.Catalog, error) {
	if err := cfg.ValidateForConvert(); err != nil {
		return nil, err
	}
	doc, err := schema.LoadFile(cfg.Schema)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Load(doc)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", cfg.Schema, err)
	}
	return cat, nil
}

// newConverter builds the catalog, the optional model strategy and the
// converter from the current config.
func newConverter(ctx context.Context, cacheSize int) (*converter.Converter, error) {
	cat, err := loadCatalog()
	if err != nil {
		return nil, err
	}

	strategy, err := model.New(ctx, model.Config{
		Provider: cfg.Model.Provider,
		Name:     cfg.Model.Name,
		APIKey:   cfg.Model.APIKey,
		Endpoint: cfg.Model.Endpoint,
	}, cat)
	if err != nil {
		return nil, fmt.Errorf("creating model strategy: %w", err)
	}

	return converter.New(cat, converter.Options{
		Model:        strategy,
		ModelTimeout: cfg.Model.Timeout,
		CacheSize:    cacheSize,
		Concurrency:  cfg.Batch.Concurrency,
		Logger:       logger,
	}), nil
}
