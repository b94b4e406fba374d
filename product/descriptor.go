package product

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Descriptor is one scraped product as handed to the engine.
// It is an immutable input: the engine never mutates a descriptor,
// every submission attempt reads the same values.
type Descriptor struct {
	Title          string
	Description    string // raw text, may contain HTML markup
	SourceCategory string // category label as scraped from the source site

	Brand         string
	Barcode       string
	ProductMainID string
	StockCode     string
	Color         string

	Price     decimal.Decimal
	ListPrice decimal.Decimal // optional, falls back to Price
	Currency  string
	VatRate   int
	Quantity  int

	ImageURLs []string

	// Variants carries explicit size/stock overrides for multi-variant
	// listings. Empty means the product is submitted as a single item.
	Variants []Variant
}

// Variant is one size/stock pair of a multi-variant listing.
type Variant struct {
	Size     string
	Barcode  string
	Quantity int
}

// MainID returns the shared product identity for all variants.
func (d Descriptor) MainID() string {
	if d.ProductMainID != "" {
		return d.ProductMainID
	}
	return d.Barcode
}

// Stock returns the stock code, falling back to the barcode.
func (d Descriptor) Stock() string {
	if d.StockCode != "" {
		return d.StockCode
	}
	return d.Barcode
}

// EffectiveListPrice returns the list price, falling back to the sale price.
func (d Descriptor) EffectiveListPrice() decimal.Decimal {
	if d.ListPrice.IsPositive() {
		return d.ListPrice
	}
	return d.Price
}

// Validate checks the fields the remote API rejects outright.
func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("descriptor: title is required")
	}
	if strings.TrimSpace(d.Barcode) == "" {
		return fmt.Errorf("descriptor: barcode is required")
	}
	if !d.Price.IsPositive() {
		return fmt.Errorf("descriptor: price must be positive, got %s", d.Price)
	}
	for i, v := range d.Variants {
		if strings.TrimSpace(v.Barcode) == "" {
			return fmt.Errorf("descriptor: variant %d has no barcode", i)
		}
	}
	return nil
}
