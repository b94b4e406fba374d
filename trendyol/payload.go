package trendyol

import (
	"strings"

	"github.com/google/uuid"

	"trendsync/assembly"
	"trendsync/product"
	"trendsync/taxonomy"
)

// Defaults applied when the scraped descriptor carries no value of its own.
const (
	defaultDimensionalWeight = 1.0
	defaultCargoCompanyID    = 17
	defaultCurrency          = "TRY"
	defaultVatRate           = 10
)

// BuildItems turns one descriptor plus its assembled attributes into batch
// items. A descriptor with size variants expands into one item per variant
// sharing the product main id, so the marketplace groups them as one listing;
// otherwise a single item is produced. Each variant item carries its size on
// the category's varianter attribute, without that the expanded items would
// be indistinguishable to the remote.
func BuildItems(d product.Descriptor, categoryID, brandID int, schemas []taxonomy.AttributeSchema, assignments []assembly.Assignment) []Item {
	base := Item{
		Title:             d.Title,
		ProductMainID:     d.MainID(),
		BrandID:           brandID,
		CategoryID:        categoryID,
		Description:       d.Description,
		DimensionalWeight: defaultDimensionalWeight,
		CargoCompanyID:    defaultCargoCompanyID,
		CurrencyType:      d.Currency,
		ListPrice:         d.EffectiveListPrice().InexactFloat64(),
		SalePrice:         d.Price.InexactFloat64(),
		VatRate:           d.VatRate,
		Attributes:        convertAssignments(assignments),
	}
	if base.CurrencyType == "" {
		base.CurrencyType = defaultCurrency
	}
	if base.VatRate == 0 {
		base.VatRate = defaultVatRate
	}
	for _, imageURL := range d.ImageURLs {
		base.Images = append(base.Images, ItemImage{URL: imageURL})
	}

	if len(d.Variants) == 0 {
		item := base
		item.Barcode = d.Barcode
		item.Quantity = d.Quantity
		item.StockCode = stockCode(d.Stock())
		return []Item{item}
	}

	sizeSchema, hasSizeSchema := sizeAttribute(schemas)
	items := make([]Item, 0, len(d.Variants))
	for _, variant := range d.Variants {
		item := base
		item.Barcode = variant.Barcode
		if item.Barcode == "" {
			item.Barcode = d.Barcode
		}
		item.Quantity = variant.Quantity
		item.StockCode = stockCode(item.Barcode)
		if hasSizeSchema && variant.Size != "" {
			if attr, ok := sizeAttributeValue(sizeSchema, variant.Size); ok {
				item.Attributes = withAttribute(base.Attributes, attr)
			}
		}
		items = append(items, item)
	}
	return items
}

func convertAssignments(assignments []assembly.Assignment) []ItemAttribute {
	out := make([]ItemAttribute, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, ItemAttribute{
			AttributeID:          a.AttributeID,
			AttributeValueID:     a.ValueID,
			CustomAttributeValue: a.CustomValue,
		})
	}
	return out
}

// sizeAttribute picks the schema the marketplace distinguishes variants on,
// falling back to a name match when no varianter flag is set.
func sizeAttribute(schemas []taxonomy.AttributeSchema) (taxonomy.AttributeSchema, bool) {
	for _, s := range schemas {
		if s.Varianter {
			return s, true
		}
	}
	for _, s := range schemas {
		if strings.Contains(taxonomy.NormalizeText(s.Name), "beden") {
			return s, true
		}
	}
	return taxonomy.AttributeSchema{}, false
}

func sizeAttributeValue(s taxonomy.AttributeSchema, size string) (ItemAttribute, bool) {
	if v, ok := s.ValueByName(size); ok {
		return ItemAttribute{AttributeID: s.AttributeID, AttributeValueID: v.ID}, true
	}
	if s.AllowsCustom {
		return ItemAttribute{AttributeID: s.AttributeID, CustomAttributeValue: size}, true
	}
	return ItemAttribute{}, false
}

// withAttribute returns a copy of attrs with attr added, replacing an
// existing entry for the same attribute id.
func withAttribute(attrs []ItemAttribute, attr ItemAttribute) []ItemAttribute {
	out := make([]ItemAttribute, 0, len(attrs)+1)
	replaced := false
	for _, a := range attrs {
		if a.AttributeID == attr.AttributeID {
			out = append(out, attr)
			replaced = true
			continue
		}
		out = append(out, a)
	}
	if !replaced {
		out = append(out, attr)
	}
	return out
}

// stockCode falls back to a generated id so the remote never rejects an item
// for a blank stock code.
func stockCode(code string) string {
	if code != "" {
		return code
	}
	return uuid.NewString()
}
