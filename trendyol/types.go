package trendyol

// Wire types of the marketplace supplier API. Field names follow the remote
// JSON, not Go conventions.

type categoryTreeResponse struct {
	Categories []wireCategory `json:"categories"`
}

type wireCategory struct {
	ID            int            `json:"id"`
	Name          string         `json:"name"`
	ParentID      int            `json:"parentId"`
	SubCategories []wireCategory `json:"subCategories"`
}

type categoryAttributesResponse struct {
	ID                 int                     `json:"id"`
	Name               string                  `json:"name"`
	CategoryAttributes []wireCategoryAttribute `json:"categoryAttributes"`
}

type wireCategoryAttribute struct {
	CategoryID  int  `json:"categoryId"`
	Required    bool `json:"required"`
	Varianter   bool `json:"varianter"`
	Slicer      bool `json:"slicer"`
	AllowCustom bool `json:"allowCustom"`
	Attribute   struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"attribute"`
	AttributeValues []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"attributeValues"`
}

type brandsResponse []struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Item is one product unit in a batch submission payload.
type Item struct {
	Barcode           string          `json:"barcode"`
	Title             string          `json:"title"`
	ProductMainID     string          `json:"productMainId"`
	BrandID           int             `json:"brandId"`
	CategoryID        int             `json:"categoryId"`
	Quantity          int             `json:"quantity"`
	StockCode         string          `json:"stockCode"`
	DimensionalWeight float64         `json:"dimensionalWeight"`
	Description       string          `json:"description"`
	CurrencyType      string          `json:"currencyType"`
	ListPrice         float64         `json:"listPrice"`
	SalePrice         float64         `json:"salePrice"`
	VatRate           int             `json:"vatRate"`
	CargoCompanyID    int             `json:"cargoCompanyId"`
	Images            []ItemImage     `json:"images"`
	Attributes        []ItemAttribute `json:"attributes"`
}

type ItemImage struct {
	URL string `json:"url"`
}

// ItemAttribute carries either a fixed value id or custom free text.
type ItemAttribute struct {
	AttributeID          int    `json:"attributeId"`
	AttributeValueID     int    `json:"attributeValueId,omitempty"`
	CustomAttributeValue string `json:"customAttributeValue,omitempty"`
}

type submitRequest struct {
	Items []Item `json:"items"`
}

type submitResponse struct {
	BatchRequestID string `json:"batchRequestId"`
}
