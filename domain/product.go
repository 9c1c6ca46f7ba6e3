package domain

import (
	"strconv"
	"strings"
	"time"
)

// CREATE TABLE public.products (
//     id              BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     shop            TEXT NOT NULL,
//     product_id      TEXT NOT NULL,
//     handle          TEXT,
//     title           TEXT,
//     image_url       TEXT,
//     product_category TEXT,
//     price           NUMERIC,
//     available       BOOLEAN,
//     sales_count     BIGINT DEFAULT 0,
//     updated_at      TIMESTAMPTZ DEFAULT NOW()
// );

// Product is the local catalog mirror used for availability and the
// catalog-similarity fallback.
type Product struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement"`
	Shop            string    `gorm:"column:shop;type:text;not null"`
	ProductID       string    `gorm:"column:product_id;type:text;not null"`
	Handle          string    `gorm:"column:handle;type:text"`
	Title           string    `gorm:"column:title;type:text"`
	ImageURL        string    `gorm:"column:image_url;type:text"`
	ProductCategory string    `gorm:"column:product_category;type:text"`
	Price           float64   `gorm:"column:price;type:numeric"`
	Available       bool      `gorm:"column:available;default:false"`
	SalesCount      int64     `gorm:"column:sales_count;default:0"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// ProductAvailability is the snapshot fetched for a shortlist of candidates.
type ProductAvailability struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Handle    string  `json:"handle"`
	Image     string  `json:"image,omitempty"`
	Price     float64 `json:"price"`
	Available bool    `json:"available"`
}

func (p Product) Availability() ProductAvailability {
	return ProductAvailability{
		ID:        p.ProductID,
		Title:     p.Title,
		Handle:    p.Handle,
		Image:     p.ImageURL,
		Price:     p.Price,
		Available: p.Available,
	}
}

// ParseProductID accepts a plain numeric id or a gid such as
// "gid://shopify/Product/123" and returns the numeric part.
func ParseProductID(raw string) (string, bool) {
	id := strings.TrimSpace(raw)
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	if id == "" {
		return "", false
	}
	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		return "", false
	}
	return id, true
}
