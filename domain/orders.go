package domain

import "time"

// CREATE TABLE public.orders (
//     id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     shop        TEXT NOT NULL,
//     created_at  TIMESTAMPTZ DEFAULT NOW()
// );
//
// CREATE TABLE public.order_lines (
//     id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     order_id    BIGINT REFERENCES orders(id),
//     product_id  TEXT NOT NULL,
//     unit_price  NUMERIC,
//     quantity    INT
// );

// HistoricalOrder is a completed order read from the order history window.
type HistoricalOrder struct {
	ID        uint64      `gorm:"primaryKey;column:id" json:"id"`
	Shop      string      `gorm:"column:shop;not null" json:"shop"`
	CreatedAt time.Time   `gorm:"column:created_at" json:"created_at"`
	Lines     []OrderLine `gorm:"foreignKey:OrderID" json:"lines"`
}

func (HistoricalOrder) TableName() string {
	return "orders"
}

type OrderLine struct {
	ID        uint64  `gorm:"primaryKey;column:id" json:"-"`
	OrderID   uint64  `gorm:"column:order_id" json:"-"`
	ProductID string  `gorm:"column:product_id;not null" json:"product_id"`
	UnitPrice float64 `gorm:"column:unit_price;type:numeric" json:"unit_price"`
	Quantity  int     `gorm:"column:quantity" json:"quantity"`
}

func (OrderLine) TableName() string {
	return "order_lines"
}
