package catalog

import "time"

// StockDepletedEvent is emitted when a product's stock reaches zero.
type StockDepletedEvent struct {
	ProductID  int
	Name       string
	OrderID    string
	OccurredAt time.Time
}

func (StockDepletedEvent) EventName() string { return "catalog.stock_depleted" }

func NewStockDepletedEvent(p *Product, orderID string) StockDepletedEvent {
	return StockDepletedEvent{
		ProductID:  p.ID,
		Name:       p.Name,
		OrderID:    orderID,
		OccurredAt: time.Now().UTC(),
	}
}
