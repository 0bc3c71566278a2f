package vision

import (
	"time"

	"github.com/OgnevOA/spendy-pants/internal/core"
)

// receiptDTO is the untrusted wire shape the model answers with. It is
// coerced into a core.Receipt immediately; nothing outside this package sees
// the raw maps-and-floats form.
type receiptDTO struct {
	StoreName    string    `json:"store_name"`
	Date         string    `json:"date"`
	TotalPrice   *float64  `json:"total_price"`
	CurrencyCode *string   `json:"currency_code"`
	Items        []itemDTO `json:"items"`
}

type itemDTO struct {
	ItemName          string   `json:"item_name"`
	ItemPrice         *float64 `json:"item_price"`
	GroceryCategory   string   `json:"grocery_category"`
	Quantity          *float64 `json:"quantity"`
	PricePerUnit      *float64 `json:"price_per_unit"`
	UnitOfMeasurement *string  `json:"unit_of_measurement"`
}

// toReceipt validates and converts the model output. The model's date guess
// is discarded: receipts are filed under the day they were uploaded.
func (d receiptDTO) toReceipt(now time.Time) core.Receipt {
	r := core.Receipt{
		StoreName: d.StoreName,
		Date:      now.UTC().Format(core.DateLayout),
	}
	if d.TotalPrice != nil {
		if m, err := core.MoneyFromFloat(*d.TotalPrice); err == nil {
			r.Total = m
		}
	}
	if d.CurrencyCode != nil {
		r.CurrencyCode = *d.CurrencyCode
	}
	for _, it := range d.Items {
		r.Items = append(r.Items, it.toLineItem())
	}
	return r
}

func (d itemDTO) toLineItem() core.LineItem {
	item := core.LineItem{
		Name:     d.ItemName,
		Category: core.NormalizeCategory(d.GroceryCategory),
		Quantity: core.DefaultQuantity,
		Unit:     core.DefaultUnit,
	}
	if d.ItemPrice != nil {
		if m, err := core.MoneyFromFloat(*d.ItemPrice); err == nil {
			item.Price = m
		}
	}
	if d.Quantity != nil && *d.Quantity > 0 {
		item.Quantity = *d.Quantity
	}
	if d.PricePerUnit != nil {
		if m, err := core.MoneyFromFloat(*d.PricePerUnit); err == nil {
			item.PricePerUnit = m
		}
	}
	if d.UnitOfMeasurement != nil && *d.UnitOfMeasurement != "" {
		item.Unit = *d.UnitOfMeasurement
	}
	return item
}
