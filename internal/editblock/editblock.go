// Package editblock parses the multi-line correction message a user sends to
// fix a stored receipt. The block names a receipt, optionally overrides header
// fields, and lists replacement line items:
//
//	Ref: 7f3a...
//	Store: Corner Market
//	Date: 2024-02-15
//	Total: 12.50
//	Currency: EUR
//	Milk; 2.49; Dairy & Eggs; 2; unit
//	Bread; 1.80; Bakery
//
// Parsing stops at the first malformed line; nothing is partially applied.
package editblock

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/OgnevOA/spendy-pants/internal/core"
)

const refPrefix = "ref:"

// Header labels recognized on `Label: value` lines. Anything else in that
// shape is skipped so older clients can send extra labels harmlessly.
const (
	labelStore    = "store"
	labelDate     = "date"
	labelTotal    = "total"
	labelCurrency = "currency"
)

// Update is the parsed correction. Nil header fields mean "leave unchanged".
// Items, when non-nil, fully replace the receipt's item list.
type Update struct {
	ReceiptID string
	StoreName *string
	Date      *string
	Total     *core.Money
	Currency  *string
	Items     []core.LineItem
}

// ParseError points at the first line that could not be understood. Line is
// 1-based over the raw input block.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Parse reads an edit block. The first non-empty line must carry the receipt
// reference; see the package comment for the full shape.
func Parse(text string) (Update, error) {
	var (
		u      Update
		sawRef bool
	)
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		lineNo := i + 1

		if !sawRef {
			id, ok := parseRef(line)
			if !ok {
				return Update{}, &ParseError{Line: lineNo, Reason: "expected \"Ref: <receipt id>\""}
			}
			u.ReceiptID = id
			sawRef = true
			continue
		}

		if strings.Contains(line, ";") {
			item, err := parseItem(line, lineNo)
			if err != nil {
				return Update{}, err
			}
			u.Items = append(u.Items, item)
			continue
		}

		if err := parseHeader(&u, line, lineNo); err != nil {
			return Update{}, err
		}
	}

	if !sawRef {
		return Update{}, &ParseError{Line: 1, Reason: "empty edit block"}
	}
	return u, nil
}

func parseRef(line string) (string, bool) {
	if !strings.HasPrefix(strings.ToLower(line), refPrefix) {
		return "", false
	}
	id := strings.TrimSpace(line[len(refPrefix):])
	if id == "" {
		return "", false
	}
	// Only the first token counts; trailing noise is ignored.
	return strings.Fields(id)[0], true
}

func parseHeader(u *Update, line string, lineNo int) error {
	label, value, ok := strings.Cut(line, ":")
	if !ok {
		return &ParseError{Line: lineNo, Reason: "not a header or item line"}
	}
	value = strings.TrimSpace(value)

	switch strings.ToLower(strings.TrimSpace(label)) {
	case labelStore:
		u.StoreName = &value
	case labelDate:
		if _, err := core.ParseDate(value); err != nil {
			return &ParseError{Line: lineNo, Reason: fmt.Sprintf("bad date %q, want YYYY-MM-DD", value)}
		}
		u.Date = &value
	case labelTotal:
		m, err := core.ParseMoney(value)
		if err != nil {
			return &ParseError{Line: lineNo, Reason: fmt.Sprintf("bad total %q", value)}
		}
		u.Total = m
	case labelCurrency:
		u.Currency = &value
	default:
		// Unknown label, skipped.
	}
	return nil
}

// parseItem reads `name; price; category; quantity; unit`. Trailing fields
// may be omitted and take the line-item defaults.
func parseItem(line string, lineNo int) (core.LineItem, error) {
	parts := strings.Split(line, ";")
	if len(parts) > 5 {
		return core.LineItem{}, &ParseError{Line: lineNo, Reason: "too many fields, want name; price; category; quantity; unit"}
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	name := parts[0]
	if name == "" {
		return core.LineItem{}, &ParseError{Line: lineNo, Reason: "item name is empty"}
	}

	item := core.LineItem{
		Name:     name,
		Category: core.CategoryOther,
		Quantity: core.DefaultQuantity,
		Unit:     core.DefaultUnit,
	}

	if len(parts) > 1 && parts[1] != "" {
		m, err := core.ParseMoney(parts[1])
		if err != nil {
			return core.LineItem{}, &ParseError{Line: lineNo, Reason: fmt.Sprintf("bad price %q", parts[1])}
		}
		item.Price = m
	}
	if len(parts) > 2 && parts[2] != "" {
		item.Category = core.NormalizeCategory(parts[2])
	}
	if len(parts) > 3 && parts[3] != "" {
		q, err := strconv.ParseFloat(parts[3], 64)
		if err != nil || q <= 0 {
			return core.LineItem{}, &ParseError{Line: lineNo, Reason: fmt.Sprintf("bad quantity %q", parts[3])}
		}
		item.Quantity = q
	}
	if len(parts) > 4 && parts[4] != "" {
		item.Unit = parts[4]
	}

	if item.Price != nil && item.Quantity > 0 {
		item.PricePerUnit = &core.Money{
			Cents: int64(math.Round(float64(item.Price.Cents) / item.Quantity)),
		}
	}
	return item, nil
}

// Apply merges the update into a receipt. Header fields not mentioned keep
// their stored values; a block without item lines keeps the stored items.
func (u Update) Apply(r core.Receipt) core.Receipt {
	if u.StoreName != nil {
		r.StoreName = *u.StoreName
	}
	if u.Date != nil {
		r.Date = *u.Date
	}
	if u.Total != nil {
		r.Total = u.Total
	}
	if u.Currency != nil {
		r.CurrencyCode = *u.Currency
	}
	if u.Items != nil {
		r.Items = u.Items
	}
	return r
}
