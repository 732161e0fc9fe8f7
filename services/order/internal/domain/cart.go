package domain

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

type CartLineItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
}

func (i CartLineItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Validate checks the fields a menu item must carry to be added to a cart.
func (i CartLineItem) Validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(i.ID) == "" {
		fields["id"] = "id is required"
	}
	if strings.TrimSpace(i.Name) == "" {
		fields["name"] = "name is required"
	}
	if i.UnitPrice.IsNegative() {
		fields["unit_price"] = "unit price must be >= 0"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Cart keeps one line per item id in insertion order. Quantity is never below 1.
type Cart struct {
	items []CartLineItem
}

// NewCart builds a cart from stored lines, merging duplicate ids and clamping quantities.
func NewCart(items ...CartLineItem) *Cart {
	c := &Cart{}
	for _, it := range items {
		q := max(it.Quantity, 1)
		if idx := c.index(it.ID); idx >= 0 {
			c.items[idx].Quantity += q
			continue
		}
		it.Quantity = q
		c.items = append(c.items, it)
	}
	return c
}

func (c *Cart) index(id string) int {
	for i := range c.items {
		if c.items[i].ID == id {
			return i
		}
	}
	return -1
}

// Add inserts the item with quantity 1, or bumps the quantity of an existing line.
// It returns the resulting quantity.
func (c *Cart) Add(item CartLineItem) int {
	if idx := c.index(item.ID); idx >= 0 {
		c.items[idx].Quantity++
		return c.items[idx].Quantity
	}
	item.Quantity = 1
	c.items = append(c.items, item)
	return 1
}

// SetQuantity clamps q to 1. It reports false when no line has the id.
func (c *Cart) SetQuantity(id string, q int) bool {
	idx := c.index(id)
	if idx < 0 {
		return false
	}
	c.items[idx].Quantity = max(q, 1)
	return true
}

func (c *Cart) Remove(id string) bool {
	idx := c.index(id)
	if idx < 0 {
		return false
	}
	c.items = append(c.items[:idx], c.items[idx+1:]...)
	return true
}

func (c *Cart) Clear() {
	c.items = nil
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.LineTotal())
	}
	return total
}

func (c *Cart) Len() int { return len(c.items) }

func (c *Cart) IsEmpty() bool { return len(c.items) == 0 }

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) Items() []CartLineItem {
	out := make([]CartLineItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Snapshot() []OrderLineItem {
	out := make([]OrderLineItem, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, OrderLineItem{
			ID:        it.ID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Image:     it.Image,
			Quantity:  it.Quantity,
		})
	}
	return out
}

type cartJSON struct {
	Items []CartLineItem `json:"items"`
}

func (c *Cart) MarshalJSON() ([]byte, error) {
	items := c.items
	if items == nil {
		items = []CartLineItem{}
	}
	return json.Marshal(cartJSON{Items: items})
}

func (c *Cart) UnmarshalJSON(data []byte) error {
	var raw cartJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = *NewCart(raw.Items...)
	return nil
}
