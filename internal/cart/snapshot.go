package cart

import (
	"encoding/json"
	"fmt"

	"github.com/nikolayk812/gomarketplace-cart/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// SnapshotState describes what Hydrate found in the backing store.
type SnapshotState int

const (
	SnapshotAbsent SnapshotState = iota
	SnapshotPresent
	SnapshotCorrupt
	SnapshotUnavailable
	SnapshotSuperseded
)

func (s SnapshotState) String() string {
	switch s {
	case SnapshotAbsent:
		return "absent"
	case SnapshotPresent:
		return "present"
	case SnapshotCorrupt:
		return "corrupt"
	case SnapshotUnavailable:
		return "unavailable"
	case SnapshotSuperseded:
		return "superseded"
	default:
		return fmt.Sprintf("SnapshotState(%d)", int(s))
	}
}

type snapshotItem struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	ImageURL string      `json:"image_url"`
	Price    json.Number `json:"price"`
	Currency string      `json:"currency,omitempty"`
	Quantity int         `json:"quantity"`

	Extra map[string]json.RawMessage `json:"-"`
}

var snapshotItemKeys = []string{"id", "title", "image_url", "price", "currency", "quantity"}

func (r snapshotItem) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, len(r.Extra)+len(snapshotItemKeys))
	for key, value := range r.Extra {
		fields[key] = value
	}

	fields["id"] = r.ID
	fields["title"] = r.Title
	fields["image_url"] = r.ImageURL
	fields["price"] = r.Price
	if r.Currency != "" {
		fields["currency"] = r.Currency
	}
	fields["quantity"] = r.Quantity

	return json.Marshal(fields)
}

// UnmarshalJSON keeps fields it does not know in Extra.
func (r *snapshotItem) UnmarshalJSON(data []byte) error {
	type plain snapshotItem

	var known plain
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, key := range snapshotItemKeys {
		delete(all, key)
	}
	if len(all) > 0 {
		known.Extra = all
	}

	*r = snapshotItem(known)
	return nil
}

func encodeSnapshot(items []domain.CartItem) (string, error) {
	rows := make([]snapshotItem, 0, len(items))
	for _, item := range items {
		rows = append(rows, mapDomainToSnapshotItem(item))
	}

	raw, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("json.Marshal: %w", err)
	}

	return string(raw), nil
}

func decodeSnapshot(raw string, defaultCurrency currency.Unit) ([]domain.CartItem, error) {
	var rows []snapshotItem
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, fmt.Errorf("json.Unmarshal: %w", err)
	}

	items := make([]domain.CartItem, 0, len(rows))
	for _, row := range rows {
		item, err := mapSnapshotItemToDomain(row, defaultCurrency)
		if err != nil {
			return nil, fmt.Errorf("mapSnapshotItemToDomain: %w", err)
		}

		items = append(items, item)
	}

	return items, nil
}

func mapDomainToSnapshotItem(item domain.CartItem) snapshotItem {
	return snapshotItem{
		ID:       item.ID,
		Title:    item.Title,
		ImageURL: item.ImageURL,
		Price:    json.Number(item.Price.Amount.String()),
		Currency: item.Price.Currency.String(),
		Quantity: item.Quantity,
		Extra:    item.Extra,
	}
}

func mapSnapshotItemToDomain(row snapshotItem, defaultCurrency currency.Unit) (domain.CartItem, error) {
	amount := decimal.Zero
	if row.Price != "" {
		parsed, err := decimal.NewFromString(row.Price.String())
		if err != nil {
			return domain.CartItem{}, fmt.Errorf("price[%s] is not valid: %w", row.Price, err)
		}
		amount = parsed
	}

	unit := defaultCurrency
	if row.Currency != "" {
		parsed, err := currency.ParseISO(row.Currency)
		if err != nil {
			return domain.CartItem{}, fmt.Errorf("currency[%s] is not valid: %w", row.Currency, err)
		}
		unit = parsed
	}

	return domain.CartItem{
		Product: domain.Product{
			ID:       row.ID,
			Title:    row.Title,
			ImageURL: row.ImageURL,
			Price:    domain.Money{Amount: amount, Currency: unit},
			Extra:    row.Extra,
		},
		Quantity: row.Quantity,
	}, nil
}
