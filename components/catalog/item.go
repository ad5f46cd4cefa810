package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Decimal carries a backend decimal verbatim. The API encodes decimals as
// strings ("12.50") but numbers are accepted too.
type Decimal string

// UnmarshalJSON accepts a JSON string or number.
func (d *Decimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = Decimal(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("catalog: decimal: %w", err)
	}
	*d = Decimal(n.String())
	return nil
}

func (d Decimal) String() string { return string(d) }

// Item mirrors a catalog item as returned by the backend.
type Item struct {
	ID           int64          `json:"id"`
	SKU          string         `json:"sku"`
	Name         string         `json:"name"`
	Category     string         `json:"category"`
	Subcategory  *string        `json:"subcategory"`
	Brand        *string        `json:"brand"`
	Model        *string        `json:"model"`
	Sellable     bool           `json:"sellable"`
	Rentable     bool           `json:"rentable"`
	IsConsumable bool           `json:"isConsumable"`
	DefaultRate  Decimal        `json:"defaultRate"`
	PricePolicy  *int64         `json:"pricePolicy"`
	Weight       *Decimal       `json:"weight"`
	Power        *string        `json:"power"`
	Dimensions   map[string]any `json:"dimensions"`
	UprightOnly  bool           `json:"upright_only"`
}

// Payload is the body sent on create and update.
type Payload struct {
	Name         string         `json:"name"`
	Category     string         `json:"category"`
	Subcategory  *string        `json:"subcategory"`
	Brand        *string        `json:"brand"`
	Model        *string        `json:"model"`
	Sellable     bool           `json:"sellable"`
	Rentable     bool           `json:"rentable"`
	IsConsumable bool           `json:"isConsumable"`
	DefaultRate  float64        `json:"defaultRate"`
	PricePolicy  *float64       `json:"pricePolicy"`
	Weight       *float64       `json:"weight"`
	Power        *string        `json:"power"`
	Dimensions   map[string]any `json:"dimensions"`
	UprightOnly  bool           `json:"upright_only"`
}

// ParsePayload builds a payload from submitted form values. Empty optional
// strings become null, except model which is sent exactly as posted.
// Checkboxes are true for "true" or "on", unparsable numbers become null and
// a missing rate falls back to 0. Dimensions are not editable from the form
// and are always sent as null.
func ParsePayload(values url.Values) Payload {
	p := Payload{
		Name:         strings.TrimSpace(values.Get("name")),
		Category:     strings.TrimSpace(values.Get("category")),
		Subcategory:  optionalString(values.Get("subcategory")),
		Brand:        optionalString(values.Get("brand")),
		Model:        submittedString(values, "model"),
		Sellable:     parseBool(values.Get("sellable")),
		Rentable:     parseBool(values.Get("rentable")),
		IsConsumable: parseBool(values.Get("isConsumable")),
		PricePolicy:  parseNumber(values.Get("pricePolicy")),
		Weight:       parseNumber(values.Get("weight")),
		Power:        optionalString(values.Get("power")),
		UprightOnly:  parseBool(values.Get("upright_only")),
	}
	if rate := parseNumber(values.Get("defaultRate")); rate != nil {
		p.DefaultRate = *rate
	}
	return p
}

// FormValues flattens an item into form values for editing.
func FormValues(item Item) map[string]string {
	out := map[string]string{
		"name":         item.Name,
		"category":     item.Category,
		"subcategory":  deref(item.Subcategory),
		"brand":        deref(item.Brand),
		"model":        deref(item.Model),
		"sellable":     strconv.FormatBool(item.Sellable),
		"rentable":     strconv.FormatBool(item.Rentable),
		"isConsumable": strconv.FormatBool(item.IsConsumable),
		"defaultRate":  item.DefaultRate.String(),
		"power":        deref(item.Power),
		"upright_only": strconv.FormatBool(item.UprightOnly),
	}
	if item.PricePolicy != nil {
		out["pricePolicy"] = strconv.FormatInt(*item.PricePolicy, 10)
	}
	if item.Weight != nil {
		out["weight"] = item.Weight.String()
	}
	return out
}

func optionalString(raw string) *string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}
	return &v
}

// submittedString keeps the raw value whenever the field was posted, empty
// included, and is nil only when it is absent.
func submittedString(values url.Values, name string) *string {
	if _, ok := values[name]; !ok {
		return nil
	}
	v := values.Get(name)
	return &v
}

func parseBool(raw string) bool {
	return raw == "true" || raw == "on"
}

func parseNumber(raw string) *float64 {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil
	}
	return &n
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
