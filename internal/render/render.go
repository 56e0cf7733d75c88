package render

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tibprice/internal/price"
)

// Format selects the output style for rendered values.
type Format string

const (
	FormatNone       Format = "none"
	FormatJSON       Format = "json"
	FormatJSONPretty Format = "json-pretty"
	FormatCSV        Format = "csv"
	FormatPlain      Format = "plain"
)

// ParseFormat converts a format name from a flag or config file into a
// Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatNone, FormatJSON, FormatJSONPretty, FormatCSV, FormatPlain:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown output format: %s", s)
}

// csvTimeLayout matches the human-readable timestamp style used in CSV
// output, local time with a numeric zone offset.
const csvTimeLayout = "2006-01-02 15:04:05 -07:00"

// ActivePrice is the output view of the price in effect right now. A zero
// value means no price is active and renders as JSON nulls, empty CSV
// fields, or "unavailable".
type ActivePrice struct {
	Price    *float64   `json:"price"`
	StartsAt *time.Time `json:"starts_at"`
}

// ActivePriceAt builds the output view for the point active at now, with
// the start time converted to local time.
func ActivePriceAt(s price.Series, now time.Time) ActivePrice {
	p, ok := s.ActivePrice(now)
	if !ok {
		return ActivePrice{}
	}
	local := p.StartsAt.Local()
	return ActivePrice{Price: &p.Total, StartsAt: &local}
}

// Render formats the active price in the given format. FormatNone renders
// as the empty string; callers decide whether to print it at all.
func (a ActivePrice) Render(f Format) (string, error) {
	switch f {
	case FormatNone:
		return "", nil
	case FormatJSON:
		b, err := json.Marshal(a)
		if err != nil {
			return "", fmt.Errorf("marshal active price: %w", err)
		}
		return string(b), nil
	case FormatJSONPretty:
		b, err := json.MarshalIndent(a, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal active price: %w", err)
		}
		return string(b), nil
	case FormatCSV:
		var priceStr, timeStr string
		if a.Price != nil {
			priceStr = formatPrice(*a.Price)
		}
		if a.StartsAt != nil {
			timeStr = a.StartsAt.Format(csvTimeLayout)
		}
		return priceStr + "," + timeStr, nil
	case FormatPlain:
		if a.Price == nil {
			return "unavailable", nil
		}
		return formatPrice(*a.Price), nil
	}
	return "", fmt.Errorf("unknown output format: %s", f)
}

// Home is the listing view of one home.
type Home struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

// Homes formats a home listing in the given format: a JSON array, one
// "id,nickname" CSV line per home, or plain id-and-nickname lines.
func Homes(homes []Home, f Format) (string, error) {
	switch f {
	case FormatNone:
		return "", nil
	case FormatJSON:
		b, err := json.Marshal(homes)
		if err != nil {
			return "", fmt.Errorf("marshal homes: %w", err)
		}
		return string(b), nil
	case FormatJSONPretty:
		b, err := json.MarshalIndent(homes, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal homes: %w", err)
		}
		return string(b), nil
	case FormatCSV:
		lines := make([]string, len(homes))
		for i, h := range homes {
			lines[i] = h.ID + "," + h.Nickname
		}
		return strings.Join(lines, "\n"), nil
	case FormatPlain:
		lines := make([]string, len(homes))
		for i, h := range homes {
			lines[i] = h.ID + " " + h.Nickname
		}
		return strings.Join(lines, "\n"), nil
	}
	return "", fmt.Errorf("unknown output format: %s", f)
}

// formatPrice renders a price the way it was received, the shortest decimal
// form that round-trips, never exponent notation.
func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
