package render

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tibprice/internal/price"
)

var cet = time.FixedZone("CET", 3600)

func activeSeries(start time.Time) price.Series {
	return price.NewSeries([]price.PricePoint{
		{Total: 0.2345, StartsAt: start},
		{Total: 0.5, StartsAt: start.Add(time.Hour)},
	})
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"none", "json", "json-pretty", "csv", "plain"} {
		f, err := ParseFormat(name)
		require.NoError(t, err)
		require.Equal(t, Format(name), f)
	}
	_, err := ParseFormat("xml")
	require.Error(t, err)
}

func TestActivePriceAt(t *testing.T) {
	start := time.Date(2026, 1, 15, 13, 0, 0, 0, cet)
	a := ActivePriceAt(activeSeries(start), start.Add(30*time.Minute))
	require.NotNil(t, a.Price)
	require.Equal(t, 0.2345, *a.Price)
	require.NotNil(t, a.StartsAt)
	require.True(t, a.StartsAt.Equal(start))

	missing := ActivePriceAt(price.Series{}, start)
	require.Nil(t, missing.Price)
	require.Nil(t, missing.StartsAt)
}

func TestRenderJSON(t *testing.T) {
	start := time.Date(2026, 1, 15, 13, 0, 0, 0, cet)
	out, err := ActivePriceAt(activeSeries(start), start).Render(FormatJSON)
	require.NoError(t, err)

	var decoded struct {
		Price    *float64   `json:"price"`
		StartsAt *time.Time `json:"starts_at"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.NotNil(t, decoded.Price)
	require.Equal(t, 0.2345, *decoded.Price)
	require.NotNil(t, decoded.StartsAt)
	require.True(t, decoded.StartsAt.Equal(start))
}

func TestRenderJSONWithoutActivePrice(t *testing.T) {
	out, err := ActivePrice{}.Render(FormatJSON)
	require.NoError(t, err)
	require.JSONEq(t, `{"price":null,"starts_at":null}`, out)
}

func TestRenderJSONPretty(t *testing.T) {
	start := time.Date(2026, 1, 15, 13, 0, 0, 0, cet)
	out, err := ActivePriceAt(activeSeries(start), start).Render(FormatJSONPretty)
	require.NoError(t, err)
	require.Contains(t, out, "\n  \"price\"")
}

func TestRenderCSV(t *testing.T) {
	start := time.Date(2026, 1, 15, 13, 0, 0, 0, cet)
	out, err := ActivePriceAt(activeSeries(start), start).Render(FormatCSV)
	require.NoError(t, err)
	require.Equal(t, "0.2345,"+start.Local().Format(csvTimeLayout), out)

	empty, err := ActivePrice{}.Render(FormatCSV)
	require.NoError(t, err)
	require.Equal(t, ",", empty)
}

func TestRenderPlain(t *testing.T) {
	start := time.Date(2026, 1, 15, 13, 0, 0, 0, cet)
	out, err := ActivePriceAt(activeSeries(start), start).Render(FormatPlain)
	require.NoError(t, err)
	require.Equal(t, "0.2345", out)

	missing, err := ActivePrice{}.Render(FormatPlain)
	require.NoError(t, err)
	require.Equal(t, "unavailable", missing)
}

func TestRenderNone(t *testing.T) {
	start := time.Date(2026, 1, 15, 13, 0, 0, 0, cet)
	out, err := ActivePriceAt(activeSeries(start), start).Render(FormatNone)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestFormatPrice(t *testing.T) {
	require.Equal(t, "0.1", formatPrice(0.1))
	require.Equal(t, "1", formatPrice(1))
	require.Equal(t, "0.2345", formatPrice(0.2345))
	require.Equal(t, "0.0001", formatPrice(0.0001))
}

func TestHomesJSON(t *testing.T) {
	homes := []Home{{ID: "a", Nickname: "Main"}, {ID: "b", Nickname: "Cabin"}}
	out, err := Homes(homes, FormatJSON)
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":"a","nickname":"Main"},{"id":"b","nickname":"Cabin"}]`, out)
}

func TestHomesTextFormats(t *testing.T) {
	homes := []Home{{ID: "a", Nickname: "Main"}, {ID: "b", Nickname: "Cabin"}}

	out, err := Homes(homes, FormatCSV)
	require.NoError(t, err)
	require.Equal(t, "a,Main\nb,Cabin", out)

	out, err = Homes(homes, FormatPlain)
	require.NoError(t, err)
	require.Equal(t, "a Main\nb Cabin", out)

	out, err = Homes(homes, FormatNone)
	require.NoError(t, err)
	require.Empty(t, out)
}
