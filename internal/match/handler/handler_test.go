package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricematch-service/internal/config"
	"pricematch-service/internal/match/model"
)

func testConfig() config.Config {
	return config.Config{TopK: 3}
}

func doJSON(t *testing.T, h http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(b))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestMatch_HappyPath(t *testing.T) {
	h := Match(testConfig(), zerolog.Nop())

	rec := doJSON(t, h, map[string]any{
		"items": []map[string]any{
			{"rowIndex": 1, "productName": "tomato 1kg", "quantity": "2", "unitPrice": "2.10", "totalPrice": "4.20"},
		},
		"catalogue": []map[string]any{
			{"id": "c1", "productName": "Tomato 1kg", "price": "2.00"},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp matchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	require.NotNil(t, resp.Results[0].BestMatch)
	assert.Equal(t, "c1", resp.Results[0].BestMatch.Candidate.ID)
	assert.True(t, resp.Results[0].AutoMatched)
}

func TestMatch_UnknownFieldRejected(t *testing.T) {
	h := Match(testConfig(), zerolog.Nop())
	rec := doJSON(t, h, map[string]any{
		"items":     []map[string]any{},
		"catalogue": []map[string]any{},
		"surprise":  true,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMatch_BadJSON(t *testing.T) {
	h := Match(testConfig(), zerolog.Nop())
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{nope")))
	rec := httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMatchRows_MappingResolution(t *testing.T) {
	h := MatchRows(testConfig(), zerolog.Nop())

	rec := doJSON(t, h, map[string]any{
		"rows": []map[string]string{
			{"Item Description": "Tomaten 1kg", "Qty": "2", "Unit Price (EUR)": "1 234,50"},
			{"Item Description": "", "Qty": "1", "Unit Price (EUR)": "3,00"},
		},
		"mapping": map[string]any{
			"nameKey":  "Description|Product",
			"qtyKey":   "Qty",
			"priceKey": "Unit Price",
			"useCode":  false,
		},
		"catalogue": []map[string]any{
			{"id": "c1", "productName": "Tomato 1kg", "price": "2.00"},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp matchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)

	first := resp.Results[0]
	assert.Equal(t, 1, first.QueryItem.RowIndex)
	assert.Equal(t, "Tomaten 1kg", first.QueryItem.ProductName)
	assert.Equal(t, "1234.5", first.QueryItem.UnitPrice.String())
	require.NotNil(t, first.BestMatch)

	// blank name rows stay in place but are flagged, keeping row indices
	// aligned with the source document
	second := resp.Results[1]
	assert.Equal(t, 2, second.QueryItem.RowIndex)
	assert.True(t, second.Skipped)
}

func TestMatchRows_MissingNameKey(t *testing.T) {
	h := MatchRows(testConfig(), zerolog.Nop())
	rec := doJSON(t, h, map[string]any{
		"rows":      []map[string]string{},
		"mapping":   map[string]any{"qtyKey": "Qty", "useCode": false},
		"catalogue": []map[string]any{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResolveKey(t *testing.T) {
	rec := map[string]string{
		"Item Description": "x",
		"Qty":              "1",
		"Unit Price (EUR)": "2.00",
	}

	assert.Equal(t, "Qty", resolveKey(rec, "Qty"))
	assert.Equal(t, "Item Description", resolveKey(rec, "Description|Product"))
	assert.Equal(t, "Unit Price (EUR)", resolveKey(rec, "Unit Price"))
	assert.Equal(t, "", resolveKey(rec, ""))
}

func TestToQueryItems_TotalDerivedFromUnitPrice(t *testing.T) {
	rows := []map[string]string{
		{"Name": "Tomato", "Qty": "3", "Price": "2.10"},
	}
	m := model.RowMapping{NameKey: "Name", QtyKey: "Qty", PriceKey: "Price"}
	items := toQueryItems(rows, m)
	require.Len(t, items, 1)
	assert.Equal(t, "6.3", items[0].TotalPrice.String())
}
