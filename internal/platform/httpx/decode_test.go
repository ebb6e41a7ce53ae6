package httpx

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tantu-erp/tantu/internal/shared"
)

type deliveryForm struct {
	Quantity     int              `json:"quantity"`
	Rate         *decimal.Decimal `json:"rate,omitempty"`
	DeliveryDate shared.Date      `json:"delivery_date"`
	Note         *string          `json:"note,omitempty"`
}

func formRequest(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestDecodeFormCoercesFields(t *testing.T) {
	var got deliveryForm
	err := Decode(formRequest(url.Values{
		"quantity":      {" 40 "},
		"rate":          {"12.50"},
		"delivery_date": {"2024-05-10"},
		"note":          {""},
		"ignored":       {"x"},
	}), &got)
	require.NoError(t, err)
	assert.Equal(t, 40, got.Quantity)
	require.NotNil(t, got.Rate)
	assert.True(t, decimal.RequireFromString("12.5").Equal(*got.Rate))
	assert.Equal(t, "2024-05-10", got.DeliveryDate.String())
	assert.Nil(t, got.Note, "blank values are left unset")
}

func TestDecodeFormRejectsBadValues(t *testing.T) {
	var got deliveryForm
	err := Decode(formRequest(url.Values{"quantity": {"forty"}}), &got)
	assert.ErrorIs(t, err, shared.ErrValidation)

	err = Decode(formRequest(url.Values{"rate": {"ten"}}), &got)
	assert.ErrorIs(t, err, shared.ErrValidation)

	err = Decode(formRequest(url.Values{"delivery_date": {"10/05/2024"}}), &got)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":1,"colour":"red"}`))
	req.Header.Set("Content-Type", "application/json")
	var got deliveryForm
	assert.ErrorIs(t, Decode(req, &got), shared.ErrValidation)
}

func TestPathID(t *testing.T) {
	id, err := PathID("42")
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)
	_, err = PathID("0")
	assert.ErrorIs(t, err, shared.ErrValidation)
	_, err = PathID("abc")
	assert.ErrorIs(t, err, shared.ErrValidation)
}
