package paytech

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNotificationJSONObject(t *testing.T) {
	body := []byte(`{
		"type_event": "sale_complete",
		"ref_command": "R1",
		"client_phone": "+221770000000",
		"payment_method": "Orange Money",
		"item_name": "Dakar - Saint-Louis",
		"item_price": "5000",
		"currency": "XOF",
		"env": "test",
		"custom_field": {"ref_command": "R1", "redirect_after_success": "https://example.com/done"},
		"api_key_sha256": "abc",
		"api_secret_sha256": "def"
	}`)

	n, cf, err := ParseNotification("application/json", body)
	require.NoError(t, err)
	assert.Equal(t, EventSaleComplete, n.TypeEvent)
	assert.Equal(t, "R1", n.RefCommand)
	assert.Equal(t, "Orange Money", n.PaymentMethod)
	assert.Equal(t, "R1", cf.RefCommand)
	assert.Equal(t, "https://example.com/done", cf.RedirectAfterSuccess)
}

func TestParseNotificationCustomFieldAsString(t *testing.T) {
	// custom_field delivered as a JSON-encoded string must decode the same
	// as a native object.
	body := []byte(`{
		"type_event": "sale_complete",
		"ref_command": "R1",
		"custom_field": "{\"ref_command\":\"R1\"}"
	}`)

	_, cf, err := ParseNotification("application/json", body)
	require.NoError(t, err)
	assert.Equal(t, "R1", cf.RefCommand)
}

func TestParseNotificationDoubleEncodedBody(t *testing.T) {
	body := []byte(`"{\"type_event\":\"sale_complete\",\"custom_field\":{\"ref_command\":\"R9\"}}"`)

	n, cf, err := ParseNotification("application/json", body)
	require.NoError(t, err)
	assert.Equal(t, EventSaleComplete, n.TypeEvent)
	assert.Equal(t, "R9", cf.RefCommand)
}

func TestParseNotificationFormEncoded(t *testing.T) {
	form := url.Values{}
	form.Set("type_event", "sale_complete")
	form.Set("ref_command", "R2")
	form.Set("client_phone", "+221770000001")
	form.Set("payment_method", "Wave")
	form.Set("custom_field", `{"ref_command":"R2"}`)
	form.Set("api_key_sha256", "abc")
	form.Set("api_secret_sha256", "def")

	n, cf, err := ParseNotification("application/x-www-form-urlencoded; charset=utf-8", []byte(form.Encode()))
	require.NoError(t, err)
	assert.Equal(t, "R2", n.RefCommand)
	assert.Equal(t, "Wave", n.PaymentMethod)
	assert.Equal(t, "abc", n.APIKeySHA256)
	assert.Equal(t, "R2", cf.RefCommand)
}

func TestParseNotificationMalformed(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"truncated json", "application/json", `{"type_event": "sale_`},
		{"empty body", "application/json", ""},
		{"bad form encoding", "application/x-www-form-urlencoded", "a=%zz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseNotification(tt.contentType, []byte(tt.body))
			assert.True(t, errors.Is(err, ErrMalformedPayload), "expected ErrMalformedPayload, got %v", err)
		})
	}
}

func TestParseNotificationInvalidCustomField(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"absent", `{"type_event":"sale_complete"}`},
		{"null", `{"type_event":"sale_complete","custom_field":null}`},
		{"empty ref_command", `{"type_event":"sale_complete","custom_field":{"ref_command":""}}`},
		{"string with bad json", `{"type_event":"sale_complete","custom_field":"not-json"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseNotification("application/json", []byte(tt.body))
			assert.True(t, errors.Is(err, ErrInvalidCustomField), "expected ErrInvalidCustomField, got %v", err)
		})
	}
}
