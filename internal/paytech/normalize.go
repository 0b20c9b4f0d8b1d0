package paytech

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrMalformedPayload means the request body could not be decoded into
	// a notification at all.
	ErrMalformedPayload = errors.New("paytech: malformed payload")

	// ErrInvalidCustomField means the notification decoded but its
	// custom_field carries no usable ref_command.
	ErrInvalidCustomField = errors.New("paytech: invalid custom_field")
)

// ParseNotification normalizes a raw IPN body into one canonical shape.
// PayTech posts either application/x-www-form-urlencoded or JSON, and in
// the JSON case the body itself may be a double-encoded string. The
// returned CustomField is always decoded and validated; downstream stages
// never look at the raw custom_field again.
func ParseNotification(contentType string, body []byte) (*Notification, *CustomField, error) {
	var (
		n   *Notification
		err error
	)
	if isFormEncoded(contentType) {
		n, err = parseFormBody(body)
	} else {
		n, err = parseJSONBody(body)
	}
	if err != nil {
		return nil, nil, err
	}

	cf, err := decodeCustomField(n.CustomField)
	if err != nil {
		return nil, nil, err
	}
	if cf.RefCommand == "" {
		return nil, nil, fmt.Errorf("%w: missing ref_command", ErrInvalidCustomField)
	}
	return n, cf, nil
}

func isFormEncoded(contentType string) bool {
	mediaType := contentType
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = mediaType[:i]
	}
	return strings.TrimSpace(mediaType) == "application/x-www-form-urlencoded"
}

// parseFormBody maps the url-encoded key/value pairs onto the notification
// shape. custom_field arrives as its raw JSON string here.
func parseFormBody(body []byte) (*Notification, error) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	n := &Notification{
		TypeEvent:       values.Get("type_event"),
		ClientPhone:     values.Get("client_phone"),
		PaymentMethod:   values.Get("payment_method"),
		ItemName:        values.Get("item_name"),
		ItemPrice:       values.Get("item_price"),
		RefCommand:      values.Get("ref_command"),
		CommandName:     values.Get("command_name"),
		Currency:        values.Get("currency"),
		Env:             values.Get("env"),
		Token:           values.Get("token"),
		APIKeySHA256:    values.Get("api_key_sha256"),
		APISecretSHA256: values.Get("api_secret_sha256"),
	}
	if raw := values.Get("custom_field"); raw != "" {
		encoded, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		n.CustomField = encoded
	}
	return n, nil
}

func parseJSONBody(body []byte) (*Notification, error) {
	trimmed := []byte(strings.TrimSpace(string(body)))
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedPayload)
	}

	// A double-encoded delivery wraps the whole notification in a JSON
	// string; unwrap it first.
	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		trimmed = []byte(inner)
	}

	var n Notification
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return &n, nil
}

// decodeCustomField resolves the string-or-object union into a CustomField.
func decodeCustomField(raw json.RawMessage) (*CustomField, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, fmt.Errorf("%w: custom_field missing", ErrInvalidCustomField)
	}

	data := []byte(trimmed)
	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCustomField, err)
		}
		data = []byte(inner)
	}

	var cf CustomField
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCustomField, err)
	}
	return &cf, nil
}
