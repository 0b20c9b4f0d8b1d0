package paytech

import "encoding/json"

// Event types delivered by the provider IPN.
const (
	EventSaleComplete = "sale_complete"
	EventSaleCanceled = "sale_canceled"
)

// Notification is the untrusted IPN payload as PayTech sends it.
// custom_field is kept raw because the provider delivers it either as a
// JSON-encoded string or as a native object depending on how the payment
// was initiated.
type Notification struct {
	TypeEvent       string          `json:"type_event"`
	ClientPhone     string          `json:"client_phone"`
	PaymentMethod   string          `json:"payment_method"`
	ItemName        string          `json:"item_name"`
	ItemPrice       string          `json:"item_price"`
	RefCommand      string          `json:"ref_command"`
	CommandName     string          `json:"command_name"`
	Currency        string          `json:"currency"`
	Env             string          `json:"env"`
	CustomField     json.RawMessage `json:"custom_field"`
	Token           string          `json:"token"`
	APIKeySHA256    string          `json:"api_key_sha256"`
	APISecretSHA256 string          `json:"api_secret_sha256"`
}

// CustomField is the merchant-supplied sub-object embedded in the
// notification. RefCommand correlates the payment with a pending
// reservation and must be present.
type CustomField struct {
	RefCommand           string `json:"ref_command"`
	RedirectAfterSuccess string `json:"redirect_after_success,omitempty"`
}

// IsSaleComplete reports whether this notification should trigger a
// reservation transition. Every other event type is acknowledged and
// ignored.
func (n *Notification) IsSaleComplete() bool {
	return n.TypeEvent == EventSaleComplete
}
