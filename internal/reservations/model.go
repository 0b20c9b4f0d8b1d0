package reservations

import "time"

// PendingReservation is a draft reservation awaiting payment, keyed by the
// correlation id the checkout flow handed to the provider. ReservationData
// is the opaque draft produced upstream; this service never interprets its
// contents beyond merging them into the confirmed record.
type PendingReservation struct {
	RefCommand      string
	ReservationData map[string]any
	CreatedAt       time.Time
}

// ConfirmedReservation is the record written after a verified
// sale_complete notification. Record holds the merged reservation payload;
// PaymentRef is unique across confirmations.
type ConfirmedReservation struct {
	PaymentRef  string
	Record      map[string]any
	ConfirmedAt time.Time
}
