package reservations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Moustapha1997/paytech-webhook-server/internal/paytech"
	"github.com/Moustapha1997/paytech-webhook-server/pkg/logging"
)

// ErrInsertFailed means the confirmed record could not be written. The
// pending record is left intact so a redelivered notification can retry
// the transition.
var ErrInsertFailed = errors.New("reservations: insert failed")

// Store is the persistence surface the confirmer needs.
type Store interface {
	GetPending(ctx context.Context, refCommand string) (*PendingReservation, error)
	InsertConfirmed(ctx context.Context, confirmed *ConfirmedReservation) error
	DeletePending(ctx context.Context, refCommand string) error
}

// Confirmer transitions a pending reservation to confirmed once a
// notification has been authenticated.
type Confirmer struct {
	store  Store
	logger *logging.Logger
	now    func() time.Time
}

// NewConfirmer wires the transition service.
func NewConfirmer(store Store, logger *logging.Logger) *Confirmer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Confirmer{
		store:  store,
		logger: logger.WithStage("transition"),
		now:    time.Now,
	}
}

// Confirm runs the pending-to-confirmed transition:
//
//  1. load the pending reservation keyed by the custom_field ref_command
//  2. build the confirmed record (draft data merged with payment metadata)
//  3. insert it; the insert is the point of no return
//  4. delete the pending row; failure here is a warning, not an error,
//     because the confirmation already exists
//
// A duplicate payment_ref on insert means another delivery already
// confirmed this reservation; the replay is answered as success without a
// second row.
func (c *Confirmer) Confirm(ctx context.Context, n *paytech.Notification, cf *paytech.CustomField) error {
	pending, err := c.store.GetPending(ctx, cf.RefCommand)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	confirmed, err := c.buildConfirmed(pending, n)
	if err != nil {
		return err
	}

	if err := c.store.InsertConfirmed(ctx, confirmed); err != nil {
		if errors.Is(err, ErrDuplicateRef) {
			c.logger.Info("reservation already confirmed, treating replay as success",
				"ref_command", cf.RefCommand,
				"payment_ref", confirmed.PaymentRef,
			)
		} else {
			return fmt.Errorf("%w: %v", ErrInsertFailed, err)
		}
	}

	if err := c.store.DeletePending(ctx, cf.RefCommand); err != nil {
		c.logger.Warn("failed to delete pending reservation after confirmation",
			"ref_command", cf.RefCommand,
			"error", err,
		)
	}

	c.logger.Info("reservation confirmed",
		"ref_command", cf.RefCommand,
		"payment_method", n.PaymentMethod,
	)
	return nil
}

// buildConfirmed shallow-merges the draft reservation data with the
// payment outcome. The entire notification is kept under payment_details
// for audit.
func (c *Confirmer) buildConfirmed(pending *PendingReservation, n *paytech.Notification) (*ConfirmedReservation, error) {
	details, err := notificationAsMap(n)
	if err != nil {
		return nil, fmt.Errorf("reservations: encode payment details: %w", err)
	}

	confirmedAt := c.now().UTC()

	record := make(map[string]any, len(pending.ReservationData)+7)
	for k, v := range pending.ReservationData {
		record[k] = v
	}
	record["statut"] = "validee"
	record["payment_status"] = "completed"
	record["payment_ref"] = n.RefCommand
	record["payment_method"] = n.PaymentMethod
	record["client_phone"] = n.ClientPhone
	record["payment_details"] = details
	record["confirmed_at"] = confirmedAt.Format(time.RFC3339)

	return &ConfirmedReservation{
		PaymentRef:  n.RefCommand,
		Record:      record,
		ConfirmedAt: confirmedAt,
	}, nil
}

func notificationAsMap(n *paytech.Notification) (map[string]any, error) {
	raw, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
