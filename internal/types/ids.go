package types

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryID identifies one processed webhook request in the delivery history.
type DeliveryID string

// NewDeliveryID generates a UUIDv7 delivery identifier.
// Time-ordered IDs keep history inserts clustered in B-tree pages.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewDeliveryID() DeliveryID {
	return DeliveryID(uuid.Must(uuid.NewV7()).String())
}

// ParseDeliveryID validates and converts a string to DeliveryID.
func ParseDeliveryID(s string) (DeliveryID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return DeliveryID(s), nil
}

// DeliveryIDTime extracts the timestamp embedded in a UUIDv7 ID.
// Returns zero time for invalid UUIDs; caller should check IsZero().
func DeliveryIDTime(id DeliveryID) time.Time {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}
