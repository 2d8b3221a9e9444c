// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package order

import "fmt"

// Status indicates the state of an order.
type Status uint8

const (
	// StatusUnknown is the sentinel status of an order that does not exist.
	StatusUnknown Status = iota
	// StatusOpen is for orders that can still be filled. This includes
	// partially filled orders.
	StatusOpen
	// StatusFilled is for orders that were completely filled, or whose
	// remaining bid amount can no longer buy a single unit of the ask asset.
	StatusFilled
	// StatusCancelled is for orders cancelled by their maker.
	StatusCancelled
)

var statusNames = map[Status]string{
	StatusUnknown:   "unknown",
	StatusOpen:      "open",
	StatusFilled:    "filled",
	StatusCancelled: "cancelled",
}

// String implements Stringer.
func (s Status) String() string {
	name, found := statusNames[s]
	if !found {
		return fmt.Sprintf("status(%d)", uint8(s))
	}
	return name
}

// Closed is true for the terminal statuses.
func (s Status) Closed() bool {
	return s == StatusFilled || s == StatusCancelled
}

// ParseStatus parses a status name or its numeric code. The empty string and
// "all" parse to StatusUnknown, which filters match as "any status".
func ParseStatus(s string) (Status, error) {
	switch s {
	case "", "all", "0":
		return StatusUnknown, nil
	case "open", "1":
		return StatusOpen, nil
	case "filled", "2":
		return StatusFilled, nil
	case "cancelled", "canceled", "3":
		return StatusCancelled, nil
	}
	return StatusUnknown, fmt.Errorf("unknown order status %q", s)
}
