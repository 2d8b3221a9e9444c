// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package pg

import (
	"database/sql/driver"
	"fmt"
	"time"

	"decred.org/dexcore/dex"
	"github.com/holiman/uint256"
)

// fastUint64 provides an efficient Scanner for 64-bit integer data. This only
// works for columns with a postgresql type of INT8 that scan a value of type
// int64.
type fastUint64 uint64

func (n *fastUint64) Scan(value any) error {
	if value == nil {
		*n = 0
		return fmt.Errorf("NULL not supported")
	}
	v, ok := value.(int64)
	if !ok {
		return fmt.Errorf("not a signed 64-bit integer: %T", value)
	}
	*n = fastUint64(v)
	return nil
}

// dbAmount stores a uint256.Int in a NUMERIC(78) column as a decimal string.
type dbAmount struct {
	*uint256.Int
}

func (a dbAmount) Value() (driver.Value, error) {
	return a.Dec(), nil
}

func (a dbAmount) Scan(value any) error {
	var s string
	switch v := value.(type) {
	case []byte:
		s = string(v)
	case string:
		s = v
	case int64:
		a.SetUint64(uint64(v))
		return nil
	default:
		return fmt.Errorf("unsupported amount type %T", value)
	}
	return a.SetFromDecimal(s)
}

// dbAddress stores a dex.Address in a BYTEA column.
type dbAddress struct {
	*dex.Address
}

func (a dbAddress) Value() (driver.Value, error) {
	return a.Bytes(), nil
}

func (a dbAddress) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("not a byte slice: %T", value)
	}
	if len(b) != dex.AddressLength {
		return fmt.Errorf("address has length %d", len(b))
	}
	*a.Address = dex.BytesToAddress(b)
	return nil
}

// dbStamp stores a time in an INT8 column as unix seconds. The zero time is 0.
type dbStamp struct {
	*time.Time
}

func (s dbStamp) Value() (driver.Value, error) {
	if s.IsZero() {
		return int64(0), nil
	}
	return s.Unix(), nil
}

func (s dbStamp) Scan(value any) error {
	v, ok := value.(int64)
	if !ok {
		return fmt.Errorf("not a signed 64-bit integer: %T", value)
	}
	if v == 0 {
		*s.Time = time.Time{}
		return nil
	}
	*s.Time = time.Unix(v, 0).UTC()
	return nil
}

// nullBytes stores nil data as NULL.
func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

func dexProxyID(v fastUint64) dex.ProxyID {
	return dex.ProxyID(uint32(v))
}
