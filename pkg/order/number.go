package order

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

const numberTimeLayout = "20060102150405"

// NewOrderNumber formats ORD-<UTC timestamp to the second>-<4 uppercase hex>.
// The suffix carries 16 random bits; uniqueness is enforced by the orders
// table, not here.
func NewOrderNumber(t time.Time, random io.Reader) (string, error) {
	var b [2]byte
	if _, err := io.ReadFull(random, b[:]); err != nil {
		return "", fmt.Errorf("read random suffix: %w", err)
	}
	return fmt.Sprintf("ORD-%s-%04X", t.UTC().Format(numberTimeLayout), binary.BigEndian.Uint16(b[:])), nil
}
