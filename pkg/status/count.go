package status

import (
	"bytes"
	"fmt"

	"lukechampine.com/uint128"
)

// ConnectionsCount is an unsigned 128-bit counter, encoded in JSON as a bare integer.
type ConnectionsCount struct {
	v uint128.Uint128
}

func NewConnectionsCount(n uint64) ConnectionsCount {
	return ConnectionsCount{v: uint128.From64(n)}
}

// ParseConnectionsCount parses a base-10 unsigned integer that fits in 128 bits.
func ParseConnectionsCount(s string) (ConnectionsCount, error) {
	v, err := uint128.FromString(s)
	if err != nil {
		return ConnectionsCount{}, fmt.Errorf("invalid connections count %q: %w", s, err)
	}
	return ConnectionsCount{v: v}, nil
}

// Add returns c+n, wrapping at 2^128.
func (c ConnectionsCount) Add(n uint64) ConnectionsCount {
	return ConnectionsCount{v: c.v.AddWrap64(n)}
}

func (c ConnectionsCount) String() string {
	return c.v.String()
}

func (c ConnectionsCount) MarshalJSON() ([]byte, error) {
	return []byte(c.v.String()), nil
}

func (c *ConnectionsCount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	for _, b := range data {
		if b < '0' || b > '9' {
			return fmt.Errorf("invalid connections count %s: expected an unsigned integer", data)
		}
	}
	v, err := ParseConnectionsCount(string(data))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
