// Package traffic models interface byte counters and the usage derived from them.
package traffic

import "fmt"

// BytesPerGB is the binary gigabyte (GiB) used for all quota arithmetic.
const BytesPerGB = 1 << 30

// Direction selects which counters contribute to usage.
type Direction string

// Direction values.
const (
	// Outbound counts transmitted bytes only.
	Outbound Direction = "outbound"
	// Bidirectional counts transmitted plus received bytes.
	Bidirectional Direction = "bidirectional"
)

// ParseDirection parses a direction name. Unknown values return Outbound and an error.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Outbound, "":
		return Outbound, nil
	case Bidirectional:
		return Bidirectional, nil
	default:
		return Outbound, fmt.Errorf("unknown traffic direction %q", s)
	}
}

// Sample is one reading of an interface's cumulative byte counters.
type Sample struct {
	TxBytes uint64
	RxBytes uint64
}

// Baseline is the last observed sample, carried from one tick to the next.
// An unprimed baseline has never seen a real sample.
type Baseline struct {
	PreviousTx uint64
	PreviousRx uint64
	Primed     bool
}

// NewBaseline creates a primed baseline from a live sample.
func NewBaseline(s Sample) Baseline {
	return Baseline{PreviousTx: s.TxBytes, PreviousRx: s.RxBytes, Primed: true}
}

// Usage is the traffic observed between two samples.
type Usage struct {
	TxBytes uint64
	RxBytes uint64
	// TxReset and RxReset report a counter that went backwards.
	TxReset bool
	RxReset bool
}

// Bytes returns the counted bytes.
func (u Usage) Bytes() uint64 { return u.TxBytes + u.RxBytes }

// GB returns the counted bytes in gigabytes, unrounded.
func (u Usage) GB() float64 { return float64(u.Bytes()) / BytesPerGB }
