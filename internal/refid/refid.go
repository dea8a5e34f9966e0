// Package refid generates the human-readable reference numbers shown to warehouse staff.
// Every number is PREFIX-<ksuid>: unique across processes and sortable by creation time.
package refid

import (
	"strings"

	"github.com/segmentio/ksuid"
)

const (
	ManualInbound  = "MIB"
	InboundRequest = "IBR"
	ManualOrder    = "MAN"
	Order          = "ORD"
	Reservation    = "RSV"
	StockCount     = "CNT"
	Transfer       = "TRF"
	Picking        = "PICK"
	Packing        = "PACK"
	Return         = "RET"
	Classification = "CLS"
	Inspection     = "INS"
	Refund         = "REF"
	Supplier       = "SUPP"
)

// New returns prefix-<ksuid>.
func New(prefix string) string {
	return prefix + "-" + ksuid.New().String()
}

// Tracking builds a carrier tracking number from the first three letters of the carrier.
func Tracking(carrier string) string {
	code := strings.ToUpper(strings.ReplaceAll(carrier, " ", ""))
	if r := []rune(code); len(r) > 3 {
		code = string(r[:3])
	}
	if code == "" {
		code = "TRK"
	}
	return New(code)
}

// Prefix returns the part before the first dash, or "" if id has none.
func Prefix(id string) string {
	p, _, ok := strings.Cut(id, "-")
	if !ok {
		return ""
	}
	return p
}
