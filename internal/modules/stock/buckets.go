package stock

import (
	"fmt"

	"github.com/georgemunganga/wms-backend/internal/apperr"
	"github.com/georgemunganga/wms-backend/internal/modules/audit"
)

// countApprovalThreshold is the absolute unit difference above which a count waits for approval.
const countApprovalThreshold = 10

// ParseBucket validates the status name given in field.
func ParseBucket(field, s string) (Bucket, error) {
	switch b := Bucket(s); b {
	case BucketNormal, BucketReserved, BucketDefective:
		return b, nil
	}
	return "", apperr.InvalidValue(field, ValidBuckets)
}

func (b Buckets) get(k Bucket) int {
	switch k {
	case BucketReserved:
		return b.Reserved
	case BucketDefective:
		return b.Defective
	default:
		return b.Normal
	}
}

func (b *Buckets) add(k Bucket, n int) {
	switch k {
	case BucketReserved:
		b.Reserved += n
	case BucketDefective:
		b.Defective += n
	default:
		b.Normal += n
	}
}

// Move shifts n units from one bucket to another. The total is unchanged.
func (b Buckets) Move(from, to Bucket, n int) (Buckets, error) {
	if from == to {
		return b, apperr.Invalid("SameStatus", "from and to status are the same")
	}
	if n <= 0 {
		return b, apperr.Invalid("PositiveQuantity", "quantity must be greater than zero")
	}
	if available := b.get(from); available < n {
		return b, apperr.InsufficientStock(available, n)
	}
	out := b
	out.add(from, -n)
	out.add(to, n)
	return out, nil
}

// evaluateCount compares a counted quantity with the recorded one.
func evaluateCount(expected, counted int) (difference int, rate string, needsApproval bool) {
	difference = counted - expected
	rate = "0.00%"
	if expected > 0 {
		rate = fmt.Sprintf("%.2f%%", float64(difference)/float64(expected)*100)
	}
	abs := difference
	if abs < 0 {
		abs = -abs
	}
	return difference, rate, abs > countApprovalThreshold
}

// movementActions maps the movement list "type" filter to audit actions.
var movementActions = map[string][]string{
	"transfer":    {audit.ActionStockLocationChange},
	"adjustment":  {audit.ActionStockAdjusted, audit.ActionStockStatusChange},
	"cycle-count": {audit.ActionStockAudit},
	"inbound":     {audit.ActionInboundManual, audit.ActionInboundReceived, audit.ActionReturnProcess},
	"outbound":    {audit.ActionOutboundManual},
	"reservation": {audit.ActionStockReserve, audit.ActionStockUnreserve},
}

// MovementTypes lists the accepted movement filters besides "all".
var MovementTypes = []string{"transfer", "adjustment", "cycle-count", "inbound", "outbound", "reservation"}
