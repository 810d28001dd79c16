package sales

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pharmabill/backend/internal/domain/shared"
)

// BillNumberPrefix starts every bill number
const BillNumberPrefix = "BILL-"

// FormatBillNumber renders seq as BILL-NNNNNN. Sequences beyond six digits
// widen the number rather than wrap.
func FormatBillNumber(seq int64) string {
	return fmt.Sprintf("%s%06d", BillNumberPrefix, seq)
}

// ParseBillNumber extracts the sequence from a bill number
func ParseBillNumber(s string) (int64, error) {
	digits, ok := strings.CutPrefix(s, BillNumberPrefix)
	if !ok || len(digits) < 6 {
		return 0, shared.NewDomainError("INVALID_INPUT", "Malformed bill number: "+s)
	}
	seq, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || seq < 1 {
		return 0, shared.NewDomainError("INVALID_INPUT", "Malformed bill number: "+s)
	}
	return seq, nil
}
