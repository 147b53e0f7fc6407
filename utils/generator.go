package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchTransactionID is the reference recorded on requests approved in a
// batch: BATCH-<unix seconds>-<request id>.
func BatchTransactionID(at time.Time, requestID uuid.UUID) string {
	return fmt.Sprintf("BATCH-%d-%s", at.Unix(), requestID)
}

// FormatAmount renders a money value with two decimals and comma
// thousands separators, e.g. 1234567.5 -> "1,234,567.50".
func FormatAmount(amount decimal.Decimal) string {
	fixed := amount.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if amount.IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
