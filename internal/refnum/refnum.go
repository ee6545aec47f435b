// Package refnum issues the reference numbers assigned on final approval.
// Village letters follow the customary Indonesian format
// CODE/SEQ/ROMAN-MONTH/YEAR, e.g. "474.1/015/VIII/2026"; the sequence resets
// per letter type and calendar year.
package refnum

import (
	"fmt"
	"time"
)

var romanMonths = [...]string{
	"I", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX", "X", "XI", "XII",
}

// Format renders a reference number from its parts.
func Format(code string, seq int64, effectiveDate time.Time) string {
	return fmt.Sprintf("%s/%03d/%s/%d",
		code, seq, romanMonths[effectiveDate.Month()-1], effectiveDate.Year())
}
