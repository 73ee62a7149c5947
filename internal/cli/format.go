package cli

import (
	"fmt"
	"time"
)

// FormatBytes renders n as B, KB or MB with one decimal.
func FormatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// FormatElapsed renders d rounded to tenths of a second, e.g. "3.4s".
func FormatElapsed(d time.Duration) string {
	return d.Round(100 * time.Millisecond).String()
}
