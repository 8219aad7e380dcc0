package cli

import (
	"fmt"
	"strings"
)

// CountdownBar draws the auto-close countdown of the receipt.
type CountdownBar struct {
	total int
	width int
}

func NewCountdownBar(total int) CountdownBar {
	if total < 1 {
		total = 1
	}
	return CountdownBar{total: total, width: 20}
}

// SetWidth sets the width of the bar
func (b CountdownBar) SetWidth(width int) CountdownBar {
	if width > 0 {
		b.width = width
	}
	return b
}

// Render formats "Auto-closing in N seconds  [bar] N/total". The bar shrinks
// as the countdown runs out.
func (b CountdownBar) Render(remaining int) string {
	if remaining < 0 {
		remaining = 0
	}
	if remaining > b.total {
		remaining = b.total
	}
	filled := b.width * remaining / b.total
	bar := strings.Repeat("█", filled) + strings.Repeat("░", b.width-filled)

	unit := "seconds"
	if remaining == 1 {
		unit = "second"
	}
	return fmt.Sprintf("Auto-closing in %d %s  [%s] %d/%d", remaining, unit, bar, remaining, b.total)
}
