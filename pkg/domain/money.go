package domain

import humanize "github.com/dustin/go-humanize"

// Money renders v as dollars with thousands separators and two decimals,
// e.g. 28750.5 -> "$28,750.50".
func Money(v float64) string {
	if v < 0 {
		return "-$" + humanize.FormatFloat("#,###.##", -v)
	}
	return "$" + humanize.FormatFloat("#,###.##", v)
}
