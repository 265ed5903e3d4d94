package bank

import "strconv"

const dateLayout = "2006-01-02"

// percent renders a rate the way it was entered: 5.2 -> "5.2".
func percent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
