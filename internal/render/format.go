package render

import (
	"math"
	"strconv"
)

// Num formats a mark without trailing zeros, rounded to two decimals:
// 17 -> "17", 2.5 -> "2.5".
func Num(x float64) string {
	r := math.Round(x*100) / 100
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
