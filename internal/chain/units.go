package chain

import (
	"math/big"
	"strings"
)

// FormatUnits renders raw as a decimal string with the given number of
// decimals, trimming trailing zeros ("1500000", 6 -> "1.5").
func FormatUnits(raw *big.Int, decimals uint8) string {
	if raw == nil {
		return "0"
	}
	if decimals == 0 {
		return raw.String()
	}
	neg := raw.Sign() < 0
	abs := new(big.Int).Abs(raw)
	div := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(abs, div, new(big.Int))

	s := whole.String()
	if frac.Sign() != 0 {
		fs := frac.String()
		fs = strings.Repeat("0", int(decimals)-len(fs)) + fs
		s += "." + strings.TrimRight(fs, "0")
	}
	if neg {
		s = "-" + s
	}
	return s
}

// WeiToETH renders a wei amount in whole native units with 18 decimals.
func WeiToETH(wei *big.Int) string {
	return FormatUnits(wei, 18)
}
