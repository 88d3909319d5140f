package chain

import (
	"math/big"
	"testing"
)

func TestFormatUnits(t *testing.T) {
	oneEther, _ := new(big.Int).SetString("1500000000000000000", 10)
	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	cases := []struct {
		value    *big.Int
		decimals uint8
		want     string
	}{
		{nil, 18, "0"},
		{big.NewInt(0), 18, "0"},
		{big.NewInt(1), 18, "0.000000000000000001"},
		{oneEther, 18, "1.5"},
		{big.NewInt(2500000), 6, "2.5"},
		{big.NewInt(42), 0, "42"},
		{big.NewInt(-1500000), 6, "-1.5"},
		{huge, 18, "123456789012.34567890123456789"},
	}
	for _, tc := range cases {
		if got := FormatUnits(tc.value, tc.decimals); got != tc.want {
			t.Fatalf("FormatUnits(%v, %d): expected %q, got %q", tc.value, tc.decimals, tc.want, got)
		}
	}
}
