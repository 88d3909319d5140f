package chain

import (
	"errors"
	"strings"
	"testing"

	"sei-gateway/go-backend/internal/domains/contracts"
)

func TestParseAddressChecksum(t *testing.T) {
	valid := []string{
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		"0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED",
	}
	for _, in := range valid {
		addr, err := ParseAddress("address", in)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", in, err)
		}
		if !strings.EqualFold(addr.Hex(), in) {
			t.Fatalf("%s: parsed as %s", in, addr.Hex())
		}
	}
}

func TestParseAddressRejects(t *testing.T) {
	cases := []string{
		"",
		"5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAe",
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAeZ",
		"0x5aaeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
	}
	for _, in := range cases {
		_, err := ParseAddress("address", in)
		if err == nil {
			t.Fatalf("%q: expected error", in)
		}
		if contracts.KindOf(err) != contracts.KindInvalidParams {
			t.Fatalf("%q: expected invalid params, got %v", in, err)
		}
	}
}

func TestChecksumAddress(t *testing.T) {
	want := "0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB"
	if got := ChecksumAddress(strings.ToLower(want)); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestParseHash(t *testing.T) {
	good := "0x" + strings.Repeat("ab", 32)
	if _, err := ParseHash("txHash", good); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, in := range []string{"", "0x1234", strings.Repeat("ab", 33), "0x" + strings.Repeat("zz", 32)} {
		_, err := ParseHash("txHash", in)
		if !errors.Is(err, contracts.NewError(contracts.KindInvalidParams, "")) {
			t.Fatalf("%q: expected invalid params, got %v", in, err)
		}
	}
}
