package chain

import (
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"

	"sei-gateway/go-backend/internal/domains/contracts"
)

// ParseAddress validates a 0x-prefixed address. Mixed-case input must
// carry a valid EIP-55 checksum; all-lower or all-upper input is
// accepted as is.
func ParseAddress(field, raw string) (common.Address, error) {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "0x") || !common.IsHexAddress(s) {
		return common.Address{}, contracts.NewError(contracts.KindInvalidParams, field+" is not a valid address")
	}
	body := s[2:]
	if body != strings.ToLower(body) && body != strings.ToUpper(body) {
		if ChecksumAddress(body) != s {
			return common.Address{}, contracts.NewError(contracts.KindInvalidParams, field+" has an invalid checksum")
		}
	}
	return common.HexToAddress(s), nil
}

// ChecksumAddress returns the EIP-55 form of a 40-digit hex address.
func ChecksumAddress(hexAddr string) string {
	lower := strings.ToLower(strings.TrimPrefix(hexAddr, "0x"))
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	digest := hex.EncodeToString(h.Sum(nil))

	out := []byte(lower)
	for i, c := range out {
		if c >= 'a' && c <= 'f' && digest[i] >= '8' {
			out[i] = c - ('a' - 'A')
		}
	}
	return "0x" + string(out)
}

// ParseHash validates a 0x-prefixed 32-byte hash.
func ParseHash(field, raw string) (common.Hash, error) {
	s := strings.TrimSpace(raw)
	if len(s) != 66 || !strings.HasPrefix(s, "0x") {
		return common.Hash{}, contracts.NewError(contracts.KindInvalidParams, field+" must be a 0x-prefixed 32-byte hex string")
	}
	if _, err := hex.DecodeString(s[2:]); err != nil {
		return common.Hash{}, contracts.NewError(contracts.KindInvalidParams, field+" is not valid hex")
	}
	return common.HexToHash(s), nil
}
