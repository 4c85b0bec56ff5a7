package evm

import (
	"encoding/hex"
	"errors"
	"strings"

	ecommon "github.com/ethereum/go-ethereum/common"

	"github.com/vultisig/app-transfer/internal/types"
)

// ERC-20 function selectors: first 4 bytes of keccak256 of the signature.
var (
	transferSelector = [4]byte{0xa9, 0x05, 0x9c, 0xbb} // transfer(address,uint256)
)

const abiWordSize = 32

// normalizeAddress strips an optional 0x prefix and lower-cases the 40 hex
// characters of an address. Mixed-case input is validated against its EIP-55
// checksum before the case information is dropped. Anything outside the hex
// alphabet fails hard with no partial output.
func normalizeAddress(address string) (string, error) {
	stripped := strings.TrimPrefix(strings.TrimPrefix(address, "0x"), "0X")
	if len(stripped) != 40 {
		return "", types.NewEncodingError("address must be 40 hex characters, got %d", len(stripped))
	}
	if _, err := hex.DecodeString(stripped); err != nil {
		return "", types.NewEncodingError("address is not valid hex: %s", address)
	}

	lower := strings.ToLower(stripped)
	upper := strings.ToUpper(stripped)
	if stripped != lower && stripped != upper {
		// Mixed case carries an EIP-55 checksum; a mismatch means a typo.
		checksummed := ecommon.HexToAddress(stripped).Hex()
		if "0x"+stripped != checksummed {
			return "", types.NewEncodingError("address failed EIP-55 checksum: %s", address)
		}
	}

	return lower, nil
}

// normalizeAmountHex strips an optional 0x prefix and lower-cases an amount
// given as big-endian hex. The amount must fit one ABI word.
func normalizeAmountHex(amountHex string) (string, error) {
	stripped := strings.TrimPrefix(strings.TrimPrefix(amountHex, "0x"), "0X")
	if stripped == "" {
		return "", types.NewEncodingError("amount hex is empty")
	}
	if len(stripped) > abiWordSize*2 {
		return "", types.NewEncodingError("amount hex exceeds 32 bytes: %d characters", len(stripped))
	}

	lower := strings.ToLower(stripped)
	if len(lower)%2 == 1 {
		lower = "0" + lower
	}
	if _, err := hex.DecodeString(lower); err != nil {
		return "", types.NewEncodingError("amount is not valid hex: %s", amountHex)
	}
	return lower, nil
}

// leftPadWord decodes normalized hex into a 32-byte big-endian ABI word.
func leftPadWord(normalizedHex string) []byte {
	raw, _ := hex.DecodeString(normalizedHex)
	word := make([]byte, abiWordSize)
	copy(word[abiWordSize-len(raw):], raw)
	return word
}

// EncodeTransfer builds calldata for transfer(address,uint256): the 4-byte
// selector, the recipient left-padded to 32 bytes and the amount left-padded
// to 32 bytes. The output is always exactly 68 bytes.
func EncodeTransfer(to string, amountHex string) ([]byte, error) {
	addr, err := normalizeAddress(to)
	if err != nil {
		return nil, err
	}
	amount, err := normalizeAmountHex(amountHex)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, 4+2*abiWordSize)
	data = append(data, transferSelector[:]...)
	data = append(data, leftPadWord(addr)...)
	data = append(data, leftPadWord(amount)...)
	return data, nil
}

// ParseAddress validates and parses an address the way the request types
// carry it. Same normalization rules as the calldata encoder, but malformed
// input here is an input error since no encoding has begun.
func ParseAddress(address string) (ecommon.Address, error) {
	normalized, err := normalizeAddress(address)
	if err != nil {
		var encErr *types.EncodingError
		if errors.As(err, &encErr) {
			return ecommon.Address{}, types.NewInputError("%s", encErr.Reason)
		}
		return ecommon.Address{}, err
	}
	return ecommon.HexToAddress(normalized), nil
}
