package chainclient

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// KLAYDecimals is the decimal precision of the chain's native token.
const KLAYDecimals = 18

// FormatUnits converts a hex-encoded base-unit quantity into a decimal
// amount shifted by the given precision.
func FormatUnits(hexAmount string, decimals int32) (decimal.Decimal, error) {
	n, err := hexutil.DecodeBig(hexAmount)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "invalid hex quantity %q", hexAmount)
	}
	return decimal.NewFromBigInt(n, -decimals), nil
}

// FormatKLAY converts a hex-encoded peb quantity into KLAY.
func FormatKLAY(hexAmount string) (decimal.Decimal, error) {
	return FormatUnits(hexAmount, KLAYDecimals)
}
