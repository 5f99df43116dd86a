package provider

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/erc7824/walletbridge/pkg/jsonrpc"
)

// watchAssetTypeERC20 is the only asset type the wallet can track.
const watchAssetTypeERC20 = "ERC20"

// WatchAssetParams is the parameter object of wallet_watchAsset.
type WatchAssetParams struct {
	Type    string            `json:"type" validate:"required"`
	Options WatchAssetOptions `json:"options" validate:"required"`
}

// WatchAssetOptions describes the asset to track. Symbol, decimals and
// image are advisory and forwarded untouched.
type WatchAssetOptions struct {
	Address  string `json:"address" validate:"required"`
	Symbol   string `json:"symbol,omitempty"`
	Decimals uint8  `json:"decimals,omitempty"`
	Image    string `json:"image,omitempty"`
}

var (
	watchAssetValidatorOnce sync.Once
	watchAssetValidator     *validator.Validate
)

func getValidator() *validator.Validate {
	watchAssetValidatorOnce.Do(func() {
		watchAssetValidator = validator.New()
	})
	return watchAssetValidator
}

// handleWatchAsset validates the asset descriptor, forwards the request to
// the wallet under its original method name, and coerces the wallet's
// answer into a strict boolean. Anything other than a literal true from
// the wallet reports false.
func (p *Provider) handleWatchAsset(ctx context.Context, req jsonrpc.Request) (any, error) {
	params, err := watchAssetParams(req.Params)
	if err != nil {
		return nil, err
	}
	if params.Type != watchAssetTypeERC20 {
		return nil, jsonrpc.InvalidParamsf("unsupported asset type %q, only %s is supported",
			params.Type, watchAssetTypeERC20)
	}

	res, callErr := p.walletCall(ctx, req)
	if callErr != nil {
		return nil, callErr
	}
	if res.Error != nil {
		return nil, res.Error
	}

	added, ok := res.Result.(bool)
	return ok && added, nil
}

// watchAssetParams extracts and validates the asset descriptor, accepting
// both the bare-object and single-element-array framings.
func watchAssetParams(params any) (WatchAssetParams, error) {
	var parsed WatchAssetParams

	positional := jsonrpc.PositionalParams(params)
	if len(positional) == 0 {
		return parsed, jsonrpc.InvalidParamsf("missing asset parameter")
	}

	raw, err := json.Marshal(positional[0])
	if err != nil {
		return parsed, jsonrpc.InvalidParamsf("asset parameter is not serializable")
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return parsed, jsonrpc.InvalidParamsf("asset parameter must be an object")
	}

	if err := getValidator().Struct(&parsed); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			return parsed, jsonrpc.InvalidParamsf("missing required field %s", watchAssetFieldName(fieldErrs[0]))
		}
		return parsed, jsonrpc.InvalidParamsf("invalid asset parameter")
	}
	return parsed, nil
}

func watchAssetFieldName(fe validator.FieldError) string {
	switch fe.StructNamespace() {
	case "WatchAssetParams.Type":
		return "type"
	case "WatchAssetParams.Options":
		return "options"
	case "WatchAssetParams.Options.Address":
		return "options.address"
	}
	return fe.Field()
}
