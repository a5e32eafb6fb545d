package tools

import (
	"context"
	"strings"

	"github.com/skosovsky/mcptoolkit"
)

// DefaultCurrency is reported when the result carries no currency.
const DefaultCurrency = "USD"

// CryptoInput is the input of the cryptocurrency price tool.
type CryptoInput struct {
	Crypto string `json:"crypto" jsonschema:"Symbol of the cryptocurrency (e.g. bitcoin, ethereum)"`
}

// Validate rejects a blank symbol.
func (in CryptoInput) Validate() error {
	if strings.TrimSpace(in.Crypto) == "" {
		return &mcptoolkit.InputError{Field: "crypto", Reason: "must not be empty"}
	}
	return nil
}

// CryptoResponse is the typed price result.
type CryptoResponse struct {
	Crypto   string            `json:"crypto" yaml:"crypto"`
	Price    *float64          `json:"price,omitempty" yaml:"price,omitempty"`
	Currency string            `json:"currency" yaml:"currency"`
	RawData  mcptoolkit.Result `json:"raw_data" yaml:"raw_data"`
}

// Crypto is the facade for CryptoToolID.
var Crypto = NewFacade(CryptoToolID, func(in CryptoInput, res mcptoolkit.Result) CryptoResponse {
	out := CryptoResponse{
		Crypto:   in.Crypto,
		Price:    floatField(res, "price"),
		Currency: DefaultCurrency,
		RawData:  res,
	}
	if c := stringField(res, "currency"); c != nil && *c != "" {
		out.Currency = *c
	}
	return out
})

// GetCryptocurrencyPrice returns the current price of crypto.
func GetCryptocurrencyPrice(ctx context.Context, c Caller, crypto string) (CryptoResponse, error) {
	return Crypto.Call(ctx, c, CryptoInput{Crypto: crypto})
}

// GetCryptocurrencyPriceSync is the synchronous variant of GetCryptocurrencyPrice.
func GetCryptocurrencyPriceSync(ctx context.Context, c Caller, mode mcptoolkit.ExecMode, crypto string) (CryptoResponse, error) {
	return Crypto.CallSync(ctx, c, mode, CryptoInput{Crypto: crypto})
}
