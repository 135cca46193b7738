package quote

import (
	"context"
	"fmt"
	"os"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/etnz/rebalance"
)

// Alpaca fetches the latest trade price from Alpaca market data, and the
// equity of the Alpaca trading account.
//
// Credentials are read by the clients from APCA_API_KEY_ID and
// APCA_API_SECRET_KEY, usually set in the .env file.
type Alpaca struct {
	client *marketdata.Client
	trade  *alpaca.Client
}

// NewAlpaca returns an Alpaca provider configured from the environment.
func NewAlpaca() *Alpaca {
	return &Alpaca{
		client: marketdata.NewClient(marketdata.ClientOpts{}),
		trade:  alpaca.NewClient(alpaca.ClientOpts{}),
	}
}

// HasAlpacaCredentials reports whether the Alpaca API keys are set.
func HasAlpacaCredentials() bool {
	return os.Getenv("APCA_API_KEY_ID") != "" && os.Getenv("APCA_API_SECRET_KEY") != ""
}

// Alpaca quotes are in USD.
func (a *Alpaca) Price(ctx context.Context, symbol string) (rebalance.Money, error) {
	if err := ctx.Err(); err != nil {
		return rebalance.Money{}, err
	}
	trade, err := a.client.GetLatestTrade(symbol, marketdata.GetLatestTradeRequest{})
	if err != nil {
		return rebalance.Money{}, fmt.Errorf("alpaca quote of %s: %w", symbol, err)
	}
	if trade == nil || trade.Price <= 0 {
		return rebalance.Money{}, fmt.Errorf("alpaca quote of %s: %w", symbol, ErrNoPrice)
	}
	return rebalance.M(trade.Price, "USD"), nil
}

// Equity returns the net liquidation value of the Alpaca account, in USD.
func (a *Alpaca) Equity(ctx context.Context) (rebalance.Money, error) {
	if err := ctx.Err(); err != nil {
		return rebalance.Money{}, err
	}
	account, err := a.trade.GetAccount()
	if err != nil {
		return rebalance.Money{}, fmt.Errorf("alpaca account: %w", err)
	}
	return rebalance.M(account.Equity, "USD"), nil
}
