package quote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/rebalance"
)

/*
Yahoo chart endpoint, trimmed:

	{
	  "chart": {
	    "result": [{
	      "meta": {
	        "currency": "USD",
	        "symbol": "VV",
	        "regularMarketPrice": 268.93,
	        ...
	      },
	      ...
	    }],
	    "error": null
	  }
	}
*/
const (
	yahooPricePath    = "$.chart.result[0].meta.regularMarketPrice"
	yahooCurrencyPath = "$.chart.result[0].meta.currency"
)

// Yahoo fetches the regular market price from the Yahoo Finance chart API.
type Yahoo struct {
	BaseURL  string
	Client   *http.Client
	Currency string
}

// NewYahoo returns a Yahoo provider whose responses are cached on disk for
// the day.
func NewYahoo(currency string) *Yahoo {
	return &Yahoo{
		BaseURL:  "https://query1.finance.yahoo.com",
		Client:   daily(os.TempDir()),
		Currency: currency,
	}
}

func (y *Yahoo) Price(ctx context.Context, symbol string) (rebalance.Money, error) {
	addr := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d", y.BaseURL, url.PathEscape(symbol))
	var jobj any
	if err := jwget(ctx, y.Client, addr, &jobj); err != nil {
		return rebalance.Money{}, fmt.Errorf("yahoo quote of %s: %w", symbol, err)
	}
	jval, err := jsonpath.Get(yahooPricePath, jobj)
	if err != nil {
		return rebalance.Money{}, fmt.Errorf("yahoo quote of %s: %w: %v", symbol, ErrNoPrice, err)
	}
	price, ok := jval.(float64)
	if !ok || price <= 0 {
		return rebalance.Money{}, fmt.Errorf("yahoo quote of %s: %w: unexpected price %v", symbol, ErrNoPrice, jval)
	}
	// a symbol listed on another exchange is quoted in its currency.
	if cur, err := jsonpath.Get(yahooCurrencyPath, jobj); err == nil {
		if s, ok := cur.(string); ok && s != "" && !strings.EqualFold(s, y.Currency) {
			return rebalance.Money{}, fmt.Errorf("yahoo quote of %s: %w: quoted in %s, want %s", symbol, ErrNoPrice, s, y.Currency)
		}
	}
	return rebalance.M(price, y.Currency), nil
}
