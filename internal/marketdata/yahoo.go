package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/hahaandwawa/portfolio-app-sub000/internal/errors"
)

// Yahoo Finance chart API implementation (no API key required).
type YahooProvider struct {
	httpClient *http.Client
	baseURL    string
}

func NewYahooProvider() *YahooProvider {
	return &YahooProvider{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    "https://query1.finance.yahoo.com",
	}
}

func (p *YahooProvider) Name() string { return "yahoo" }

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open  []*float64 `json:"open"`
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (p *YahooProvider) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	url := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d", p.baseURL, symbol)
	payload, err := p.fetchChart(ctx, url, symbol)
	if err != nil {
		return nil, err
	}
	meta := payload.Chart.Result[0].Meta
	if meta.RegularMarketPrice == 0 {
		return nil, &apperrors.ErrDataUnavailable{Symbol: symbol}
	}
	ts := time.Now()
	if meta.RegularMarketTime > 0 {
		ts = time.Unix(meta.RegularMarketTime, 0)
	}
	currency := meta.Currency
	if currency == "" {
		currency = "USD"
	}
	return &Quote{
		Symbol:    symbol,
		Price:     decimal.NewFromFloat(meta.RegularMarketPrice),
		Currency:  currency,
		Timestamp: ts,
	}, nil
}

func (p *YahooProvider) GetQuotes(ctx context.Context, symbols []string) (map[string]*Quote, error) {
	quotes := make(map[string]*Quote, len(symbols))
	for _, symbol := range symbols {
		q, err := p.GetQuote(ctx, symbol)
		if err != nil {
			continue
		}
		quotes[symbol] = q
	}
	if len(quotes) == 0 && len(symbols) > 0 {
		return nil, &apperrors.ErrDataUnavailable{Symbol: symbols[0]}
	}
	return quotes, nil
}

func (p *YahooProvider) GetHistoricalRange(ctx context.Context, symbol string, from, to time.Time) ([]Bar, error) {
	// period2 is exclusive; push it one day forward so "to" is included.
	url := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d",
		p.baseURL, symbol, from.Unix(), to.AddDate(0, 0, 1).Unix())
	payload, err := p.fetchChart(ctx, url, symbol)
	if err != nil {
		return nil, err
	}

	result := payload.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, &apperrors.ErrDataUnavailable{Symbol: symbol, Date: from}
	}
	quote := result.Indicators.Quote[0]

	bars := make([]Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		open := decimal.Zero
		if i < len(quote.Open) && quote.Open[i] != nil {
			open = decimal.NewFromFloat(*quote.Open[i])
		}
		bars = append(bars, Bar{
			Date:  time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Open:  open,
			Close: decimal.NewFromFloat(*quote.Close[i]),
		})
	}
	if len(bars) == 0 {
		return nil, &apperrors.ErrDataUnavailable{Symbol: symbol, Date: from}
	}
	return bars, nil
}

func (p *YahooProvider) GetHistoricalOpenClose(ctx context.Context, symbol string, date time.Time) (*Bar, error) {
	bars, err := p.GetHistoricalRange(ctx, symbol, date, date)
	if err != nil {
		return nil, err
	}
	for i := range bars {
		if bars[i].Date.Year() == date.Year() && bars[i].Date.YearDay() == date.YearDay() {
			return &bars[i], nil
		}
	}
	return nil, &apperrors.ErrDataUnavailable{Symbol: symbol, Date: date}
}

func (p *YahooProvider) fetchChart(ctx context.Context, url, symbol string) (*yahooChartResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	// Yahoo rejects requests without a browser-ish user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; portfolio-app/1.0)")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from yahoo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &apperrors.ErrRateLimited{Provider: p.Name()}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo status %d", resp.StatusCode)
	}

	var payload yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode yahoo response: %w", err)
	}
	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo error: %s", payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 {
		return nil, &apperrors.ErrDataUnavailable{Symbol: symbol}
	}
	return &payload, nil
}
