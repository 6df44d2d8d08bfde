package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/hahaandwawa/portfolio-app-sub000/internal/errors"
)

// Stooq-based implementation (no API key required). Stooq serves CSV for
// both latest quotes and daily history.
type StooqProvider struct {
	httpClient *http.Client
	baseURL    string
}

func NewStooqProvider() *StooqProvider {
	return &StooqProvider{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    "https://stooq.com",
	}
}

func (p *StooqProvider) Name() string { return "stooq" }

// mapSymbolToStooq appends the US market suffix when the caller passes a
// bare ticker. Symbols that already carry a market suffix pass through.
func mapSymbolToStooq(symbol string) string {
	s := strings.ToLower(symbol)
	if strings.Contains(s, ".") {
		return s
	}
	return s + ".us"
}

func (p *StooqProvider) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	url := fmt.Sprintf("%s/q/l/?s=%s&f=sd2t2ohlcv&h&e=csv", p.baseURL, mapSymbolToStooq(symbol))
	records, err := p.fetchCSV(ctx, url)
	if err != nil {
		return nil, err
	}
	if len(records) < 2 || len(records[1]) < 7 {
		return nil, &apperrors.ErrDataUnavailable{Symbol: symbol}
	}
	row := records[1]
	closePx, err := decimal.NewFromString(row[6])
	if err != nil {
		// Stooq returns "N/D" for unknown symbols
		return nil, &apperrors.ErrDataUnavailable{Symbol: symbol}
	}
	ts := time.Now()
	if t, perr := time.Parse("2006-01-02 15:04:05", row[1]+" "+row[2]); perr == nil {
		ts = t
	}
	return &Quote{Symbol: symbol, Price: closePx, Currency: "USD", Timestamp: ts}, nil
}

func (p *StooqProvider) GetQuotes(ctx context.Context, symbols []string) (map[string]*Quote, error) {
	quotes := make(map[string]*Quote, len(symbols))
	for _, symbol := range symbols {
		q, err := p.GetQuote(ctx, symbol)
		if err != nil {
			// Partial results are fine; the caller decides how to degrade.
			continue
		}
		quotes[symbol] = q
	}
	if len(quotes) == 0 && len(symbols) > 0 {
		return nil, &apperrors.ErrDataUnavailable{Symbol: strings.Join(symbols, ",")}
	}
	return quotes, nil
}

func (p *StooqProvider) GetHistoricalRange(ctx context.Context, symbol string, from, to time.Time) ([]Bar, error) {
	url := fmt.Sprintf("%s/q/d/l/?s=%s&d1=%s&d2=%s&i=d",
		p.baseURL, mapSymbolToStooq(symbol), from.Format("20060102"), to.Format("20060102"))
	records, err := p.fetchCSV(ctx, url)
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, &apperrors.ErrDataUnavailable{Symbol: symbol, Date: from}
	}

	bars := make([]Bar, 0, len(records)-1)
	for _, row := range records[1:] {
		if len(row) < 5 {
			continue
		}
		date, derr := time.Parse("2006-01-02", row[0])
		if derr != nil {
			continue
		}
		open, oerr := decimal.NewFromString(row[1])
		closePx, cerr := decimal.NewFromString(row[4])
		if oerr != nil || cerr != nil {
			continue
		}
		bars = append(bars, Bar{Date: date, Open: open, Close: closePx})
	}
	if len(bars) == 0 {
		return nil, &apperrors.ErrDataUnavailable{Symbol: symbol, Date: from}
	}
	return bars, nil
}

func (p *StooqProvider) GetHistoricalOpenClose(ctx context.Context, symbol string, date time.Time) (*Bar, error) {
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

func (p *StooqProvider) fetchCSV(ctx context.Context, url string) ([][]string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from stooq: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &apperrors.ErrRateLimited{Provider: p.Name()}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stooq status %d", resp.StatusCode)
	}

	reader := csv.NewReader(resp.Body)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse stooq csv: %w", err)
	}
	return records, nil
}
