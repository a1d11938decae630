// Package fetch downloads daily quote history over HTTP and persists it to
// the bar store. The upstream serves klines as comma-joined strings, one per
// trading day.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tidemark/internal/domain"
)

const (
	kltDaily      = "101" // daily bars
	fqtForward    = "1"   // forward-adjusted prices
	klineFields   = "f51,f52,f53,f54,f55,f56"
	requestFields = "f57,f58"
)

// QuoteClient fetches daily kline history from the quote HTTP API.
type QuoteClient struct {
	baseURL string
	httpc   *http.Client
}

// NewQuoteClient creates a QuoteClient against the given base URL.
func NewQuoteClient(baseURL string) *QuoteClient {
	return &QuoteClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

type klineResponse struct {
	Data *struct {
		Code   string   `json:"code"`
		Name   string   `json:"name"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

// DailyBars fetches forward-adjusted daily bars for the symbol between start
// and end, inclusive. A symbol unknown to the upstream yields
// domain.ErrInvalidData.
func (c *QuoteClient) DailyBars(ctx context.Context, symbol string, market domain.Market, start, end time.Time) ([]domain.Bar, error) {
	q := url.Values{}
	q.Set("secid", secID(symbol, market))
	q.Set("klt", kltDaily)
	q.Set("fqt", fqtForward)
	q.Set("fields1", requestFields)
	q.Set("fields2", klineFields)
	q.Set("beg", start.Format("20060102"))
	q.Set("end", end.Format("20060102"))

	reqURL := c.baseURL + "/api/qt/stock/kline/get?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching klines for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching klines for %s: status %d", symbol, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var kr klineResponse
	if err := json.Unmarshal(body, &kr); err != nil {
		return nil, fmt.Errorf("decoding klines for %s: %w", symbol, err)
	}
	if kr.Data == nil {
		return nil, fmt.Errorf("%w: no data for %s", domain.ErrInvalidData, symbol)
	}

	bars := make([]domain.Bar, 0, len(kr.Data.Klines))
	for _, line := range kr.Data.Klines {
		bar, err := parseKline(line)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidData, symbol, err)
		}
		bar.Symbol = symbol
		bar.Name = kr.Data.Name
		bars = append(bars, bar)
	}
	return bars, nil
}

// parseKline decodes one "date,open,close,high,low,volume" line.
func parseKline(line string) (domain.Bar, error) {
	parts := strings.Split(line, ",")
	if len(parts) < 6 {
		return domain.Bar{}, fmt.Errorf("short kline %q", line)
	}

	ts, err := time.ParseInLocation("2006-01-02", parts[0], time.UTC)
	if err != nil {
		return domain.Bar{}, fmt.Errorf("bad kline date %q", parts[0])
	}

	vals := make([]float64, 5)
	for i := 0; i < 5; i++ {
		v, err := strconv.ParseFloat(parts[i+1], 64)
		if err != nil {
			return domain.Bar{}, fmt.Errorf("bad kline field %q", parts[i+1])
		}
		vals[i] = v
	}

	return domain.Bar{
		Timestamp: ts,
		Open:      vals[0],
		Close:     vals[1],
		High:      vals[2],
		Low:       vals[3],
		Volume:    vals[4],
	}, nil
}

// secID builds the upstream security identifier: market prefix plus bare
// code. Shanghai listings (6xx) use prefix 1, Shenzhen 0, Hong Kong 116.
func secID(symbol string, market domain.Market) string {
	if market == domain.MarketHKConnect {
		return "116." + symbol
	}
	if strings.HasPrefix(symbol, "6") {
		return "1." + symbol
	}
	return "0." + symbol
}
