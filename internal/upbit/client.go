// Package upbit is a client for the Upbit quotation REST API and a
// cache-through candle service on top of it.
package upbit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"coinrich/internal/domain"
	"coinrich/internal/util"
)

const (
	defaultBaseURL = "https://api.upbit.com/v1"

	// Upbit allows 30 quotation requests per second per IP; stay well under.
	requestsPerSec = 10

	maxAttempts   = 3
	baseRetryWait = 500 * time.Millisecond

	// MaxCandlesPerRequest is the API's page size cap.
	MaxCandlesPerRequest = 200
)

// candleTimeLayout is the format of candle_date_time_utc.
const candleTimeLayout = "2006-01-02T15:04:05"

// Client is an HTTP client for Upbit quotation endpoints with rate limiting
// and retries. Quotation endpoints need no authentication.
type Client struct {
	http    *http.Client
	baseURL string
	limiter *rate.Limiter
}

// NewClient creates a Client. An empty baseURL selects production.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		limiter: rate.NewLimiter(requestsPerSec, requestsPerSec),
	}
}

// minuteCandle is the wire form of one Upbit minute candle.
type minuteCandle struct {
	Market             string  `json:"market"`
	CandleDateTimeUTC  string  `json:"candle_date_time_utc"`
	CandleDateTimeKST  string  `json:"candle_date_time_kst"`
	OpeningPrice       float64 `json:"opening_price"`
	HighPrice          float64 `json:"high_price"`
	LowPrice           float64 `json:"low_price"`
	TradePrice         float64 `json:"trade_price"`
	Timestamp          int64   `json:"timestamp"`
	CandleAccTradeCost float64 `json:"candle_acc_trade_price"`
	CandleAccVolume    float64 `json:"candle_acc_trade_volume"`
	Unit               int     `json:"unit"`
}

// Market is one entry of the market listing.
type Market struct {
	Name        string `json:"market"`
	KoreanName  string `json:"korean_name"`
	EnglishName string `json:"english_name"`
}

// Ticker is the current price snapshot of one market.
type Ticker struct {
	Market     string  `json:"market"`
	TradePrice float64 `json:"trade_price"`
	Change     string  `json:"change"`
	ChangeRate float64 `json:"change_rate"`
	Timestamp  int64   `json:"timestamp"`
}

// MinuteCandles fetches up to MaxCandlesPerRequest candles of the given
// minute unit (1, 3, 5, 10, 15, 30, 60, 240), ending just before `to`
// (exclusive; zero means now). Upbit returns newest first; the result is
// re-sorted ascending by time.
func (c *Client) MinuteCandles(ctx context.Context, market string, unit, count int, to time.Time) ([]domain.Bar, error) {
	if count <= 0 || count > MaxCandlesPerRequest {
		return nil, fmt.Errorf("upbit: count %d out of range 1..%d", count, MaxCandlesPerRequest)
	}

	q := url.Values{}
	q.Set("market", market)
	q.Set("count", strconv.Itoa(count))
	if !to.IsZero() {
		q.Set("to", to.UTC().Format(candleTimeLayout)+"Z")
	}

	var candles []minuteCandle
	endpoint := fmt.Sprintf("%s/candles/minutes/%d?%s", c.baseURL, unit, q.Encode())
	if err := c.get(ctx, endpoint, &candles); err != nil {
		return nil, fmt.Errorf("upbit: minute candles %s/%dm: %w", market, unit, err)
	}

	bars := make([]domain.Bar, 0, len(candles))
	for _, cd := range candles {
		ts, err := time.ParseInLocation(candleTimeLayout, cd.CandleDateTimeUTC, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("upbit: candle time %q: %w", cd.CandleDateTimeUTC, err)
		}
		bars = append(bars, domain.Bar{
			Market:    cd.Market,
			Timestamp: ts,
			Open:      cd.OpeningPrice,
			High:      cd.HighPrice,
			Low:       cd.LowPrice,
			Close:     cd.TradePrice,
			Volume:    cd.CandleAccVolume,
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })
	return bars, nil
}

// Markets lists all tradable markets.
func (c *Client) Markets(ctx context.Context) ([]Market, error) {
	var markets []Market
	if err := c.get(ctx, c.baseURL+"/market/all?isDetails=false", &markets); err != nil {
		return nil, fmt.Errorf("upbit: markets: %w", err)
	}
	return markets, nil
}

// Tickers returns current price snapshots for the given markets.
func (c *Client) Tickers(ctx context.Context, markets []string) ([]Ticker, error) {
	if len(markets) == 0 {
		return nil, nil
	}
	q := url.Values{}
	q.Set("markets", strings.Join(markets, ","))

	var tickers []Ticker
	if err := c.get(ctx, c.baseURL+"/ticker?"+q.Encode(), &tickers); err != nil {
		return nil, fmt.Errorf("upbit: tickers: %w", err)
	}
	return tickers, nil
}

// get performs a rate-limited GET with retries on transient failures.
func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	return util.Retry(ctx, maxAttempts, baseRetryWait, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
}
