// Package stocks は大手テック企業の株価取得と保存を提供する。
package stocks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/techscope/internal/model"
)

// QuoteClient は株価取得のインターフェース。
type QuoteClient interface {
	// FetchQuote は1銘柄の現在株価を取得する。
	FetchQuote(ctx context.Context, symbol string) (*Quote, error)
}

// Quote は1銘柄の株価スナップショット。
type Quote struct {
	Symbol        string
	Price         float64
	Change        float64
	ChangePercent float64
}

// defaultAlphaVantageEndpoint はAlpha Vantage APIのエンドポイント。
const defaultAlphaVantageEndpoint = "https://www.alphavantage.co/query"

// AlphaVantageClient はAlpha Vantage GLOBAL_QUOTE APIを使用するQuoteClient実装。
type AlphaVantageClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewAlphaVantageClient はAlphaVantageClientの新しいインスタンスを生成する。
// endpointが空の場合はAlpha Vantageの本番エンドポイントを使用する。
func NewAlphaVantageClient(endpoint, apiKey string, timeout time.Duration) *AlphaVantageClient {
	if endpoint == "" {
		endpoint = defaultAlphaVantageEndpoint
	}
	return &AlphaVantageClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// globalQuoteResponse はGLOBAL_QUOTE APIのワイヤ形式。
// 数値は全て文字列で返ってくる。
type globalQuoteResponse struct {
	GlobalQuote struct {
		Symbol        string `json:"01. symbol"`
		Price         string `json:"05. price"`
		Change        string `json:"09. change"`
		ChangePercent string `json:"10. change percent"`
	} `json:"Global Quote"`
}

// FetchQuote は1銘柄の現在株価を取得する。
func (c *AlphaVantageClient) FetchQuote(ctx context.Context, symbol string) (*Quote, error) {
	if c.apiKey == "" {
		return nil, &model.FetchError{Source: "alphavantage", URL: c.endpoint, Err: fmt.Errorf("API key is not configured")}
	}

	query := url.Values{}
	query.Set("function", "GLOBAL_QUOTE")
	query.Set("symbol", symbol)
	query.Set("apikey", c.apiKey)
	reqURL := c.endpoint + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &model.FetchError{Source: "alphavantage", URL: c.endpoint, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &model.FetchError{Source: "alphavantage", URL: c.endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.FetchError{
			Source: "alphavantage",
			URL:    c.endpoint,
			Err:    fmt.Errorf("unexpected HTTP status: %d", resp.StatusCode),
		}
	}

	var quoteResp globalQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&quoteResp); err != nil {
		return nil, &model.ParseError{Source: "alphavantage", Err: err}
	}

	gq := quoteResp.GlobalQuote
	if gq.Symbol == "" {
		return nil, &model.ParseError{Source: "alphavantage", Err: fmt.Errorf("empty quote for symbol %s", symbol)}
	}

	price, err := strconv.ParseFloat(gq.Price, 64)
	if err != nil {
		return nil, &model.ParseError{Source: "alphavantage", Err: fmt.Errorf("invalid price %q: %w", gq.Price, err)}
	}
	change, err := strconv.ParseFloat(gq.Change, 64)
	if err != nil {
		return nil, &model.ParseError{Source: "alphavantage", Err: fmt.Errorf("invalid change %q: %w", gq.Change, err)}
	}
	changePercent, err := strconv.ParseFloat(strings.TrimSuffix(gq.ChangePercent, "%"), 64)
	if err != nil {
		return nil, &model.ParseError{Source: "alphavantage", Err: fmt.Errorf("invalid change percent %q: %w", gq.ChangePercent, err)}
	}

	return &Quote{
		Symbol:        gq.Symbol,
		Price:         price,
		Change:        change,
		ChangePercent: changePercent,
	}, nil
}

// compile-time interface check
var _ QuoteClient = (*AlphaVantageClient)(nil)
