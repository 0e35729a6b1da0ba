package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
)

// Chart is the slice of the chart API response the provider consumes.
type Chart struct {
	Symbol             string
	Currency           string
	RegularMarketPrice float64
}

// GetChart retrieves the latest chart metadata for a symbol.
func (c *ChartAPIClient) GetChart(ctx context.Context, symbol string, opts ...ChartAPIClientOption) (Chart, error) {
	var override = &ChartAPIClient{
		baseURL:    c.baseURL,
		httpClient: c.httpClient,
		header:     c.header.Clone(),
		query:      c.query,
	}
	for _, opt := range opts {
		opt(override)
	}

	query := maps.Clone(override.query)
	query.Add("range", "1d")
	query.Add("interval", "1d")

	url := fmt.Sprintf("%s/v8/finance/chart/%s?%s", override.baseURL, symbol, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return Chart{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header = override.header

	res, err := override.httpClient.Do(req)
	if err != nil {
		return Chart{}, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break

	case http.StatusNotFound:
		return Chart{}, fmt.Errorf("symbol %s not found", symbol)

	case http.StatusTooManyRequests:
		return Chart{}, fmt.Errorf("rate limited")

	default:
		return Chart{}, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	var body chartResponse
	dec := json.NewDecoder(res.Body)
	if err := dec.Decode(&body); err != nil {
		return Chart{}, fmt.Errorf("decoding chart response: %w", err)
	}
	if body.Chart.Error != nil {
		return Chart{}, fmt.Errorf("chart error: %s", body.Chart.Error.Description)
	}
	if len(body.Chart.Result) == 0 {
		return Chart{}, fmt.Errorf("empty chart result for %s", symbol)
	}
	meta := body.Chart.Result[0].Meta
	return Chart{
		Symbol:             meta.Symbol,
		Currency:           meta.Currency,
		RegularMarketPrice: meta.RegularMarketPrice,
	}, nil
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}
