package pattern

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrDesignerStatus indicates a non-200 response from the designer service.
var ErrDesignerStatus = errors.New("pattern: designer returned error status")

// HTTPDesigner calls a remote design service over HTTP. Requests POST the
// DesignRequest as JSON and expect a DesignResult back.
type HTTPDesigner struct {
	url    string
	client *http.Client
}

// NewHTTPDesigner creates a designer client for the given endpoint.
func NewHTTPDesigner(url string, timeout time.Duration) *HTTPDesigner {
	return &HTTPDesigner{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Design submits the request and decodes the proposed pattern.
func (d *HTTPDesigner) Design(ctx context.Context, req DesignRequest) (DesignResult, error) {
	var result DesignResult

	body, err := json.Marshal(req)
	if err != nil {
		return result, fmt.Errorf("encoding design request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return result, fmt.Errorf("building design request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return result, fmt.Errorf("calling designer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return result, fmt.Errorf("%w: %d", ErrDesignerStatus, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return result, fmt.Errorf("reading designer response: %w", err)
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("decoding designer response: %w", err)
	}
	if len(result.Config.Segments) == 0 {
		return result, errors.New("pattern: designer returned empty configuration")
	}
	return result, nil
}
