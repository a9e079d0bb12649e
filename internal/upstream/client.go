package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/authgw/gateway/internal/models"
	"github.com/authgw/gateway/pkg/metrics"
)

// RequestIDHeader carries the gateway request id to upstream services.
const RequestIDHeader = "unique_id"

// maxBodyBytes bounds how much of an upstream response is buffered for pass-through.
const maxBodyBytes = 1 << 20

// ErrUnavailable wraps transport failures: the upstream could not be reached or its
// response could not be read.
var ErrUnavailable = errors.New("upstream unavailable")

// Response is an upstream answer kept verbatim so handlers can pass it through.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// Identity extracts {id, email} from a JSON body. Numeric ids are rendered in decimal.
func (r *Response) Identity() (models.Identity, error) {
	var raw struct {
		ID    json.RawMessage `json:"id"`
		Email string          `json:"email"`
	}
	if err := json.Unmarshal(r.Body, &raw); err != nil {
		return models.Identity{}, fmt.Errorf("decode identity: %w", err)
	}
	id, err := identityID(raw.ID)
	if err != nil {
		return models.Identity{}, err
	}
	return models.Identity{ID: id, Email: raw.Email}, nil
}

func identityID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", errors.New("decode identity: id missing")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return "", errors.New("decode identity: id empty")
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("decode identity: id must be a string or number: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10), nil
	}
	return n.String(), nil
}

// client posts JSON to one upstream service and records the outcome per service.
type client struct {
	http    *http.Client
	service string
}

func (c *client) postJSON(ctx context.Context, url string, payload any, requestID string) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", c.service, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", c.service, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if requestID != "" {
		req.Header.Set(RequestIDHeader, requestID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(c.service, "error").Inc()
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, c.service, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(c.service, "error").Inc()
		return nil, fmt.Errorf("%w: %s: read response: %v", ErrUnavailable, c.service, err)
	}
	metrics.UpstreamRequests.WithLabelValues(c.service, statusClass(resp.StatusCode)).Inc()
	return &Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        b,
	}, nil
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}
