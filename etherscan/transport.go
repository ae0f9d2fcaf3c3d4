package etherscan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Params are the action specific query parameters. Values may be strings,
// integers, floats or booleans.
type Params map[string]any

// Envelope is the wrapper every explorer response comes in. Result is kept
// raw since its shape depends on the action.
type Envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

func (e *Envelope) OK() bool {
	return e.Status == "1"
}

// Call performs one throttled GET against the explorer. It never retries.
func (c *Client) Call(ctx context.Context, action Action, params Params) (*Envelope, error) {
	query, err := c.query(action, params)
	if err != nil {
		return nil, err
	}
	waitStart := time.Now()
	if err := c.throttle.Acquire(ctx); err != nil {
		return nil, err
	}
	if waited := time.Since(waitStart); waited > time.Millisecond {
		c.log.Debug().Dur("waited", waited).Msg("request throttled")
	}
	return c.get(ctx, action, query)
}

func (c *Client) get(ctx context.Context, action Action, query url.Values) (*Envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	c.log.Debug().
		Str("module", action.Module()).
		Str("action", action.Name()).
		Msg("dispatching explorer request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &ForbiddenError{Err: err}
		}
		return nil, &ForbiddenError{Body: string(body)}
	}

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ReadError{Err: err}
	}

	var envelope Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &EnvelopeError{Err: err}
	}

	return &envelope, nil
}

func (c *Client) query(action Action, params Params) (url.Values, error) {
	query := url.Values{}
	for key, value := range params {
		s, err := formatParam(value)
		if err != nil {
			return nil, fmt.Errorf("invalid parameter %q: %w", key, err)
		}
		query.Set(key, s)
	}
	query.Set("module", action.Module())
	query.Set("action", action.Name())
	query.Set("apikey", c.apiKey)
	return query, nil
}

func formatParam(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported type %T", value)
	}
}
