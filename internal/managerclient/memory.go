package managerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"

	"github.com/leastauthority/gridconverge/internal/subscription"
)

// MemoryClient dispatches the Subscription Manager protocol through an
// in-process http.Handler via httptest.NewRecorder instead of a live
// socket, mirroring memory_client/MemoryAgent in
// _examples/original_source/lae_automation/subscription_manager.py. It
// deliberately re-implements its own request/response encoding rather
// than delegating to NetworkClient, so the two variants never share a
// serialization shortcut that could mask a protocol mismatch (spec.md
// §4.D).
type MemoryClient struct {
	handler http.Handler
}

// NewMemoryClient builds a MemoryClient dispatching through handler (the
// Subscription Manager Service's chi.Router).
func NewMemoryClient(handler http.Handler) *MemoryClient {
	return &MemoryClient{handler: handler}
}

func (c *MemoryClient) dispatch(ctx context.Context, method, path string, body io.Reader, want int, op string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(method, path, body)
	req = req.WithContext(ctx)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	if rec.Code != want {
		return nil, &UnexpectedResponseCode{Operation: op, Want: want, Got: rec.Code, Body: rec.Body.String()}
	}
	return rec, nil
}

// Create creates a new, active subscription.
func (c *MemoryClient) Create(ctx context.Context, id string, details subscription.PartialDetails) error {
	buf, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("managerclient: encoding create request: %w", err)
	}

	_, err = c.dispatch(ctx, http.MethodPut, "/v1/subscriptions/"+url.PathEscape(id), bytes.NewReader(buf), http.StatusCreated, "create")
	return err
}

// Get retrieves a subscription, active or inactive.
func (c *MemoryClient) Get(ctx context.Context, id string) (subscription.Record, error) {
	rec, err := c.dispatch(ctx, http.MethodGet, "/v1/subscriptions/"+url.PathEscape(id), nil, http.StatusOK, "get")
	if err != nil {
		return subscription.Record{}, err
	}

	var r subscription.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &r); err != nil {
		return subscription.Record{}, fmt.Errorf("managerclient: decoding get response: %w", err)
	}
	return r, nil
}

// List retrieves all active subscriptions.
func (c *MemoryClient) List(ctx context.Context) ([]subscription.Record, error) {
	rec, err := c.dispatch(ctx, http.MethodGet, "/v1/subscriptions", nil, http.StatusOK, "list")
	if err != nil {
		return nil, err
	}

	var body struct {
		Subscriptions []subscription.Record `json:"subscriptions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		return nil, fmt.Errorf("managerclient: decoding list response: %w", err)
	}
	return body.Subscriptions, nil
}

// Delete deactivates a subscription.
func (c *MemoryClient) Delete(ctx context.Context, id string) error {
	_, err := c.dispatch(ctx, http.MethodDelete, "/v1/subscriptions/"+url.PathEscape(id), nil, http.StatusNoContent, "delete")
	return err
}
