package managerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/leastauthority/gridconverge/internal/subscription"
)

// NetworkClient performs HTTP against a configured Subscription Manager
// root URL, per spec.md §4.D.
type NetworkClient struct {
	baseURL string
	http    *http.Client
}

// NewNetworkClient builds a NetworkClient rooted at baseURL (no trailing
// slash expected or required — it is trimmed).
func NewNetworkClient(baseURL string, httpClient *http.Client) *NetworkClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &NetworkClient{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *NetworkClient) subscriptionURL(id string) string {
	return c.baseURL + "/v1/subscriptions/" + url.PathEscape(id)
}

func (c *NetworkClient) do(ctx context.Context, method, url string, body io.Reader, want int, op string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("managerclient: building %s request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("managerclient: %s: %w", op, err)
	}

	if resp.StatusCode != want {
		defer resp.Body.Close()
		buf, _ := io.ReadAll(resp.Body)
		return nil, &UnexpectedResponseCode{Operation: op, Want: want, Got: resp.StatusCode, Body: string(buf)}
	}

	return resp, nil
}

// Create creates a new, active subscription.
func (c *NetworkClient) Create(ctx context.Context, id string, details subscription.PartialDetails) error {
	buf, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("managerclient: encoding create request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPut, c.subscriptionURL(id), bytes.NewReader(buf), http.StatusCreated, "create")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Get retrieves a subscription, active or inactive.
func (c *NetworkClient) Get(ctx context.Context, id string) (subscription.Record, error) {
	resp, err := c.do(ctx, http.MethodGet, c.subscriptionURL(id), nil, http.StatusOK, "get")
	if err != nil {
		return subscription.Record{}, err
	}
	defer resp.Body.Close()

	var r subscription.Record
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return subscription.Record{}, fmt.Errorf("managerclient: decoding get response: %w", err)
	}
	return r, nil
}

// List retrieves all active subscriptions.
func (c *NetworkClient) List(ctx context.Context) ([]subscription.Record, error) {
	resp, err := c.do(ctx, http.MethodGet, c.baseURL+"/v1/subscriptions", nil, http.StatusOK, "list")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body struct {
		Subscriptions []subscription.Record `json:"subscriptions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("managerclient: decoding list response: %w", err)
	}
	return body.Subscriptions, nil
}

// Delete deactivates a subscription.
func (c *NetworkClient) Delete(ctx context.Context, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, c.subscriptionURL(id), nil, http.StatusNoContent, "delete")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
