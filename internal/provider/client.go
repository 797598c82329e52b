package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout is the per-call budget for provider requests.
const DefaultTimeout = 30 * time.Second

// Client is a typed wrapper around the remote provisioning API. Every call
// carries the API key header and the configured timeout. Read endpoints
// (services, countries, prices) are cached per query key.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      Cache
	cacheTTL   time.Duration
}

// NewClient constructs a provisioning client. A nil cache disables read caching.
func NewClient(baseURL, apiKey string, timeout time.Duration, cache Cache) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache,
		cacheTTL:   DefaultCacheTTL,
	}
}

// apiErrorBody is the provider's error payload shape.
type apiErrorBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

func (c *Client) request(ctx context.Context, method, endpoint string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, errMarshal := json.Marshal(body)
		if errMarshal != nil {
			return fmt.Errorf("provider: encode request: %w", errMarshal)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, errReq := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if errReq != nil {
		return fmt.Errorf("provider: build request: %w", errReq)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, errDo := c.httpClient.Do(req)
	if errDo != nil {
		if isTimeout(errDo) {
			return ErrTimeout
		}
		return fmt.Errorf("provider: request failed: %w", errDo)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, errRead := io.ReadAll(resp.Body)
	if errRead != nil {
		if isTimeout(errRead) {
			return ErrTimeout
		}
		return fmt.Errorf("provider: read response: %w", errRead)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{Status: resp.StatusCode}
		var parsed apiErrorBody
		if errUnmarshal := json.Unmarshal(payload, &parsed); errUnmarshal == nil {
			if parsed.Message != "" {
				apiErr.Message = parsed.Message
			} else {
				apiErr.Message = parsed.Error
			}
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if errUnmarshal := json.Unmarshal(payload, out); errUnmarshal != nil {
		return fmt.Errorf("provider: decode response: %w", errUnmarshal)
	}
	return nil
}

// isTimeout reports whether an error stems from the per-call deadline.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

// cachedGet fetches a read endpoint through the cache.
func (c *Client) cachedGet(ctx context.Context, key, endpoint string, out any) error {
	if c.cache != nil {
		if payload, ok := c.cache.Get(ctx, key); ok {
			return json.Unmarshal(payload, out)
		}
	}
	if errReq := c.request(ctx, http.MethodGet, endpoint, nil, out); errReq != nil {
		return errReq
	}
	if c.cache != nil {
		if payload, errMarshal := json.Marshal(out); errMarshal == nil {
			c.cache.Set(ctx, key, payload, c.cacheTTL)
		}
	}
	return nil
}

// Services lists the receiving services the provider supports.
func (c *Client) Services(ctx context.Context) ([]Service, error) {
	var services []Service
	if err := c.cachedGet(ctx, "services", "/services", &services); err != nil {
		return nil, err
	}
	return services, nil
}

// Countries lists the countries the provider can allocate numbers in.
func (c *Client) Countries(ctx context.Context) ([]Country, error) {
	var countries []Country
	if err := c.cachedGet(ctx, "countries", "/countries", &countries); err != nil {
		return nil, err
	}
	return countries, nil
}

// Price returns the first quote for a (country, service) pair, or nil when the
// provider has no stock for the pair.
func (c *Client) Price(ctx context.Context, countryID, serviceID int64) (*Price, error) {
	key := fmt.Sprintf("price_%d_%d", countryID, serviceID)
	endpoint := fmt.Sprintf("/prices?countryId=%d&serviceId=%d", countryID, serviceID)

	var prices []Price
	if err := c.cachedGet(ctx, key, endpoint, &prices); err != nil {
		return nil, err
	}
	if len(prices) == 0 {
		return nil, nil
	}
	return &prices[0], nil
}

// CreateActivation provisions a number for the given customer.
func (c *Client) CreateActivation(ctx context.Context, req ActivationRequest) (*ActivationCreated, error) {
	var created ActivationCreated
	if err := c.request(ctx, http.MethodPost, "/activations", req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ActivationStatus queries the remote status of an activation.
func (c *Client) ActivationStatus(ctx context.Context, activationID int64) (*ActivationStatus, error) {
	var status ActivationStatus
	endpoint := fmt.Sprintf("/activations/%d", activationID)
	if err := c.request(ctx, http.MethodGet, endpoint, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// CancelActivation asks the provider to cancel an activation. The returned
// boolean is the provider's success flag; false means the cancellation was
// refused without an HTTP error.
func (c *Client) CancelActivation(ctx context.Context, activationID int64) (bool, error) {
	var result struct {
		Success bool `json:"success"`
	}
	endpoint := fmt.Sprintf("/activations/%d/cancel", activationID)
	if err := c.request(ctx, http.MethodPost, endpoint, nil, &result); err != nil {
		return false, err
	}
	return result.Success, nil
}

// CustomerByEmail resolves a customer record by email.
func (c *Client) CustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	var customer Customer
	endpoint := "/customers/by-email?email=" + url.QueryEscape(email)
	if err := c.request(ctx, http.MethodGet, endpoint, nil, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// CustomerByPIN resolves a customer record by access PIN.
func (c *Client) CustomerByPIN(ctx context.Context, pin int64) (*Customer, error) {
	var customer Customer
	endpoint := fmt.Sprintf("/customers/by-pin?pin=%d", pin)
	if err := c.request(ctx, http.MethodGet, endpoint, nil, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// CustomerByID resolves a customer record by identifier.
func (c *Client) CustomerByID(ctx context.Context, id int64) (*Customer, error) {
	var customer Customer
	endpoint := fmt.Sprintf("/customers/%d", id)
	if err := c.request(ctx, http.MethodGet, endpoint, nil, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// CreateCustomer registers a new customer record.
func (c *Client) CreateCustomer(ctx context.Context, email, name string) (*Customer, error) {
	body := map[string]string{"email": email}
	if strings.TrimSpace(name) != "" {
		body["name"] = name
	}
	var customer Customer
	if err := c.request(ctx, http.MethodPost, "/customers", body, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// FlushCache drops every cached read wholesale.
func (c *Client) FlushCache(ctx context.Context) {
	if c.cache != nil {
		c.cache.Flush(ctx)
	}
}
