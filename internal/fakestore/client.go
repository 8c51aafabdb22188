// Package fakestore is the HTTP client for the fakestoreapi.com demo API,
// which serves as both the credential authority and the product catalog for
// the storefront.
package fakestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"

	"storefront/internal/domain"
)

// DefaultBaseURL points at the public demo API.
const DefaultBaseURL = "https://fakestoreapi.com"

var (
	// ErrInvalidCredentials is returned when the remote API rejects a login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("store api unavailable")
)

// Client calls the demo API. All requests run through a circuit breaker so a
// flapping remote does not pile up timed-out requests.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *log.Logger
}

// NewClient builds a Client for baseURL (DefaultBaseURL when empty).
func NewClient(baseURL string, logger *log.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "fakestore",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// Client-side rejections (bad credentials, unknown product)
			// say nothing about the remote's health.
			var se *statusError
			return errors.As(err, &se) && se.code < http.StatusInternalServerError
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Printf("breaker %s: %s -> %s", name, from, to)
		},
	})
	return c
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("store api status %d: %s", e.code, e.body)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a token. A 4xx response maps to
// ErrInvalidCredentials; the token is otherwise opaque to the storefront.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return "", err
	}
	data, err := c.do(ctx, http.MethodPost, "/auth/login", body)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code >= 400 && se.code < 500 {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	var resp loginResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if resp.Token == "" {
		return "", ErrInvalidCredentials
	}
	return resp.Token, nil
}

// Products fetches the full catalog.
func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	data, err := c.do(ctx, http.MethodGet, "/products", nil)
	if err != nil {
		return nil, err
	}
	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

// Product fetches a single product by ID. Unknown IDs map to
// domain.ErrNotFound (the demo API answers those with an empty body).
func (c *Client) Product(ctx context.Context, id int) (*domain.Product, error) {
	data, err := c.do(ctx, http.MethodGet, "/products/"+strconv.Itoa(id), nil)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, domain.ErrNotFound
	}
	var product domain.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, fmt.Errorf("decode product: %w", err)
	}
	return &product, nil
}

// Categories fetches the category labels.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	data, err := c.do(ctx, http.MethodGet, "/products/categories", nil)
	if err != nil {
		return nil, err
	}
	var categories []string
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return categories, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	data, err := c.breaker.Execute(func() ([]byte, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &statusError{code: resp.StatusCode, body: truncate(data, 200)}
		}
		return data, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrUnavailable
	}
	return data, err
}

func truncate(data []byte, n int) string {
	if len(data) > n {
		data = data[:n]
	}
	return string(data)
}
