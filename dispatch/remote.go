package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hupe1980/agentrouter/core"
	"github.com/hupe1980/agentrouter/logging"
	"github.com/sony/gobreaker/v2"
)

// DefaultRemoteTimeout bounds one call to a remote peer.
const DefaultRemoteTimeout = 10 * time.Second

// maxRemoteBody caps how much of a peer response is read.
const maxRemoteBody = 4 << 20

// BreakerConfig enables a per-URL circuit breaker in front of remote peers.
// A tripped breaker fails calls fast with a GatewayError; calls are never retried.
type BreakerConfig struct {
	Enabled bool
	// MaxFailures is the number of consecutive failures that opens the circuit.
	MaxFailures uint32
	// Timeout is how long the circuit stays open before a probe is allowed.
	Timeout time.Duration
	// Interval clears failure counts while closed; zero never clears.
	Interval time.Duration
}

type remotePayload struct {
	FromID  string `json:"fromId"`
	Message string `json:"message"`
}

// RemoteClient posts messages to remote agents and decodes their JSON replies.
type RemoteClient struct {
	client  *http.Client
	timeout time.Duration
	breaker BreakerConfig
	logger  logging.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

// NewRemoteClient creates a client. A nil httpClient uses http.DefaultClient;
// a non-positive timeout uses DefaultRemoteTimeout.
func NewRemoteClient(httpClient *http.Client, timeout time.Duration, breaker BreakerConfig, logger logging.Logger) *RemoteClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}
	if breaker.MaxFailures == 0 {
		breaker.MaxFailures = 5
	}
	if breaker.Timeout == 0 {
		breaker.Timeout = 30 * time.Second
	}

	return &RemoteClient{
		client:   httpClient,
		timeout:  timeout,
		breaker:  breaker,
		logger:   logging.OrNoOp(logger),
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

// Send posts {fromId, message} to url and returns the decoded JSON body.
// Every failure is a *core.GatewayError.
func (c *RemoteClient) Send(ctx context.Context, url, fromID, message string) (any, error) {
	if !c.breaker.Enabled {
		return c.send(ctx, url, fromID, message)
	}

	reply, err := c.circuit(url).Execute(func() (any, error) {
		return c.send(ctx, url, fromID, message)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &core.GatewayError{URL: url, Err: fmt.Errorf("circuit open: %w", err)}
	}
	return reply, err
}

func (c *RemoteClient) circuit(url string) *gobreaker.CircuitBreaker[any] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cb, ok := c.breakers[url]; ok {
		return cb
	}

	maxFailures := c.breaker.MaxFailures
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "remote:" + url,
		MaxRequests: 1,
		Interval:    c.breaker.Interval,
		Timeout:     c.breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("dispatch.remote.breaker", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	c.breakers[url] = cb

	return cb
}

func (c *RemoteClient) send(ctx context.Context, url, fromID, message string) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(remotePayload{FromID: fromID, Message: message})
	if err != nil {
		return nil, &core.GatewayError{URL: url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &core.GatewayError{URL: url, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &core.GatewayError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteBody))
	if err != nil {
		return nil, &core.GatewayError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &core.GatewayError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	var reply any
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, &core.GatewayError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode body: %w", err)}
	}

	return reply, nil
}
