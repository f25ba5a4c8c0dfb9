package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/jdwl-go/jdwl/pkg/clock"
	"github.com/jdwl-go/jdwl/pkg/config"
	"github.com/jdwl-go/jdwl/pkg/transportSigner"
	"github.com/jdwl-go/jdwl/pkg/transportSigner/inMemoryTransportSigner"
)

const (
	maxResponseBytes = 16 << 20
	maxErrorBodyLen  = 512
)

// HTTPDoer is the transport used to reach the gateway. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds the configuration for the gateway client
type ClientConfig struct {
	AppKey      string
	AccessToken string
	Signer      transportSigner.IEnvelopeSigner
	Logger      *zap.Logger

	// Optional; default to the wall clock, time.Local and an *http.Client with config.DefaultTimeout
	Clock      clock.Clock
	Location   *time.Location
	HTTPClient HTTPDoer

	// Permissive swallows transport and decode failures: they are logged and the call returns an empty result
	Permissive bool
}

// Client signs envelopes for named procedures, sends them to the gateway and unwraps the results.
// It is safe for concurrent use; all state is read-only after construction.
type Client struct {
	endpoint    string
	version     string
	appKey      string
	accessToken string
	signer      transportSigner.IEnvelopeSigner
	clock       clock.Clock
	location    *time.Location
	httpClient  HTTPDoer
	permissive  bool
	logger      *zap.Logger
}

// NewClient creates a new gateway client instance with dependency injection
func NewClient(cfg *ClientConfig) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.AppKey == "" {
		return nil, fmt.Errorf("app key is required")
	}
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("access token is required")
	}
	if cfg.Signer == nil {
		return nil, fmt.Errorf("signer is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	c := &Client{
		endpoint:    config.DefaultEndpoint,
		version:     config.ProtocolVersion,
		appKey:      cfg.AppKey,
		accessToken: cfg.AccessToken,
		signer:      cfg.Signer,
		clock:       cfg.Clock,
		location:    cfg.Location,
		httpClient:  cfg.HTTPClient,
		permissive:  cfg.Permissive,
		logger:      cfg.Logger,
	}
	if c.clock == nil {
		c.clock = clock.NewWallClock()
	}
	if c.location == nil {
		c.location = time.Local
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: config.DefaultTimeout}
	}
	return c, nil
}

// NewClientFromGatewayConfig builds a client, its in-memory signer and HTTP transport from the three
// credentials and the optional settings of a GatewayConfig.
func NewClientFromGatewayConfig(gc *config.GatewayConfig, logger *zap.Logger) (*Client, error) {
	if gc == nil {
		return nil, fmt.Errorf("gateway config cannot be nil")
	}
	if err := gc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid gateway config: %w", err)
	}
	loc, err := gc.Location()
	if err != nil {
		return nil, err
	}
	signer, err := inMemoryTransportSigner.NewMD5InMemoryTransportSigner(gc.AppSecret, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create envelope signer: %w", err)
	}
	return NewClient(&ClientConfig{
		AppKey:      gc.AppKey,
		AccessToken: gc.AccessToken,
		Signer:      signer,
		Logger:      logger,
		Location:    loc,
		HTTPClient:  &http.Client{Timeout: gc.HTTPTimeout()},
		Permissive:  gc.Permissive,
	})
}

// BuildEnvelope serializes the payload, stamps and signs the envelope for method.
func (c *Client) BuildEnvelope(method string, payload any) (*Envelope, error) {
	if err := ValidateMethod(method); err != nil {
		return nil, err
	}
	payloadJSON, err := MarshalPayload(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build envelope for %s", method)
	}

	env := &Envelope{
		Payload:     payloadJSON,
		Version:     c.version,
		Method:      method,
		Timestamp:   c.clock.Now().In(c.location).Format(config.TimestampLayout),
		AccessToken: c.accessToken,
		AppKey:      c.appKey,
	}
	sig, err := c.signer.SignFields(env.UnsignedFields())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to sign envelope for %s", method)
	}
	env.Sign = sig
	return env, nil
}

// Do sends a signed call for method and returns the whole parsed response object.
func (c *Client) Do(ctx context.Context, method string, payload any) (map[string]json.RawMessage, error) {
	requestID := uuid.New().String()
	resp, err := c.do(ctx, requestID, method, payload)
	if err != nil {
		return nil, c.contain(err, requestID, method)
	}
	return resp, nil
}

// Call sends a signed call for method and returns only the value under ResponseKey(method).
//
// Strict clients return an error for every failure. Permissive clients return (nil, nil) for transport,
// status, decode and unwrap failures after logging them.
func (c *Client) Call(ctx context.Context, method string, payload any) (json.RawMessage, error) {
	requestID := uuid.New().String()
	resp, err := c.do(ctx, requestID, method, payload)
	if err != nil {
		return nil, c.contain(err, requestID, method)
	}
	result, err := unwrap(resp, method)
	if err != nil {
		return nil, c.contain(err, requestID, method)
	}
	return result, nil
}

// CallInto calls method and decodes the unwrapped result into out.
// A permissive client leaves out untouched when the call produced no result.
func (c *Client) CallInto(ctx context.Context, method string, payload any, out any) error {
	result, err := c.Call(ctx, method, payload)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(result, out); err != nil {
		return errors.Wrapf(err, "failed to decode %s result", method)
	}
	return nil
}

func (c *Client) do(ctx context.Context, requestID, method string, payload any) (map[string]json.RawMessage, error) {
	env, err := c.BuildEnvelope(method, payload)
	if err != nil {
		return nil, err
	}

	c.logger.Sugar().Debugw("Calling gateway procedure",
		"request_id", requestID,
		"method", method,
		"timestamp", env.Timestamp,
	)

	start := time.Now()
	body, err := c.send(ctx, env)
	if err != nil {
		return nil, err
	}

	c.logger.Sugar().Debugw("Gateway responded",
		"request_id", requestID,
		"method", method,
		"bytes", len(body),
		"duration", time.Since(start),
	)

	var resp map[string]json.RawMessage
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrapf(ErrMalformedResponse, "failed to decode response for %s: %v", method, err)
	}
	if resp == nil {
		return nil, errors.Wrapf(ErrMalformedResponse, "response for %s is null", method)
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, env *Envelope) ([]byte, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "invalid endpoint")
	}
	u.RawQuery = env.Values().Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create request for %s", env.Method)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(&TransportError{Err: err}, "failed to call %s", env.Method)
	}
	defer func() { _ = res.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes+1))
	if err != nil {
		return nil, errors.Wrapf(&TransportError{Err: err}, "failed to read response for %s", env.Method)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		snippet := string(bytes.TrimSpace(body))
		if len(snippet) > maxErrorBodyLen {
			snippet = snippet[:maxErrorBodyLen]
		}
		return nil, errors.Wrapf(&StatusError{StatusCode: res.StatusCode, Body: snippet}, "failed to call %s", env.Method)
	}
	if len(body) > maxResponseBytes {
		return nil, errors.Wrapf(ErrMalformedResponse, "response for %s exceeds %d bytes", env.Method, maxResponseBytes)
	}
	return body, nil
}

func unwrap(resp map[string]json.RawMessage, method string) (json.RawMessage, error) {
	key := ResponseKey(method)
	if result, ok := resp[key]; ok {
		return result, nil
	}
	if raw, ok := resp[remoteErrorKey]; ok {
		if remoteErr := parseRemoteError(raw); remoteErr != nil {
			return nil, errors.Wrapf(remoteErr, "%s rejected by gateway", method)
		}
	}
	return nil, errors.Wrapf(ErrResponseKeyMissing, "response for %s has no %q key", method, key)
}

// parseRemoteError tolerates a numeric or string code.
func parseRemoteError(raw json.RawMessage) *RemoteError {
	var wire struct {
		Code   json.RawMessage `json:"code"`
		ZhDesc string          `json:"zh_desc"`
		EnDesc string          `json:"en_desc"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil
	}
	return &RemoteError{
		Code:   strings.Trim(string(wire.Code), `"`),
		ZhDesc: wire.ZhDesc,
		EnDesc: wire.EnDesc,
	}
}

// contain applies the permissive policy: containable failures are logged and dropped.
func (c *Client) contain(err error, requestID, method string) error {
	if !c.permissive || !isContainable(err) {
		c.logger.Sugar().Debugw("Gateway call failed",
			"request_id", requestID,
			"method", method,
			"error", err,
		)
		return err
	}
	c.logger.Sugar().Errorw("Gateway call failed, returning empty result",
		"request_id", requestID,
		"method", method,
		"error", err,
	)
	return nil
}
