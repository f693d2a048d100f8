package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/config"
	pkgerrors "github.com/pixobe/shopify-product-designer-dev-sub000/pkg/errors"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/logger"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/metrics"
)

const accessTokenHeader = "X-Shopify-Access-Token"

var (
	errLoggerRequired     = errors.New("shopify logger is required")
	errAPIVersionRequired = errors.New("shopify api version is required")
)

// Client executes admin GraphQL operations with centralized auth headers,
// logging, error mapping, and metrics.
type Client struct {
	httpClient *http.Client
	apiVersion string
	scheme     string
	logger     *logger.Logger
	metrics    *metrics.AdminAPIMetrics
}

// NewClient initializes the admin API wrapper.
func NewClient(cfg config.ShopifyConfig, logg *logger.Logger, m *metrics.AdminAPIMetrics) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	version := strings.TrimSpace(cfg.APIVersion)
	if version == "" {
		return nil, errAPIVersionRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiVersion: version,
		scheme:     "https",
		logger:     logg,
		metrics:    m,
	}, nil
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors,omitempty"`
}

// Execute posts one GraphQL operation for the session's shop and unmarshals
// the response data into out when out is non-nil. Top-level GraphQL errors
// are folded into a single typed error; userErrors inside mutation payloads
// are the caller's to inspect.
func (c *Client) Execute(ctx context.Context, session Session, operation, query string, variables map[string]any, out any) error {
	if !session.Valid() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "shop session missing or incomplete")
	}

	started := time.Now()
	err := c.execute(ctx, session, operation, query, variables, out)
	c.metrics.ObserveDuration(operation, time.Since(started))
	if err != nil {
		code := string(pkgerrors.CodeInternal)
		if typed := pkgerrors.As(err); typed != nil {
			code = string(typed.Code())
		}
		c.metrics.IncError(operation, code)
		c.log(ctx, "error", operation, session.Shop, map[string]any{"error": err.Error()})
		return err
	}
	c.log(ctx, "response", operation, session.Shop, nil)
	return nil
}

func (c *Client) execute(ctx context.Context, session Session, operation, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode graphql request")
	}

	c.log(ctx, "request", operation, session.Shop, nil)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(session.Shop), bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build graphql request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(accessTokenHeader, session.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("shopify %s failed", operation))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read graphql response")
	}

	if resp.StatusCode != http.StatusOK {
		return pkgerrors.New(codeForStatus(resp.StatusCode), fmt.Sprintf("shopify %s returned status %d", operation, resp.StatusCode))
	}

	var envelope graphqlEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode graphql envelope")
	}

	if len(envelope.Errors) > 0 {
		return mapGraphQLErrors(operation, envelope.Errors)
	}

	if out != nil {
		if len(envelope.Data) == 0 {
			return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("shopify %s returned no data", operation))
		}
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode graphql data")
		}
	}
	return nil
}

func (c *Client) endpoint(shop string) string {
	return fmt.Sprintf("%s://%s/admin/api/%s/graphql.json", c.scheme, shop, c.apiVersion)
}

func mapGraphQLErrors(operation string, gqlErrors []GraphQLError) error {
	code := pkgerrors.CodeDependency
	var combined error
	for _, ge := range gqlErrors {
		switch ge.extensionCode() {
		case "THROTTLED":
			code = pkgerrors.CodeRateLimit
		case "ACCESS_DENIED":
			code = pkgerrors.CodeForbidden
		}
		combined = multierr.Append(combined, fmt.Errorf("%s", ge.Message))
	}
	return pkgerrors.Wrap(code, combined, fmt.Sprintf("shopify %s failed", operation))
}

func codeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}

// IsThrottled reports whether err came back as an admin API rate limit.
func IsThrottled(err error) bool {
	typed := pkgerrors.As(err)
	return typed != nil && typed.Code() == pkgerrors.CodeRateLimit
}

func (c *Client) log(ctx context.Context, phase, operation, shop string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": operation,
		"phase":     phase,
		"shop":      shop,
	}
	for k, v := range fields {
		logFields[k] = redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("shopify %s", operation), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Debug(ctx, fmt.Sprintf("shopify %s", phase))
	}
}

func redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"token", "secret", "password", "hmac"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}
