package account

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/lekhsewa/payment-service/internal/adapters/ports"
	"github.com/lekhsewa/payment-service/pkg/observability"
	"go.uber.org/zap"
)

// Client calls the Lekhsewa account service that owns plan entitlements.
// It implements the AccountClient port.
type Client struct {
	baseURL    string
	httpClient ports.HTTPClient
	logger     *zap.Logger
}

// NewClient creates a new account service client
func NewClient(baseURL string, httpClient ports.HTTPClient, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// UpgradePlan moves the user to the pro plan. The account API applies the
// upgrade idempotently, so duplicate redirects and retries do not double-apply.
func (c *Client) UpgradePlan(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("account: user id is required")
	}

	endpoint := fmt.Sprintf("%s/changeplantopro?sub=%s", c.baseURL, url.QueryEscape(userID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build upgrade request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.RecordPlanUpgrade(false)
		return fmt.Errorf("account upgrade request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		observability.RecordPlanUpgrade(false)
		return fmt.Errorf("account upgrade returned HTTP %d: %s", resp.StatusCode, string(body))
	}

	observability.RecordPlanUpgrade(true)
	c.logger.Info("plan upgraded",
		zap.String("user_id", userID),
	)
	return nil
}
