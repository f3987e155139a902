package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/jhk/storefront/internal/domain/checkout"
	"github.com/jhk/storefront/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	webpayTransactionsPath = "/rswebpaytransaction/api/webpay/v1.2/transactions"
	webpayCommitPath       = webpayTransactionsPath + "/%s"
)

// WebpayAdapter implements checkout.PaymentGateway for Transbank Webpay Plus
type WebpayAdapter struct {
	config     *WebpayConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// WebpayOption is a functional option for configuring WebpayAdapter
type WebpayOption func(*WebpayAdapter)

// WithHTTPClient sets the HTTP client used for API calls
func WithHTTPClient(client *http.Client) WebpayOption {
	return func(a *WebpayAdapter) {
		a.httpClient = client
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) WebpayOption {
	return func(a *WebpayAdapter) {
		a.logger = logger
	}
}

// NewWebpayAdapter creates a new Webpay Plus adapter
func NewWebpayAdapter(config *WebpayConfig, opts ...WebpayOption) (*WebpayAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	a := &WebpayAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.timeout(),
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Name returns the gateway name
func (a *WebpayAdapter) Name() string {
	return "webpay"
}

// Create starts a transaction and returns where to send the shopper
func (a *WebpayAdapter) Create(ctx context.Context, req checkout.PaymentRequest) (*checkout.PaymentRedirect, error) {
	body, err := json.Marshal(webpayCreateRequest{
		BuyOrder:  req.BuyOrder,
		SessionID: req.SessionID,
		Amount:    req.Amount.MinorUnits(),
		ReturnURL: req.ReturnURL,
	})
	if err != nil {
		return nil, fmt.Errorf("webpay: failed to marshal request: %w", err)
	}

	respBody, err := a.doRequest(ctx, http.MethodPost, webpayTransactionsPath, body)
	if err != nil {
		return nil, err
	}

	var resp webpayCreateResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: webpay: invalid create response: %v", shared.ErrGatewayFailure, err)
	}
	if resp.Token == "" || resp.URL == "" {
		return nil, fmt.Errorf("%w: webpay: create response without token or url", shared.ErrGatewayFailure)
	}

	a.logger.Info("Webpay transaction created",
		zap.String("buy_order", req.BuyOrder),
		zap.Int64("amount", req.Amount.MinorUnits()),
	)
	return &checkout.PaymentRedirect{Token: resp.Token, URL: resp.URL}, nil
}

// Commit confirms the transaction identified by token
func (a *WebpayAdapter) Commit(ctx context.Context, token string) (*checkout.PaymentResult, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: webpay: empty token", shared.ErrInvalidInput)
	}

	respBody, err := a.doRequest(ctx, http.MethodPut, fmt.Sprintf(webpayCommitPath, url.PathEscape(token)), nil)
	if err != nil {
		return nil, err
	}

	var resp webpayCommitResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: webpay: invalid commit response: %v", shared.ErrGatewayFailure, err)
	}

	result := &checkout.PaymentResult{
		Status:            resp.Status,
		ResponseCode:      resp.ResponseCode,
		AuthorizationCode: resp.AuthorizationCode,
		PaymentTypeCode:   resp.PaymentTypeCode,
		BuyOrder:          resp.BuyOrder,
		Amount:            resp.Amount,
		Raw:               respBody,
	}
	a.logger.Info("Webpay transaction committed",
		zap.String("buy_order", resp.BuyOrder),
		zap.String("status", resp.Status),
		zap.Int("response_code", resp.ResponseCode),
	)
	return result, nil
}

// doRequest performs an HTTP request to the Webpay API
func (a *WebpayAdapter) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.baseURL()+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("webpay: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Tbk-Api-Key-Id", a.config.CommerceCode)
	req.Header.Set("Tbk-Api-Key-Secret", a.config.APIKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrGatewayFailure, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: webpay: failed to read response: %v", shared.ErrGatewayFailure, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp webpayErrorResponse
		_ = json.Unmarshal(respBody, &errResp)
		if errResp.ErrorMessage == "" {
			errResp.ErrorMessage = http.StatusText(resp.StatusCode)
		}
		a.logger.Warn("Webpay request failed",
			zap.String("method", method),
			zap.Int("status", resp.StatusCode),
			zap.String("error_message", errResp.ErrorMessage),
		)
		return nil, fmt.Errorf("%w: webpay: %d %s", shared.ErrGatewayFailure, resp.StatusCode, errResp.ErrorMessage)
	}

	return respBody, nil
}

var _ checkout.PaymentGateway = (*WebpayAdapter)(nil)
