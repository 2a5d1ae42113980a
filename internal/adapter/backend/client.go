// Package backend is the HTTP client for the server of record.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redcloud442/aurora/internal/domain"
	"go.uber.org/zap"
)

// StatusError is returned when the server fails a call with a 5xx status.
// A 4xx status is a rejection, not an error.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend: status %d: %s", e.StatusCode, e.Body)
}

// Client implements domain.Backend over the REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Client for the API at baseURL authenticated with a bearer token.
func NewClient(baseURL, token string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With(zap.String("component", "backend")),
	}
}

type claimRequest struct {
	MemberID            string `json:"memberId"`
	PackageConnectionID string `json:"packageConnectionId"`
}

type withdrawalRequest struct {
	MemberID      string `json:"memberId"`
	Earnings      string `json:"earnings"`
	Bank          string `json:"bank"`
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
	Amount        string `json:"amount"`
}

type depositRequest struct {
	MemberID      string `json:"memberId"`
	Amount        string `json:"amount"`
	TopUpMode     string `json:"topUpMode"`
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
	PublicURL     string `json:"publicUrl"`
}

// envelope is the common response body. A missing ok field counts as accepted.
type envelope struct {
	OK    *bool  `json:"ok"`
	Error string `json:"error"`
}

// ConfirmClaim asks the server to release a matured package.
func (c *Client) ConfirmClaim(ctx context.Context, memberID, positionID uuid.UUID) (bool, error) {
	return c.post(ctx, "/api/v1/package/claim", claimRequest{
		MemberID:            memberID.String(),
		PackageConnectionID: positionID.String(),
	})
}

// SubmitWithdrawal files a withdrawal request.
func (c *Client) SubmitWithdrawal(ctx context.Context, req *domain.WithdrawalRequest) (bool, error) {
	return c.post(ctx, "/api/v1/withdraw", withdrawalRequest{
		MemberID:      req.MemberID.String(),
		Earnings:      string(req.Source),
		Bank:          req.Bank,
		AccountName:   req.AccountName,
		AccountNumber: req.AccountNumber,
		Amount:        req.Amount.StringFixed(2),
	})
}

// SubmitDeposit files a deposit request with its uploaded receipt.
func (c *Client) SubmitDeposit(ctx context.Context, req *domain.DepositRequest) (bool, error) {
	return c.post(ctx, "/api/v1/deposit", depositRequest{
		MemberID:      req.MemberID.String(),
		Amount:        req.Amount.StringFixed(2),
		TopUpMode:     req.TopUpMode,
		AccountName:   req.AccountName,
		AccountNumber: req.AccountNumber,
		PublicURL:     req.ReceiptURL,
	})
}

func (c *Client) post(ctx context.Context, path string, payload any) (bool, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("backend: marshal %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("backend: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("backend: post %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return false, fmt.Errorf("backend: read %s response: %w", path, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return false, &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Info("request rejected",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
		return false, nil
	}

	if len(bytes.TrimSpace(respBody)) == 0 {
		return true, nil
	}
	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		// the server answered 2xx with a non-JSON body
		return true, nil
	}
	if env.OK != nil && !*env.OK {
		c.logger.Info("request rejected", zap.String("path", path), zap.String("error", env.Error))
		return false, nil
	}
	return true, nil
}

var _ domain.Backend = (*Client)(nil)
