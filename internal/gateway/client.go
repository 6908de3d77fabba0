// Package gateway is the HTTP client for the remote fee service. Conflict
// responses are surfaced as tagged results rather than errors so callers
// never inspect status codes or response internals.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-fee-sync/internal/dto"
	"github.com/noah-isme/sma-fee-sync/internal/models"
	"github.com/noah-isme/sma-fee-sync/internal/session"
	appErrors "github.com/noah-isme/sma-fee-sync/pkg/errors"
)

// ClientConfig configures the gateway client.
type ClientConfig struct {
	BaseURL string
	Tokens  session.TokenProvider
	Timeout time.Duration
	Logger  *zap.Logger
	Metrics *Metrics
}

// Client talks to the remote fee gateway. All methods attach the bearer token
// from the injected provider and a fresh X-Request-ID.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  session.TokenProvider
	logger  *zap.Logger
	metrics *Metrics
}

// NewClient constructs a gateway client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
		tokens:  cfg.Tokens,
		logger:  logger,
		metrics: cfg.Metrics,
	}
}

// ListFees fetches the fee records for the given filter scope.
func (c *Client) ListFees(ctx context.Context, filter models.FeeFilter) ([]models.FeeRecord, error) {
	query := url.Values{}
	if filter.SchoolID != "" {
		query.Set("school_id", filter.SchoolID)
	}
	if filter.StudentClass != "" {
		query.Set("class", filter.StudentClass)
	}
	if filter.Month != "" {
		query.Set("month", filter.Month)
	}
	query.Set("sort", "student_class")

	status, body, err := c.send(ctx, "list_fees", http.MethodGet, "/fees?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, c.statusError(status, body, "failed to load fees")
	}

	var wire []dto.FeeRecord
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode fee list")
	}
	return dto.FeesToModels(wire)
}

// CreateSingle creates one fee record. A duplicate (student, month) pair
// yields a conflict result carrying the existing record's id.
func (c *Client) CreateSingle(ctx context.Context, req dto.CreateSingleRequest) (CreateSingleResult, error) {
	status, body, err := c.send(ctx, "create_single", http.MethodPost, "/fees/create-single", req)
	if err != nil {
		return CreateSingleResult{}, err
	}

	switch status {
	case http.StatusOK, http.StatusCreated:
		var wire dto.FeeRecord
		if err := json.Unmarshal(body, &wire); err != nil {
			return CreateSingleResult{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode created fee")
		}
		rec, err := wire.ToModel()
		if err != nil {
			return CreateSingleResult{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to map created fee")
		}
		return CreateSingleResult{Kind: ResultOK, Fee: &rec}, nil
	case http.StatusConflict:
		var conflict dto.SingleConflict
		if err := json.Unmarshal(body, &conflict); err != nil || conflict.ExistingFeeID == "" {
			return CreateSingleResult{}, appErrors.Clone(appErrors.ErrConflict, "fee already exists but the gateway did not identify it")
		}
		return CreateSingleResult{Kind: ResultConflict, ExistingFeeID: conflict.ExistingFeeID}, nil
	default:
		return CreateSingleResult{}, c.statusError(status, body, "failed to create fee")
	}
}

// CreateMonthlyBatch bulk-creates fee records for a school and month. An
// unconfirmed overwrite yields a conflict result with the gateway's warning.
func (c *Client) CreateMonthlyBatch(ctx context.Context, req dto.CreateBatchRequest) (BatchResult, error) {
	status, body, err := c.send(ctx, "create_batch", http.MethodPost, "/fees/create", req)
	if err != nil {
		return BatchResult{}, err
	}

	switch status {
	case http.StatusOK, http.StatusCreated:
		var resp dto.CreateBatchResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return BatchResult{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode batch response")
		}
		return BatchResult{Kind: ResultOK, Message: resp.Message}, nil
	case http.StatusConflict:
		var conflict dto.BatchConflict
		if err := json.Unmarshal(body, &conflict); err != nil || conflict.Warning == "" {
			conflict.Warning = "fee records already exist for this school and month"
		}
		return BatchResult{Kind: ResultConflict, Warning: conflict.Warning}, nil
	default:
		return BatchResult{}, c.statusError(status, body, "failed to generate monthly fees")
	}
}

// UpdateFees applies partial updates and returns the echoed records.
func (c *Client) UpdateFees(ctx context.Context, updates []dto.FeeUpdate) ([]models.FeeRecord, error) {
	status, body, err := c.send(ctx, "update_fees", http.MethodPost, "/fees/update", dto.UpdateRequest{Fees: updates})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, c.statusError(status, body, "failed to update fees")
	}

	var resp dto.UpdateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode updated fees")
	}
	return dto.FeesToModels(resp.Fees)
}

// DeleteFees removes the given records.
func (c *Client) DeleteFees(ctx context.Context, feeIDs []string) error {
	status, body, err := c.send(ctx, "delete_fees", http.MethodPost, "/fees/delete", dto.DeleteRequest{FeeIDs: feeIDs})
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		return c.statusError(status, body, "failed to delete fees")
	}
	return nil
}

// ListStudents fetches the student summaries of a school for the fee picker.
func (c *Client) ListStudents(ctx context.Context, schoolID string) ([]models.StudentSummary, error) {
	query := url.Values{}
	if schoolID != "" {
		query.Set("school_id", schoolID)
	}

	status, body, err := c.send(ctx, "list_students", http.MethodGet, "/students?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, c.statusError(status, body, "failed to load students")
	}

	var wire []dto.Student
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode student list")
	}
	return dto.StudentsToModels(wire), nil
}

func (c *Client) send(ctx context.Context, operation, method, path string, payload interface{}) (int, []byte, error) {
	start := time.Now()
	status, body, err := c.do(ctx, method, path, payload)
	c.metrics.observe(operation, status, err, time.Since(start))
	if err != nil {
		c.logger.Warn("gateway call failed",
			zap.String("operation", operation),
			zap.Error(err),
		)
	}
	return status, body, err
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) (int, []byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return 0, nil, err
	}

	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode request")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, appErrors.Wrap(err, appErrors.ErrGatewayUnavailable.Code, appErrors.ErrGatewayUnavailable.Status, appErrors.ErrGatewayUnavailable.Message)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, appErrors.Wrap(err, appErrors.ErrGatewayUnavailable.Code, appErrors.ErrGatewayUnavailable.Status, appErrors.ErrGatewayUnavailable.Message)
	}
	return resp.StatusCode, body, nil
}

func (c *Client) statusError(status int, body []byte, message string) error {
	switch status {
	case http.StatusUnauthorized:
		return appErrors.Clone(appErrors.ErrUnauthorized, "session rejected by the fee service")
	case http.StatusNotFound:
		return appErrors.Clone(appErrors.ErrNotFound, message)
	case http.StatusBadRequest:
		return appErrors.Clone(appErrors.ErrValidation, extractMessage(body, message))
	default:
		return appErrors.Wrap(fmt.Errorf("gateway status %d", status), appErrors.ErrGatewayUnavailable.Code, appErrors.ErrGatewayUnavailable.Status, message+", please retry")
	}
}

func extractMessage(body []byte, fallback string) string {
	var payload struct {
		Message string `json:"message"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error.Message != "" {
			return payload.Error.Message
		}
	}
	return fallback
}
