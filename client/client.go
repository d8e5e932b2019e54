// Package client is the Go SDK for the DocuFind API. It wraps the
// REST surface with typed calls and carries the client-side protocol
// pieces the frontends share: the timed reveal window, the payment
// poller and the masked-listing presenter.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	defaultTimeout  = 30 * time.Second
	minTimeout      = 10 * time.Second
	defaultCacheTTL = 30 * time.Second
)

// Options configures a Client. Zero values get sensible defaults.
type Options struct {
	BaseURL  string
	Timeout  time.Duration // clamped to [10s, 30s]
	CacheTTL time.Duration
	Logger   *zap.Logger
}

// Client talks to one DocuFind deployment. Each instance owns its
// response cache; construct one per base URL.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *responseCache
	logger  *zap.Logger
	now     func() time.Time

	claimInFlight atomic.Bool
}

func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	if timeout < minTimeout {
		timeout = minTimeout
	}
	if timeout > defaultTimeout {
		timeout = defaultTimeout
	}

	ttl := opts.CacheTTL
	if ttl == 0 {
		ttl = defaultCacheTTL
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL: trimSlash(opts.BaseURL),
		http:    &http.Client{Timeout: timeout},
		cache:   newResponseCache(ttl),
		logger:  logger,
		now:     time.Now,
	}
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

// APIError is a non-2xx response with its decoded message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func (c *Client) decodeError(status int, body []byte) *APIError {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)
	msg := eb.Error
	if msg == "" {
		msg = eb.Detail
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{Status: status, Message: msg}
}

// get fetches without caching; status polls and token lookups must
// always hit the network.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	body, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

// getCached serves listing-style GETs through the TTL cache.
func (c *Client) getCached(ctx context.Context, path string, query url.Values, out interface{}) error {
	key := http.MethodGet + " " + path + "?" + query.Encode()
	if body, ok := c.cache.get(key, c.now()); ok {
		return json.Unmarshal(body, out)
	}

	body, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	c.cache.set(key, body, c.now())
	return json.Unmarshal(body, out)
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	body, err := c.do(ctx, http.MethodPost, path, nil, data)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("Request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := c.decodeError(resp.StatusCode, body)
		c.logger.Warn("API error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", apiErr.Status))
		return nil, apiErr
	}
	return body, nil
}

// DocumentTypes lists the document taxonomy.
func (c *Client) DocumentTypes(ctx context.Context) ([]DocumentTypeInfo, error) {
	var out []DocumentTypeInfo
	err := c.getCached(ctx, "/api/document-types/", nil, &out)
	return out, err
}

func searchValues(q SearchQuery) url.Values {
	v := url.Values{}
	if q.DocumentTypeID > 0 {
		v.Set("document_type", strconv.FormatInt(q.DocumentTypeID, 10))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	return v
}

// SearchLost lists masked lost reports, premium listings first.
func (c *Client) SearchLost(ctx context.Context, q SearchQuery) ([]DocumentReport, error) {
	var out []DocumentReport
	err := c.getCached(ctx, "/api/lost/search/", searchValues(q), &out)
	return out, err
}

// SearchFound lists masked found reports, newest first.
func (c *Client) SearchFound(ctx context.Context, q SearchQuery) ([]DocumentReport, error) {
	var out []DocumentReport
	err := c.getCached(ctx, "/api/found/search/", searchValues(q), &out)
	return out, err
}

// Report fetches one masked report. reportType is "lost" or "found".
func (c *Client) Report(ctx context.Context, reportType string, id int64) (*DocumentReport, error) {
	var out DocumentReport
	err := c.getCached(ctx, fmt.Sprintf("/api/%s/%d/", reportType, id), nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Verify submits an ownership check. A false Verified carries no
// detail about why; the server keeps failures deliberately generic.
func (c *Client) Verify(ctx context.Context, reportType string, id int64, input string) (*VerifyResult, error) {
	var out VerifyResult
	err := c.post(ctx, fmt.Sprintf("/api/verify/%s/%d/", reportType, id),
		map[string]string{"verification_input": input}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ErrClaimInFlight is returned by StartClaim when a previous claim
// submission on this client has not completed yet.
var ErrClaimInFlight = errors.New("claim submission already in flight")

// StartClaim requests the claim-verification email. Only one
// submission may be in flight per client; overlapping calls get
// ErrClaimInFlight so a double-tapped form cannot mint two tokens.
func (c *Client) StartClaim(ctx context.Context, in StartClaimInput) error {
	if !c.claimInFlight.CompareAndSwap(false, true) {
		return ErrClaimInFlight
	}
	defer c.claimInFlight.Store(false)
	return c.post(ctx, "/api/claims/start/", in, nil)
}

// VerifyClaim redeems an emailed claim token for the full record.
// The contact block stays locked until payment.
func (c *Client) VerifyClaim(ctx context.Context, token string) (*DocumentReport, error) {
	var out DocumentReport
	err := c.get(ctx, "/api/claims/verify/", url.Values{"token": {token}}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ProtectedImageURL builds the token-guarded original-image URL.
func (c *Client) ProtectedImageURL(reportType string, id int64, token string) string {
	v := url.Values{}
	v.Set("report_type", reportType)
	v.Set("report_id", strconv.FormatInt(id, 10))
	v.Set("token", token)
	return c.baseURL + "/api/protected-image/?" + v.Encode()
}

type paymentRequestResponse struct {
	Success   bool   `json:"success"`
	PaymentID string `json:"payment_id"`
	Error     string `json:"error"`
}

// RequestContactPayment starts the 2000 RWF contact unlock charge and
// returns the payment id to poll.
func (c *Client) RequestContactPayment(ctx context.Context, reportType string, id int64, phone, email string) (string, error) {
	var out paymentRequestResponse
	err := c.post(ctx, "/api/payment/request/", map[string]interface{}{
		"report_type":  reportType,
		"report_id":    id,
		"phone_number": phone,
		"user_email":   email,
	}, &out)
	if err != nil {
		return "", err
	}
	if !out.Success {
		return "", &APIError{Status: http.StatusBadGateway, Message: out.Error}
	}
	return out.PaymentID, nil
}

// PaymentStatus polls a contact payment. Never cached.
func (c *Client) PaymentStatus(ctx context.Context, paymentID string) (*PaymentStatus, error) {
	var out PaymentStatus
	err := c.get(ctx, "/api/payment/status/"+paymentID+"/", nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpgradePremium starts the 500 RWF premium charge for a lost report.
func (c *Client) UpgradePremium(ctx context.Context, lostID int64, verificationInput, phone string) (string, error) {
	var out paymentRequestResponse
	err := c.post(ctx, "/api/premium/upgrade/", map[string]interface{}{
		"lost_doc_id":        lostID,
		"verification_input": verificationInput,
		"phone_number":       phone,
	}, &out)
	if err != nil {
		return "", err
	}
	if !out.Success {
		return "", &APIError{Status: http.StatusBadGateway, Message: out.Error}
	}
	return out.PaymentID, nil
}

// PremiumStatus polls a premium payment. Never cached.
func (c *Client) PremiumStatus(ctx context.Context, paymentID string) (*PaymentStatus, error) {
	var out PaymentStatus
	err := c.get(ctx, "/api/premium/status/"+paymentID+"/", nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestRemoval sends the removal-confirmation email for an owned
// report. reason is FOUND, NO_LONGER_NEEDED or DUPLICATE.
func (c *Client) RequestRemoval(ctx context.Context, reportType string, id int64, verificationInput, reason string) error {
	return c.post(ctx, fmt.Sprintf("/api/documents/%s/%d/request-removal/", reportType, id),
		map[string]string{
			"verification_input": verificationInput,
			"reason":             reason,
		}, nil)
}

type confirmRemovalResponse struct {
	Success      bool   `json:"success"`
	DocumentName string `json:"document_name"`
}

// ConfirmRemoval consumes the emailed token and returns the removed
// listing's display name. Listings may be stale in the cache after
// this, so the cache is dropped.
func (c *Client) ConfirmRemoval(ctx context.Context, token string) (string, error) {
	var out confirmRemovalResponse
	err := c.get(ctx, "/api/documents/confirm-removal/", url.Values{"token": {token}}, &out)
	if err != nil {
		return "", err
	}
	c.cache.clear()
	return out.DocumentName, nil
}
