package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSearchLostUsesCache(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "/api/lost/search/", r.URL.Path)
		assert.Equal(t, "passport", r.URL.Query().Get("search"))
		json.NewEncoder(w).Encode([]DocumentReport{{ID: 5, Type: "lost"}})
	}))
	defer server.Close()

	c := New(Options{BaseURL: server.URL})

	for i := 0; i < 3; i++ {
		reports, err := c.SearchLost(context.Background(), SearchQuery{Search: "passport"})
		assert.NoError(t, err)
		assert.Len(t, reports, 1)
		assert.EqualValues(t, 5, reports[0].ID)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestPaymentStatusBypassesCache(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		json.NewEncoder(w).Encode(PaymentStatus{Paid: false, Status: "PENDING"})
	}))
	defer server.Close()

	c := New(Options{BaseURL: server.URL})

	for i := 0; i < 3; i++ {
		status, err := c.PaymentStatus(context.Background(), "pay-1")
		assert.NoError(t, err)
		assert.Equal(t, "PENDING", status.Status)
	}

	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestVerifySendsInput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/verify/found/7/", r.URL.Path)
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "A1234567", body["verification_input"])
		json.NewEncoder(w).Encode(VerifyResult{
			Verified: true,
			Document: &DocumentReport{ID: 7, Type: "found"},
		})
	}))
	defer server.Close()

	c := New(Options{BaseURL: server.URL})
	result, err := c.Verify(context.Background(), "found", 7, "A1234567")

	assert.NoError(t, err)
	assert.True(t, result.Verified)
	assert.EqualValues(t, 7, result.Document.ID)
}

func TestAPIErrorDecoding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
		json.NewEncoder(w).Encode(map[string]string{"error": "This confirmation link has expired."})
	}))
	defer server.Close()

	c := New(Options{BaseURL: server.URL})
	_, err := c.VerifyClaim(context.Background(), "tok")

	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusGone, apiErr.Status)
	assert.Equal(t, "This confirmation link has expired.", apiErr.Message)
}

func TestDetailErrorDecodesDetailKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Document number does not match our records."})
	}))
	defer server.Close()

	c := New(Options{BaseURL: server.URL})
	err := c.StartClaim(context.Background(), StartClaimInput{
		ReportType:   "found",
		ReportID:     7,
		ContactEmail: "x@example.com",
	})

	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Document number does not match our records.", apiErr.Message)
}

func TestRequestContactPayment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/payment/request/", r.URL.Path)
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "me@example.com", body["user_email"])
		assert.Equal(t, "250788123456", body["phone_number"])
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":    true,
			"payment_id": "pay-9",
		})
	}))
	defer server.Close()

	c := New(Options{BaseURL: server.URL})
	id, err := c.RequestContactPayment(context.Background(), "found", 7, "250788123456", "me@example.com")

	assert.NoError(t, err)
	assert.Equal(t, "pay-9", id)
}

func TestStartClaimGuardsDoubleSubmit(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}))
	defer server.Close()

	c := New(Options{BaseURL: server.URL})
	in := StartClaimInput{ReportType: "found", ReportID: 7, ContactEmail: "x@example.com"}

	first := make(chan error, 1)
	go func() { first <- c.StartClaim(context.Background(), in) }()
	<-entered

	assert.ErrorIs(t, c.StartClaim(context.Background(), in), ErrClaimInFlight)

	close(release)
	assert.NoError(t, <-first)

	// the guard clears once the first submission settles
	assert.NoError(t, c.StartClaim(context.Background(), in))
}

func TestDocumentTypeUnionDecoding(t *testing.T) {
	var report DocumentReport
	err := json.Unmarshal([]byte(`{"id":1,"type":"lost","document_type":"Passport"}`), &report)
	assert.NoError(t, err)
	assert.Equal(t, "Passport", report.DocumentType.Name)

	err = json.Unmarshal([]byte(`{"id":1,"type":"lost","document_type":{"id":2,"name":"National ID"}}`), &report)
	assert.NoError(t, err)
	assert.EqualValues(t, 2, report.DocumentType.ID)
	assert.Equal(t, "National ID", report.DocumentType.Name)
}

func TestProtectedImageURL(t *testing.T) {
	c := New(Options{BaseURL: "https://api.docufind.rw/"})

	url := c.ProtectedImageURL("found", 7, "tok-1")

	assert.Equal(t, "https://api.docufind.rw/api/protected-image/?report_id=7&report_type=found&token=tok-1", url)
}

func TestTimeoutClamping(t *testing.T) {
	assert.Equal(t, defaultTimeout, New(Options{}).http.Timeout)
	assert.Equal(t, minTimeout, New(Options{Timeout: time.Second}).http.Timeout)
	assert.Equal(t, defaultTimeout, New(Options{Timeout: time.Hour}).http.Timeout)
}
