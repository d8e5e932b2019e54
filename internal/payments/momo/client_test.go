package momo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:         baseURL,
		APIUser:         "api-user",
		APIKey:          "api-key",
		SubscriptionKey: "sub-key",
		TargetEnv:       "sandbox",
		Currency:        "EUR",
	}
}

func TestRequestToPay(t *testing.T) {
	var gotReference string
	var gotBody requestToPayBody

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/collection/token/":
			assert.NotEmpty(t, r.Header.Get("Authorization"))
			assert.Equal(t, "sub-key", r.Header.Get("Ocp-Apim-Subscription-Key"))
			json.NewEncoder(w).Encode(tokenResponse{AccessToken: "tok-1"})
		case "/collection/v1_0/requesttopay":
			gotReference = r.Header.Get("X-Reference-Id")
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			assert.Equal(t, "sandbox", r.Header.Get("X-Target-Environment"))
			json.NewDecoder(r.Body).Decode(&gotBody)
			w.WriteHeader(http.StatusAccepted)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), zap.NewNop())
	err := client.RequestToPay(context.Background(), RequestToPayInput{
		ReferenceID: "ref-123",
		PhoneNumber: "250788123456",
		Amount:      "2000",
	})

	assert.NoError(t, err)
	assert.Equal(t, "ref-123", gotReference)
	assert.Equal(t, "2000", gotBody.Amount)
	assert.Equal(t, "EUR", gotBody.Currency)
	assert.Equal(t, "MSISDN", gotBody.Payer.PartyIDType)
	assert.Equal(t, "250788123456", gotBody.Payer.PartyID)
}

func TestRequestToPayRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/collection/token/" {
			json.NewEncoder(w).Encode(tokenResponse{AccessToken: "tok-1"})
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), zap.NewNop())
	err := client.RequestToPay(context.Background(), RequestToPayInput{
		ReferenceID: "ref-123",
		PhoneNumber: "bad",
		Amount:      "2000",
	})

	assert.Error(t, err)
}

func TestStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/collection/token/":
			json.NewEncoder(w).Encode(tokenResponse{AccessToken: "tok-1"})
		case "/collection/v1_0/requesttopay/ref-123":
			json.NewEncoder(w).Encode(StatusResult{
				Status:                 StatusSuccessful,
				FinancialTransactionID: "fin-9",
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), zap.NewNop())
	result, err := client.Status(context.Background(), "ref-123")

	assert.NoError(t, err)
	assert.Equal(t, StatusSuccessful, result.Status)
	assert.Equal(t, "fin-9", result.FinancialTransactionID)
}

func TestStatusTokenFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), zap.NewNop())
	_, err := client.Status(context.Background(), "ref-123")

	assert.Error(t, err)
}
