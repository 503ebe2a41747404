package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"forex-portal-go/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInvalidator struct {
	mu      sync.Mutex
	reasons []string
}

func (f *fakeInvalidator) Invalidate(_ context.Context, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reasons = append(f.reasons, reason)
	return nil
}

func (f *fakeInvalidator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reasons)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *fakeInvalidator) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClientWithHTTP(srv.URL+"/", srv.Client())
	inv := &fakeInvalidator{}
	client.SetInvalidator(inv)
	return client, inv
}

func sessionContext() context.Context {
	return models.WithSession(context.Background(), &models.Session{
		Id:        "s1",
		Email:     "trader@example.com",
		Token:     "secret-token",
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestListAccounts_Success(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": []map[string]any{
				{"id": "a1", "account_number": "1001", "balance": "900", "minimum_deposit": "10", "maximum_deposit": "3000"},
			},
		})
	})

	accounts, err := client.ListAccounts(sessionContext())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "1001", accounts[0].AccountNumber)
	assert.True(t, accounts[0].Balance.Equal(decimal.NewFromInt(900)))
	require.NotNil(t, accounts[0].MaximumDeposit)
	assert.True(t, accounts[0].MaximumDeposit.Equal(decimal.NewFromInt(3000)))
	assert.Nil(t, accounts[0].MinimumWithdrawal)
}

func TestEnvelopeFailures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     any
		expected string
	}{
		{
			name:     "success false with string error",
			status:   http.StatusOK,
			body:     map[string]any{"success": false, "error": "Insufficient balance"},
			expected: "Insufficient balance",
		},
		{
			name:     "error object",
			status:   http.StatusUnprocessableEntity,
			body:     map[string]any{"success": false, "error": map[string]any{"message": "Amount below minimum"}},
			expected: "Amount below minimum",
		},
		{
			name:     "message field",
			status:   http.StatusBadRequest,
			body:     map[string]any{"success": false, "message": "Gateway disabled"},
			expected: "Gateway disabled",
		},
		{
			name:     "no message falls back",
			status:   http.StatusInternalServerError,
			body:     map[string]any{"success": false},
			expected: GenericErrorMessage,
		},
		{
			name:     "non-json error page",
			status:   http.StatusBadGateway,
			body:     nil,
			expected: GenericErrorMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.body == nil {
					w.WriteHeader(tt.status)
					_, _ = io.WriteString(w, "<html>bad gateway</html>")
					return
				}
				writeJSON(w, tt.status, tt.body)
			})

			_, err := client.GetWallet(sessionContext())
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.expected, apiErr.Message)
			assert.Equal(t, tt.expected, UserMessage(err))
		})
	}
}

func TestUnauthorizedInvalidatesSession(t *testing.T) {
	client, inv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "token expired"})
	})

	_, err := client.ListGateways(sessionContext())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, 1, inv.calls())
}

func TestLoginFailureDoesNotInvalidate(t *testing.T) {
	client, inv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "Invalid credentials"})
	})

	_, err := client.Login(context.Background(), "trader@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", UserMessage(err))
	assert.Equal(t, 0, inv.calls())
}

func TestRequestWithoutSession(t *testing.T) {
	called := false
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := client.GetKYCStatus(context.Background())
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.False(t, called)
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClientWithHTTP(url, &http.Client{Timeout: time.Second})
	_, err := client.ListAccounts(sessionContext())
	require.Error(t, err)

	var trErr *TransportError
	assert.True(t, errors.As(err, &trErr))
	assert.Equal(t, MsgUnreachable, UserMessage(err))
}

func TestCreateDeposit_Multipart(t *testing.T) {
	proof := filepath.Join(t.TempDir(), "receipt.png")
	require.NoError(t, os.WriteFile(proof, []byte("png-bytes"), 0o600))

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/deposits/request", r.URL.Path)
		assert.Equal(t, "key-123", r.Header.Get("Idempotency-Key"))
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "gw-1", r.FormValue("gateway_id"))
		assert.Equal(t, "250.5", r.FormValue("amount"))
		assert.Equal(t, "USD", r.FormValue("currency"))
		assert.Equal(t, "mt5", r.FormValue("deposit_to"))
		assert.Equal(t, "1001", r.FormValue("mt5_account_id"))
		assert.Empty(t, r.FormValue("wallet_number"))
		assert.Equal(t, "0xabc", r.FormValue("transaction_hash"))

		file, header, err := r.FormFile("proof")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "receipt.png", header.Filename)
		assert.Equal(t, "png-bytes", string(data))

		writeJSON(w, http.StatusCreated, map[string]any{
			"success": true,
			"data":    map[string]any{"id": "dep-1", "status": "pending", "amount": "250.5", "currency": "USD"},
		})
	})

	result, err := client.CreateDeposit(sessionContext(), DepositRequest{
		GatewayId:       "gw-1",
		Amount:          decimal.RequireFromString("250.5"),
		Currency:        "USD",
		DepositTo:       DestinationMT5,
		MT5AccountId:    "1001",
		ProofPath:       proof,
		TransactionHash: "0xabc",
		IdempotencyKey:  "key-123",
	})
	require.NoError(t, err)
	assert.Equal(t, "dep-1", result.Id)
	assert.Equal(t, "pending", result.Status)
}

func TestCreateDeposit_UnknownDestination(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be sent")
	})

	_, err := client.CreateDeposit(sessionContext(), DepositRequest{GatewayId: "gw-1", DepositTo: "bank"})
	assert.Error(t, err)
}

func TestCreateWithdrawal(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "pd-1", body["payment_detail_id"])
		assert.Equal(t, "wallet", body["withdraw_from"])
		assert.Equal(t, "W-77", body["wallet_number"])
		assert.NotContains(t, body, "IdempotencyKey")
		assert.Equal(t, "key-9", r.Header.Get("Idempotency-Key"))

		writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": "Withdrawal limit reached"})
	})

	_, err := client.CreateWithdrawal(sessionContext(), WithdrawalRequest{
		Amount:          decimal.NewFromInt(50),
		Currency:        "USD",
		PaymentDetailId: "pd-1",
		WithdrawFrom:    DestinationWallet,
		WalletNumber:    "W-77",
		IdempotencyKey:  "key-9",
	})
	require.Error(t, err)
	assert.Equal(t, "Withdrawal limit reached", err.Error())
}

func TestSupportEndpoints(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/support/tickets/T-1":
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"data": map[string]any{
					"id": "T-1", "subject": "Late deposit", "status": "open",
					"messages": []map[string]any{{"id": "m1", "sender": "user", "message": "hello"}},
				},
			})
		case r.Method == http.MethodPost && r.URL.Path == "/support/tickets/T-1/reply":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"data":    map[string]any{"id": "m2", "sender": "user", "message": body["message"]},
			})
		default:
			http.NotFound(w, r)
		}
	})

	ctx := sessionContext()
	ticket, err := client.GetTicket(ctx, "T-1")
	require.NoError(t, err)
	require.Len(t, ticket.Messages, 1)
	assert.Equal(t, "hello", ticket.Messages[0].Body)

	reply, err := client.ReplyTicket(ctx, "T-1", "any update?")
	require.NoError(t, err)
	assert.Equal(t, "any update?", reply.Body)
}
