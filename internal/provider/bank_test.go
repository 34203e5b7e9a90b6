package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBankClientCreateVirtualAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/virtual-account-numbers", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "22212345678", body["bvn"])
		assert.Equal(t, true, body["is_permanent"])

		w.Write([]byte(`{"status":"success","message":"created","data":{"account_number":"7821004321","bank_name":"Wema Bank","order_ref":"VA-7781"}}`))
	}))
	defer srv.Close()

	client := NewBankClient(srv.URL, "sk_test_123", zap.NewNop())
	details, err := client.CreateVirtualAccount(context.Background(), VirtualAccountRequest{
		Email:       "ada@example.com",
		BVN:         "22212345678",
		FirstName:   "Ada",
		LastName:    "Obi",
		PhoneNumber: "2348031234567",
		Narration:   "Ada Obi",
		TxRef:       "va-user-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "7821004321", details.AccountNumber)
	assert.Equal(t, "Wema Bank", details.BankName)
	assert.Equal(t, "VA-7781", details.OrderRef)
}

func TestBankClientCreateVirtualAccountDeclined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","message":"invalid bvn"}`))
	}))
	defer srv.Close()

	client := NewBankClient(srv.URL, "sk_test_123", zap.NewNop())
	_, err := client.CreateVirtualAccount(context.Background(), VirtualAccountRequest{BVN: "0"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid bvn")
}

func TestBankClientSurfacesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewBankClient(srv.URL, "bad-key", zap.NewNop())
	_, err := client.CreateVirtualAccount(context.Background(), VirtualAccountRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestIdentityClientVerifyBVN(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bvn/lookup", r.URL.Path)
		w.Write([]byte(`{"status":"success","message":"ok","data":{"first_name":"Ada","last_name":"Obi"}}`))
	}))
	defer srv.Close()

	client := NewIdentityClient(srv.URL, "id-key")
	check, err := client.VerifyBVN(context.Background(), "22212345678")
	require.NoError(t, err)
	assert.True(t, check.IsValid)
	assert.Equal(t, "Ada Obi", check.CustomerName)
}

func TestIdentityClientVerifyBVNNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := NewIdentityClient(srv.URL, "id-key")
	check, err := client.VerifyBVN(context.Background(), "00000000000")
	require.NoError(t, err)
	assert.False(t, check.IsValid)
}
