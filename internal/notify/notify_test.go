package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendGridClientSendEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Welcome", body["subject"])

		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewSendGridClient(srv.URL, "sg-key", "no-reply@padimoney.com", "PadiMoney")
	err := client.SendEmail(context.Background(), "ada@example.com", "Welcome", "<p>Hello Ada</p>")
	require.NoError(t, err)
}

func TestSendGridClientSurfacesProviderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewSendGridClient(srv.URL, "bad-key", "no-reply@padimoney.com", "PadiMoney")
	err := client.SendEmail(context.Background(), "ada@example.com", "Welcome", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestTermiiClientNormalizesRecipient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2348031234567", body["to"])
		assert.Equal(t, "PadiMoney", body["from"])
		w.Write([]byte(`{"message_id":"m-1","message":"Successfully Sent"}`))
	}))
	defer srv.Close()

	client := NewTermiiClient(srv.URL, "tm-key", "PadiMoney")
	err := client.SendSMS(context.Background(), "08031234567", "Your account is ready")
	require.NoError(t, err)
}

func TestTermiiClientRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"invalid sender id"}`))
	}))
	defer srv.Close()

	client := NewTermiiClient(srv.URL, "tm-key", "???")
	err := client.SendSMS(context.Background(), "08031234567", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid sender id")
}
