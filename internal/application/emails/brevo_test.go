package emails

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendVerification_PostsToBrevo(t *testing.T) {
	var got BrevoSendRequest
	var apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := &BrevoClient{APIKey: "key", MailFrom: "rides@example.com", Endpoint: srv.URL}
	err := c.SendVerification(context.Background(), "ana@example.com", "Ana", "https://rides.example.com/verify?token=abc")
	require.NoError(t, err)

	assert.Equal(t, "key", apiKey)
	assert.Equal(t, "rides@example.com", got.Sender.Email)
	require.Len(t, got.To, 1)
	assert.Equal(t, "ana@example.com", got.To[0].Email)
	assert.Contains(t, got.HTMLContent, "https://rides.example.com/verify?token=abc")
	assert.Contains(t, got.HTMLContent, "Welcome, Ana!")
}

func TestSendVerification_NoAPIKeyIsNoop(t *testing.T) {
	c := &BrevoClient{Endpoint: "http://127.0.0.1:0"}
	assert.NoError(t, c.SendVerification(context.Background(), "ana@example.com", "Ana", "link"))
}

func TestSendVerification_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := &BrevoClient{APIKey: "key", Endpoint: srv.URL}
	err := c.SendVerification(context.Background(), "ana@example.com", "", "link")
	assert.Error(t, err)
}

func TestVerificationContent_EscapesName(t *testing.T) {
	out := verificationContent("<b>Ana</b>", "https://x")
	assert.Contains(t, out, "&lt;b&gt;Ana&lt;/b&gt;")
}
