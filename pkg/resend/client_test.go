package resend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re-key", r.Header.Get("Authorization"))

		var email Email
		require.NoError(t, json.NewDecoder(r.Body).Decode(&email))
		assert.Equal(t, []string{"lead@example.com"}, email.To)

		json.NewEncoder(w).Encode(SendResponse{ID: "msg-1"})
	}))
	defer srv.Close()

	client := NewClient("re-key", WithBaseURL(srv.URL))
	resp, err := client.Send(context.Background(), Email{
		From:    "Vanta <hello@vanta.dev>",
		To:      []string{"lead@example.com"},
		Subject: "Hey Jordan!",
		HTML:    "<p>Hi Jordan,</p>",
	})

	require.NoError(t, err)
	assert.Equal(t, "msg-1", resp.ID)
}

func TestSendBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails/batch", r.URL.Path)

		var emails []Email
		require.NoError(t, json.NewDecoder(r.Body).Decode(&emails))
		require.Len(t, emails, 2)

		json.NewEncoder(w).Encode(BatchResponse{
			Data: []SendResponse{{ID: "msg-1"}, {ID: "msg-2"}},
		})
	}))
	defer srv.Close()

	client := NewClient("re-key", WithBaseURL(srv.URL))
	resp, err := client.SendBatch(context.Background(), []Email{
		{To: []string{"a@example.com"}},
		{To: []string{"b@example.com"}},
	})

	require.NoError(t, err)
	assert.Len(t, resp.Data, 2)
}

func TestSend_ProviderRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"domain not verified"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient("re-key", WithBaseURL(srv.URL))
	_, err := client.Send(context.Background(), Email{To: []string{"a@example.com"}})

	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "domain not verified")
}
