package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyPhotoParsesVerdict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(32<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "sapling.jpg", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "verified": true, "label": "tree_planting", "confidence": 0.94}`))
	}))
	t.Cleanup(srv.Close)

	client := NewVerifierClient(srv.URL, "")
	verdict, err := client.VerifyPhoto(context.Background(), "sapling.jpg", []byte("jpeg"))
	require.NoError(t, err)
	assert.True(t, verdict.Success)
	assert.True(t, verdict.Verified)
	assert.Equal(t, "tree_planting", verdict.Label)
	assert.InDelta(t, 0.94, verdict.Score, 0.001)
}

func TestVerifyPhotoNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	client := NewVerifierClient(srv.URL, "")
	_, err := client.VerifyPhoto(context.Background(), "sapling.jpg", []byte("jpeg"))
	assert.ErrorIs(t, err, ErrVerificationUnavailable)
}

func TestVerifyPhotoMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	t.Cleanup(srv.Close)

	client := NewVerifierClient(srv.URL, "")
	_, err := client.VerifyPhoto(context.Background(), "sapling.jpg", []byte("jpeg"))
	assert.ErrorIs(t, err, ErrVerificationUnavailable)
}

func TestVerifyPhotoSendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Write([]byte(`{"success": true, "verified": false}`))
	}))
	t.Cleanup(srv.Close)

	client := NewVerifierClient(srv.URL, "secret")
	verdict, err := client.VerifyPhoto(context.Background(), "sapling.jpg", []byte("jpeg"))
	require.NoError(t, err)
	assert.False(t, verdict.Verified)
}
