package quote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func relayServer(t *testing.T, status int, body string) (*httptest.Server, *string) {
	t.Helper()
	var gotTarget string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTarget = r.URL.Query().Get("url")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &gotTarget
}

func TestClient_Fetch_Success(t *testing.T) {
	srv, target := relayServer(t, http.StatusOK,
		`{"contents":"[{\"q\":\" Well begun is half done. \",\"a\":\"Aristotle\",\"h\":\"<blockquote/>\"}]","status":{"http_code":200}}`)

	c := NewClient(srv.URL+"/get?url=", DefaultSourceURL, time.Second)
	q, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Quote{Text: "Well begun is half done.", Author: "Aristotle"}, q)
	assert.Equal(t, DefaultSourceURL, *target)
}

func TestClient_Fetch_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"server error", http.StatusBadGateway, `oops`, ErrHTTPStatus},
		{"rate limited upstream", http.StatusTooManyRequests, `{}`, ErrHTTPStatus},
		{"not json", http.StatusOK, `<html>`, ErrMalformedResponse},
		{"missing contents", http.StatusOK, `{"status":{}}`, ErrMalformedResponse},
		{"contents not an array", http.StatusOK, `{"contents":"{\"q\":\"x\"}"}`, ErrMalformedResponse},
		{"empty array", http.StatusOK, `{"contents":"[]"}`, ErrMalformedResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := relayServer(t, tt.status, tt.body)
			c := NewClient(srv.URL+"/get?url=", DefaultSourceURL, time.Second)
			_, err := c.Fetch(context.Background())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClient_Fetch_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url+"/get?url=", DefaultSourceURL, time.Second)
	_, err := c.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestClient_RequestURL(t *testing.T) {
	c := NewClient("", "", 0)
	assert.Equal(t, "https://api.allorigins.win/get?url=https%3A%2F%2Fzenquotes.io%2Fapi%2Frandom", c.RequestURL())
}
