package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendAndParseJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "yes", r.Header.Get("X-Test"))
		_, _ = w.Write([]byte(`{"name":"ok"}`))
	}))
	defer srv.Close()

	var dest struct {
		Name string `json:"name"`
	}
	c := NewClient()
	err := c.SendAndParse(context.Background(), &RequestOptions{
		URL:         srv.URL,
		Headers:     map[string]string{"X-Test": "yes"},
		QueryParams: map[string][]string{"interval": {"1d"}},
	}, &dest)
	require.NoError(t, err)
	assert.Equal(t, "ok", dest.Name)
}

func TestSendAndParseStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}))
	defer srv.Close()

	err := NewClient().SendAndParse(context.Background(), &RequestOptions{URL: srv.URL}, nil)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
	assert.Equal(t, "slow down", se.Body)
	assert.True(t, se.Retryable())
}

func TestSendAndParseRawBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	var body []byte
	require.NoError(t, NewClient(WithHeader("User-Agent", "probe")).SendAndParse(context.Background(), &RequestOptions{URL: srv.URL}, &body))
	assert.Equal(t, "<html></html>", string(body))
}

func TestSendAndParseJSONBodyAndQueryMerge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "0", r.URL.Query().Get("sosok"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "kospi", in["market"])
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := NewClient().SendAndParse(context.Background(), &RequestOptions{
		Method:      MethodPost,
		URL:         srv.URL + "?sosok=0",
		QueryParams: map[string][]string{"page": {"2"}},
		Body:        map[string]string{"market": "kospi"},
	}, nil)
	require.NoError(t, err)
}
