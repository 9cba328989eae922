package account

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestUpgradePlan(t *testing.T) {
	var gotPath, gotSub string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSub = r.URL.Query().Get("sub")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, &http.Client{}, zaptest.NewLogger(t))

	err := client.UpgradePlan(context.Background(), "auth0|abc123")
	require.NoError(t, err)
	assert.Equal(t, "/changeplantopro", gotPath)
	assert.Equal(t, "auth0|abc123", gotSub)
}

func TestUpgradePlan_TrimsTrailingSlash(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", &http.Client{}, zaptest.NewLogger(t))

	require.NoError(t, client.UpgradePlan(context.Background(), "user-1"))
	assert.Equal(t, "/changeplantopro", gotPath)
}

func TestUpgradePlan_EmptyUserID(t *testing.T) {
	client := NewClient("http://localhost:9", &http.Client{}, zaptest.NewLogger(t))

	err := client.UpgradePlan(context.Background(), "")
	require.Error(t, err)
}

func TestUpgradePlan_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such user", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, &http.Client{}, zaptest.NewLogger(t))

	err := client.UpgradePlan(context.Background(), "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestUpgradePlan_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, &http.Client{}, zaptest.NewLogger(t))

	err := client.UpgradePlan(context.Background(), "user-1")
	require.Error(t, err)
}
