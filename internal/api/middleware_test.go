package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware(t *testing.T) {
	api := newTestAPI(t, testMenu(), "kitchen-secret")

	valid, err := IssueToken("kitchen-secret", "manager")
	require.NoError(t, err)
	forged, err := IssueToken("other-secret", "manager")
	require.NoError(t, err)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.StandardClaims{}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"bearer token", "Bearer " + valid, http.StatusOK},
		{"bare token", valid, http.StatusOK},
		{"wrong secret", "Bearer " + forged, http.StatusUnauthorized},
		{"unsigned token", "Bearer " + unsigned, http.StatusUnauthorized},
		{"garbage", "Bearer not-a-token", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/api/v1/menu", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			api.Router.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestHealthIsOpenWithAuth(t *testing.T) {
	api := newTestAPI(t, testMenu(), "kitchen-secret")

	w := doRequest(api, "GET", "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebSocketRequiresToken(t *testing.T) {
	api := newTestAPI(t, testMenu(), "kitchen-secret")

	w := doRequest(api, "GET", "/ws", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestQueryTokenOnlyAcceptedForWebSocket(t *testing.T) {
	api := newTestAPI(t, testMenu(), "kitchen-secret")
	token, err := IssueToken("kitchen-secret", "manager")
	require.NoError(t, err)

	w := doRequest(api, "GET", "/api/v1/menu?token="+token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(api, "GET", "/ws?token=not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
