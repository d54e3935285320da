package middleware

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pliu/roomchat/internal/objectid"
)

var knownUser = objectid.MustConvert("65a1f0c2e4b0a1b2c3d4e5f6")

type stubVerifier map[string]objectid.ID

func (v stubVerifier) Verify(token string) (objectid.ID, error) {
	if id, ok := v[token]; ok {
		return id, nil
	}
	return objectid.Nil, errors.New("invalid token")
}

func TestAuthMiddleware(t *testing.T) {
	verifier := stubVerifier{"good-token": knownUser}

	// Mock next handler
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserID(r.Context())
		if !ok {
			t.Error("Expected userID in context")
		}
		if userID != knownUser {
			t.Errorf("Expected userID %v, got %v", knownUser, userID)
		}
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name           string
		setup          func(r *http.Request)
		expectedStatus int
	}{
		{
			name:           "Valid Cookie",
			setup:          func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "good-token"}) },
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Valid Bearer Header",
			setup:          func(r *http.Request) { r.Header.Set("Authorization", "Bearer good-token") },
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Invalid Cookie",
			setup:          func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "forged"}) },
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Missing Token",
			setup:          func(r *http.Request) {},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			tt.setup(req)
			rr := httptest.NewRecorder()

			Auth(verifier)(nextHandler).ServeHTTP(rr, req)

			require.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}

func TestWithUserID(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	_, ok := UserID(req.Context())
	require.False(t, ok)

	id, ok := UserID(WithUserID(req.Context(), knownUser))
	require.True(t, ok)
	require.Equal(t, knownUser, id)
}

func TestLoggingMiddleware(t *testing.T) {
	// Mock next handler that returns 404
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()

	Logging(slog.New(slog.NewTextHandler(io.Discard, nil)))(nextHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
}

// MockHijacker implements http.Hijacker for testing
type MockHijacker struct {
	httptest.ResponseRecorder
	hijacked bool
}

func (m *MockHijacker) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	m.hijacked = true
	return nil, nil, nil
}

func TestLoggingMiddleware_Hijack(t *testing.T) {
	// Mock next handler that tries to hijack
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hijacker, ok := w.(http.Hijacker)
		if !ok {
			t.Error("ResponseWriter does not implement http.Hijacker")
			return
		}
		_, _, err := hijacker.Hijack()
		if err != nil {
			t.Errorf("Hijack failed: %v", err)
		}
	})

	req := httptest.NewRequest("GET", "/", nil)
	mockWriter := &MockHijacker{ResponseRecorder: *httptest.NewRecorder()}

	Logging(slog.New(slog.NewTextHandler(io.Discard, nil)))(nextHandler).ServeHTTP(mockWriter, req)

	require.True(t, mockWriter.hijacked)
}

func TestLoggingMiddleware_HijackUnsupported(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	_, _, err := rec.Hijack()
	require.Error(t, err)
}

func TestTimeout(t *testing.T) {
	var deadline time.Time
	var ok bool
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	})

	before := time.Now()
	Timeout(time.Minute)(nextHandler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	require.True(t, ok)
	require.WithinDuration(t, before.Add(time.Minute), deadline, 5*time.Second)
}
