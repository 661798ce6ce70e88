package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func decodeStatusCode(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v body=%s", err, w.Body.String())
	}
	return resp.StatusCode
}

func TestResolveAllowedOrigin(t *testing.T) {
	cases := []struct {
		origin      string
		allowed     []string
		credentials bool
		want        string
	}{
		{origin: "https://app.example.com", allowed: []string{"*"}, want: "*"},
		{origin: "https://app.example.com", allowed: []string{"*"}, credentials: true, want: "https://app.example.com"},
		{origin: "https://App.Example.com", allowed: []string{"https://app.example.com"}, want: "https://App.Example.com"},
		{origin: "https://evil.example.com", allowed: []string{"https://app.example.com"}, want: ""},
		{origin: "", allowed: []string{"https://app.example.com"}, want: ""},
	}
	for _, tc := range cases {
		if got := resolveAllowedOrigin(tc.origin, tc.allowed, tc.credentials); got != tc.want {
			t.Fatalf("origin %q allowed %v: want %q got %q", tc.origin, tc.allowed, tc.want, got)
		}
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": getRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)
	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("response request id want req-123 got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w2.Header().Get(requestIDHeader) == "" {
		t.Fatalf("request id should be generated when absent")
	}
}

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(CORSMiddleware(corsConfigForTest()))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example.com")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight want 204 got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "https://app.example.com" {
		t.Fatalf("unexpected allow origin %q", w.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestOperatorJWTMiddlewareRejectsMissingSecretAndHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(OperatorJWTMiddleware("", nil))
	r.GET("/business/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/business/ping", nil))
	if code := decodeStatusCode(t, w); code != 401 {
		t.Fatalf("missing secret want 401 got %d", code)
	}

	env := setupRouterTest(t)
	w = httptest.NewRecorder()
	env.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/business/intents", nil))
	if code := decodeStatusCode(t, w); code != 401 {
		t.Fatalf("missing header want 401 got %d", code)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/business/intents", nil)
	req.Header.Set("Authorization", "Token abc")
	env.engine.ServeHTTP(w, req)
	if code := decodeStatusCode(t, w); code != 401 {
		t.Fatalf("malformed header want 401 got %d", code)
	}
}

func TestBusinessRBACMiddlewareWithoutRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	env := setupRouterTest(t)
	r := gin.New()
	r.Use(BusinessRBACMiddleware(env.container.AuthzService))
	r.GET("/business/intents", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/business/intents", nil))
	if code := decodeStatusCode(t, w); code != 401 {
		t.Fatalf("missing role want 401 got %d", code)
	}
}
