package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newSecretRouter(secret string) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Header("X-Request-ID", "rid-s"); c.Next() })
	r.Use(SharedSecret(secret))
	r.POST("/form/webhook", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func TestSharedSecret_AllowsMatchingSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := newSecretRouter("s3cret")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/form/webhook", nil)
	req.Header.Set(HeaderFormSecret, "s3cret")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("matching secret -> %d", w.Code)
	}
}

func TestSharedSecret_RejectsMissingOrWrong(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := newSecretRouter("s3cret")

	cases := map[string]func(*http.Request){
		"missing header": func(*http.Request) {},
		"wrong value":    func(req *http.Request) { req.Header.Set(HeaderFormSecret, "nope") },
		"prefix only":    func(req *http.Request) { req.Header.Set(HeaderFormSecret, "s3c") },
	}
	for name, mod := range cases {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/form/webhook", nil)
			mod(req)
			r.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", w.Code)
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON body: %v", err)
			}
			if body["code"] != "unauthorized" || body["request_id"] != "rid-s" {
				t.Fatalf("unexpected body: %v", body)
			}
		})
	}
}

func TestSharedSecret_EmptyConfiguredSecretFailsClosed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := newSecretRouter("")

	// Even an empty presented value must be rejected: deployments without
	// FORM_SHARED_SECRET must not accept unauthenticated traffic.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/form/webhook", nil)
	req.Header.Set(HeaderFormSecret, "")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("empty configured secret must fail closed, got %d", w.Code)
	}
}

func TestSharedSecret_DoesNotLogPresentedSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)
	r := newSecretRouter("s3cret")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/form/webhook", nil)
	req.Header.Set(HeaderFormSecret, "attacker-guess")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	logs := buf.String()
	if !strings.Contains(logs, "shared_secret_rejected") {
		t.Fatalf("expected rejection log, got: %s", logs)
	}
	if strings.Contains(logs, "attacker-guess") || strings.Contains(logs, "s3cret") {
		t.Fatalf("secret material leaked into logs: %s", logs)
	}
}
