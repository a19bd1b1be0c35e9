package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newCSRFTestHandler(called *bool) http.Handler {
	return NewCSRFMiddleware(CSRFConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	}))
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestCSRFMiddleware_SafeMethods_PassThroughWithoutToken(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		t.Run(method, func(t *testing.T) {
			called := false
			req := httptest.NewRequest(method, "/api/lists", nil)
			w := httptest.NewRecorder()

			newCSRFTestHandler(&called).ServeHTTP(w, req)

			if !called {
				t.Fatalf("handler should have been called for %s", method)
			}
		})
	}
}

func TestCSRFMiddleware_StateMutatingMethods_RequireToken(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		header string
	}{
		{"no cookie", "", "token"},
		{"no header", "token", ""},
		{"mismatch", "token-a", "token-b"},
	}

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		for _, tt := range tests {
			t.Run(method+"/"+tt.name, func(t *testing.T) {
				called := false
				req := httptest.NewRequest(method, "/api/lists", nil)
				if tt.cookie != "" {
					req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: tt.cookie})
				}
				if tt.header != "" {
					req.Header.Set(csrfHeaderName, tt.header)
				}
				w := httptest.NewRecorder()

				newCSRFTestHandler(&called).ServeHTTP(w, req)

				if called {
					t.Error("handler should not be called")
				}
				if w.Result().StatusCode != http.StatusForbidden {
					t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
				}
				if body := decodeErrorBody(t, w); body.Code != "CSRF_INVALID" {
					t.Errorf("code = %q, want CSRF_INVALID", body.Code)
				}
			})
		}
	}
}

func TestCSRFMiddleware_ValidToken_PassesThrough(t *testing.T) {
	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			called := false
			req := httptest.NewRequest(method, "/api/lists", nil)
			req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "same-token"})
			req.Header.Set(csrfHeaderName, "same-token")
			w := httptest.NewRecorder()

			newCSRFTestHandler(&called).ServeHTTP(w, req)

			if !called || w.Result().StatusCode != http.StatusOK {
				t.Errorf("status = %d, called = %v", w.Result().StatusCode, called)
			}
		})
	}
}

func TestCSRFMiddleware_BearerRequest_SkipsValidation(t *testing.T) {
	called := false
	req := httptest.NewRequest(http.MethodPost, "/api/lists", nil)
	req.Header.Set("Authorization", "Bearer session-token")
	w := httptest.NewRecorder()

	newCSRFTestHandler(&called).ServeHTTP(w, req)

	if !called {
		t.Error("bearer-authenticated request should bypass CSRF validation")
	}
}

func TestCSRFMiddleware_GETRequest_SetsCSRFCookie(t *testing.T) {
	called := false
	req := httptest.NewRequest(http.MethodGet, "/api/lists", nil)
	w := httptest.NewRecorder()

	newCSRFTestHandler(&called).ServeHTTP(w, req)

	c := findCookie(w.Result(), csrfCookieName)
	if c == nil {
		t.Fatal("expected CSRF cookie to be set")
	}
	if c.Value == "" || len(c.Value) != 64 {
		t.Errorf("cookie value = %q, want 64 hex chars", c.Value)
	}
	if c.HttpOnly {
		t.Error("CSRF cookie must be readable from JavaScript")
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", c.SameSite)
	}
}

func TestCSRFMiddleware_GETRequest_ExistingCookie_DoesNotReplace(t *testing.T) {
	called := false
	req := httptest.NewRequest(http.MethodGet, "/api/lists", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "existing"})
	w := httptest.NewRecorder()

	newCSRFTestHandler(&called).ServeHTTP(w, req)

	if c := findCookie(w.Result(), csrfCookieName); c != nil {
		t.Errorf("cookie should not be replaced, got %q", c.Value)
	}
}

func TestCSRFTokenHandler_SetsTokenCookieAndReturnsJSON(t *testing.T) {
	handler := NewCSRFTokenHandler(CSRFConfig{CookieSecure: true, CookieDomain: "example.com"})

	req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	resp := w.Result()
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	c := findCookie(resp, csrfCookieName)
	if c == nil {
		t.Fatal("expected CSRF cookie")
	}
	if body.Token == "" || body.Token != c.Value {
		t.Errorf("token = %q, cookie = %q; want equal non-empty", body.Token, c.Value)
	}
	if !c.Secure || c.Domain != "example.com" {
		t.Errorf("cookie Secure = %v, Domain = %q", c.Secure, c.Domain)
	}
}

func TestCSRFTokenHandler_ExistingCookie_ReturnsSameToken(t *testing.T) {
	handler := NewCSRFTokenHandler(CSRFConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "existing-token"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Token != "existing-token" {
		t.Errorf("token = %q, want existing-token", body.Token)
	}
}
