package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

const testToken = "governance-token-0001"

func TestGovernanceAuth(t *testing.T) {
	auth := NewGovernanceAuth([]string{"", testToken, "governance-token-0002"})
	if !auth.Enabled() {
		t.Fatal("Expected the guard to be enabled")
	}

	var gotID string
	h := auth.Handle(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = GovernanceTokenID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name     string
		header   string
		wantCode int
	}{
		{name: "valid token", header: "Bearer " + testToken, wantCode: http.StatusNoContent},
		{name: "lower-case scheme", header: "bearer " + testToken, wantCode: http.StatusNoContent},
		{name: "second token", header: "Bearer governance-token-0002", wantCode: http.StatusNoContent},
		{name: "missing header", header: "", wantCode: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + testToken, wantCode: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer ", wantCode: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer governance-token-9999", wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotID = ""
			req := httptest.NewRequest(http.MethodPost, "/v1/containment/lockdown", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if tt.wantCode == http.StatusUnauthorized {
				if w.Header().Get("WWW-Authenticate") == "" {
					t.Error("Expected a WWW-Authenticate challenge")
				}
				return
			}
			if len(gotID) != 8 {
				t.Errorf("token id = %q, want 8 hex characters", gotID)
			}
		})
	}
}

func TestGovernanceAuth_Disabled(t *testing.T) {
	auth := NewGovernanceAuth(nil)
	if auth.Enabled() {
		t.Fatal("Expected the guard to be disabled")
	}

	called := false
	h := auth.Handle(func(http.ResponseWriter, *http.Request) { called = true })
	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	if !called {
		t.Error("Disabled guard should pass requests through")
	}
}

// TestContainmentRoutes_Governance checks that only the state-changing
// containment routes require a token.
func TestContainmentRoutes_Governance(t *testing.T) {
	srv, _ := newTestServer(t, true)
	srv.auth = NewGovernanceAuth([]string{testToken})
	h := srv.Handler()

	w := do(t, h, http.MethodPost, "/v1/containment/check", `{"action":{"description":"list files"},"source":"agent-1"}`)
	if w.Code != http.StatusOK {
		t.Errorf("check status = %d, want 200", w.Code)
	}

	for _, path := range []string{"/v1/containment/lockdown", "/v1/containment/release"} {
		w = do(t, h, http.MethodPost, path, "")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s without token: status = %d, want 401", path, w.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/containment/lockdown", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("lockdown with token: status = %d, want 200", w.Code)
	}
	if !srv.deps.Shield.Locked() {
		t.Error("Expected the shield to be locked")
	}
}
