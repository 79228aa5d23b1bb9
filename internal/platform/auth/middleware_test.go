package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

type staticAuthenticator struct {
	identity Identity
	err      error
}

func (s staticAuthenticator) Authenticate(ctx context.Context, r *http.Request) (Identity, error) {
	return s.identity, s.err
}

func TestMiddlewarePassesIdentity(t *testing.T) {
	var seen Identity
	handler := Middleware{
		Authenticator: staticAuthenticator{identity: Identity{Subject: "alice", Email: "alice@lab.local"}},
	}.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projects", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if seen.Subject != "alice" {
		t.Fatalf("identity not propagated: %+v", seen)
	}
}

func TestMiddlewareRejectsUnauthenticated(t *testing.T) {
	handler := Middleware{
		Authenticator: staticAuthenticator{err: ErrUnauthenticated},
	}.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projects", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestMiddlewareSkipsPrefixes(t *testing.T) {
	handler := Middleware{
		Authenticator: staticAuthenticator{err: ErrUnauthenticated},
		SkipPrefixes:  []string{"/healthz"},
	}.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("skip prefix not honored: status = %d", rec.Code)
	}
}

func TestMiddlewareNilAuthenticatorIsOpen(t *testing.T) {
	handler := Middleware{}.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projects", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (Config{Mode: ModeDisabled}).Validate(); err != nil {
		t.Fatalf("disabled mode rejected: %v", err)
	}
	if err := (Config{Mode: ModeOIDC}).Validate(); err == nil {
		t.Fatal("oidc mode without issuer must fail")
	}
	if err := (Config{Mode: ModeDev}).Validate(); err == nil {
		t.Fatal("dev mode without subject must fail")
	}
	if err := (Config{Mode: "other"}).Validate(); err == nil {
		t.Fatal("unknown mode must fail")
	}
}
