package dispatch_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"pixship/internal/config"
	"pixship/internal/dispatch"
	"pixship/internal/services"
)

func newConfig(apiBase, token string) *config.Config {
	cfg := config.Default()
	cfg.Dispatch.APIBaseURL = apiBase
	cfg.Dispatch.Owner = "octo"
	cfg.Dispatch.Repo = "site"
	cfg.Dispatch.Token = token
	return &cfg
}

func TestSignalSendsWorkflowDispatch(t *testing.T) {
	var gotPath, gotAuth, gotAccept, gotVersion string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		gotVersion = r.Header.Get("X-GitHub-Api-Version")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := dispatch.New(newConfig(srv.URL, "secret"))
	if err := client.Signal(context.Background()); err != nil {
		t.Fatalf("Signal returned error: %v", err)
	}

	if gotPath != "/repos/octo/site/actions/workflows/deploy.yml/dispatches" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("unexpected authorization %q", gotAuth)
	}
	if gotAccept != "application/vnd.github+json" {
		t.Fatalf("unexpected accept %q", gotAccept)
	}
	if gotVersion != "2022-11-28" {
		t.Fatalf("unexpected api version %q", gotVersion)
	}
	if gotBody["ref"] != "main" {
		t.Fatalf("unexpected body %v", gotBody)
	}
}

func TestSignalWithoutTokenSkipsRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	client := dispatch.New(newConfig(srv.URL, ""))
	if client.HasToken() {
		t.Fatal("expected no token")
	}
	if err := client.Signal(context.Background()); !errors.Is(err, dispatch.ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
	if hits.Load() != 0 {
		t.Fatalf("expected no requests, got %d", hits.Load())
	}
}

func TestSignalReportsHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Bad credentials"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := dispatch.New(newConfig(srv.URL, "bad")).Signal(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) || !strings.Contains(err.Error(), "401") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestEndpoint(t *testing.T) {
	got := dispatch.Endpoint("https://api.github.com/", "octo", "site", "deploy.yml")
	if got != "https://api.github.com/repos/octo/site/actions/workflows/deploy.yml/dispatches" {
		t.Fatalf("unexpected endpoint %q", got)
	}
}
