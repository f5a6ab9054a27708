package ipsw

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const sampleBody = `{
  "name": "iPhone 15",
  "identifier": "iPhone15,4",
  "firmwares": [
    {"version": "18.0.1", "signed": true, "releasedate": "2025-10-01", "description": "Bug fixes"},
    {"version": "18.0", "signed": true, "beta": false},
    {"version": "18.1 beta 2", "signed": false, "beta": true, "releasedate": "2025-09-20"},
    {"version": "17.6.1", "signed": false, "beta": false, "releasedate": "2025-08-01", "description": "Security"}
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{BaseURL: srv.URL})
}

func TestFetchClassPartition(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/device/iPhone15,4" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("type") != "ipsw" {
			t.Errorf("type query = %q", r.URL.Query().Get("type"))
		}
		w.Write([]byte(sampleBody))
	})

	ctx := context.Background()

	signed, err := c.Fetch(ctx, "iPhone15,4", ClassSigned)
	if err != nil {
		t.Fatalf("signed fetch: %v", err)
	}
	if len(signed) != 2 || signed[0].Version != "18.0.1" || signed[1].Version != "18.0" {
		t.Fatalf("signed = %+v", signed)
	}

	unsigned, err := c.Fetch(ctx, "iPhone15,4", ClassUnsigned)
	if err != nil {
		t.Fatalf("unsigned fetch: %v", err)
	}
	if len(unsigned) != 1 || unsigned[0].Version != "17.6.1" {
		t.Fatalf("unsigned = %+v", unsigned)
	}

	beta, err := c.Fetch(ctx, "iPhone15,4", ClassBeta)
	if err != nil {
		t.Fatalf("beta fetch: %v", err)
	}
	if len(beta) != 1 || beta[0].Version != "18.1 beta 2" {
		t.Fatalf("beta = %+v", beta)
	}
}

func TestFetchPlaceholders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleBody))
	})
	signed, err := c.Fetch(context.Background(), "iPhone15,4", ClassSigned)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	// Second signed record carries neither date nor description.
	if signed[1].ReleaseDate != "unknown" {
		t.Fatalf("releasedate = %q", signed[1].ReleaseDate)
	}
	if signed[1].Description != "no description" {
		t.Fatalf("description = %q", signed[1].Description)
	}
}

func TestFetchRemoteFailures(t *testing.T) {
	status := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	})
	if _, err := status.Fetch(context.Background(), "iPhone15,4", ClassSigned); !errors.Is(err, ErrRemoteUnavailable) {
		t.Fatalf("status error = %v", err)
	}

	garbage := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	})
	if _, err := garbage.Fetch(context.Background(), "iPhone15,4", ClassSigned); !errors.Is(err, ErrRemoteUnavailable) {
		t.Fatalf("decode error = %v", err)
	}
}

func TestLatestSigned(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleBody))
	})
	fw, ok, err := c.LatestSigned(context.Background(), "iPhone15,4")
	if err != nil || !ok {
		t.Fatalf("latest: ok=%v err=%v", ok, err)
	}
	if fw.Version != "18.0.1" {
		t.Fatalf("latest = %q", fw.Version)
	}

	empty := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"firmwares": []}`))
	})
	_, ok, err = empty.LatestSigned(context.Background(), "iPhone15,4")
	if err != nil {
		t.Fatalf("empty latest: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for empty listing")
	}
}

func TestParseClass(t *testing.T) {
	if cl, ok := ParseClass(" Signed "); !ok || cl != ClassSigned {
		t.Fatalf("ParseClass signed = %v %v", cl, ok)
	}
	if _, ok := ParseClass("nightly"); ok {
		t.Fatal("expected unknown class to fail")
	}
}
