package universe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

var fallback = []string{"PSO", "OGDC"}

func TestLookup_ParsesMixedEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"stocks":["PSO",{"symbol":"OGDC"},{"symbol":"PPL","name":"Pakistan Petroleum"},"",{"name":"no symbol"}]}`))
	}))
	defer srv.Close()

	got := New(srv.URL, fallback).Symbols(context.Background())

	want := []string{"PSO", "OGDC", "PPL"}
	if len(got) != len(want) {
		t.Fatalf("expected %d symbols, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestLookup_FallbackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	got := New(srv.URL, fallback).Symbols(context.Background())
	if len(got) != 2 || got[0] != "PSO" {
		t.Errorf("expected fallback list, got %v", got)
	}
}

func TestLookup_FallbackOnUnreachable(t *testing.T) {
	got := New("http://127.0.0.1:1/nope", fallback).Symbols(context.Background())
	if len(got) != 2 {
		t.Errorf("expected fallback list, got %v", got)
	}
}

func TestLookup_FallbackOnEmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"stocks":[]}`))
	}))
	defer srv.Close()

	got := New(srv.URL, fallback).Symbols(context.Background())
	if len(got) != 2 {
		t.Errorf("expected fallback on empty response, got %v", got)
	}
}

func TestLookup_FallbackOnBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	got := New(srv.URL, fallback).Symbols(context.Background())
	if len(got) != 2 {
		t.Errorf("expected fallback on bad JSON, got %v", got)
	}
}
