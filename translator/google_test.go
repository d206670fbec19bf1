package translator

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGoogleTranslate(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{"sl": q.Get("sl"), "tl": q.Get("tl"), "q": q.Get("q"), "client": q.Get("client")}
		w.Write([]byte(`[[["Hello, ","Ciao, ",null,null,10],["world","mondo",null,null,10]],null,"it"]`))
	}))
	defer srv.Close()

	g := NewGoogle(srv.URL, srv.Client())
	got, err := g.Translate(context.Background(), "Ciao, mondo", "it", "en")
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if got != "Hello, world" {
		t.Errorf("Translate() = %q, want %q", got, "Hello, world")
	}

	want := map[string]string{"sl": "it", "tl": "en", "q": "Ciao, mondo", "client": "gtx"}
	for k, v := range want {
		if gotQuery[k] != v {
			t.Errorf("query %s = %q, want %q", k, gotQuery[k], v)
		}
	}
}

func TestGoogleTranslateEmptySourceIsAuto(t *testing.T) {
	var sl string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sl = r.URL.Query().Get("sl")
		w.Write([]byte(`[[["x","y"]]]`))
	}))
	defer srv.Close()

	if _, err := NewGoogle(srv.URL, srv.Client()).Translate(context.Background(), "y", "", "en"); err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if sl != AutoDetect {
		t.Errorf("sl = %q, want %q", sl, AutoDetect)
	}
}

func TestGoogleTranslateErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantTemp bool
	}{
		{"rate limited", http.StatusTooManyRequests, "slow down", true},
		{"server error", http.StatusBadGateway, "", true},
		{"bad request", http.StatusBadRequest, "nope", false},
		{"malformed body", http.StatusOK, "<html>", false},
		{"no segments", http.StatusOK, `[[]]`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewGoogle(srv.URL, srv.Client()).Translate(context.Background(), "ciao", "it", "en")
			var pe *ProviderError
			if !errors.As(err, &pe) {
				t.Fatalf("error = %v, want *ProviderError", err)
			}
			if pe.Retryable != tt.wantTemp {
				t.Errorf("Retryable = %v, want %v", pe.Retryable, tt.wantTemp)
			}
			if IsTemporary(err) != tt.wantTemp {
				t.Errorf("IsTemporary() = %v, want %v", IsTemporary(err), tt.wantTemp)
			}
		})
	}
}

func TestGoogleTranslateNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewGoogle(url, nil).Translate(context.Background(), "ciao", "it", "en")
	if !IsTemporary(err) {
		t.Errorf("network error should be temporary, got %v", err)
	}
}

func TestLanguages(t *testing.T) {
	if !IsSupported("zh-CN") || !IsSupported("it") {
		t.Error("expected zh-CN and it to be supported")
	}
	if IsSupported("xx") || IsSupported(AutoDetect) {
		t.Error("unexpected supported language")
	}
	codes := LanguageCodes()
	if len(codes) != len(Languages) {
		t.Errorf("LanguageCodes() len = %d, want %d", len(codes), len(Languages))
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Fatalf("codes not sorted: %v", codes)
		}
	}
}
