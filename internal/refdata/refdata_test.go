package refdata

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestFileName(t *testing.T) {
	tests := []struct {
		url  string
		want string
		ok   bool
	}{
		{DefaultURL, "taxa.txt", true},
		{"https://example.com/", "reference.txt", true},
		{"https://example.com", "reference.txt", true},
		{"ftp://example.com/taxa.txt", "", false},
		{"://bad", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := FileName(tt.url)
			if (err == nil) != tt.ok || got != tt.want {
				t.Errorf("FileName(%q) = %q, %v", tt.url, got, err)
			}
		})
	}
}

func TestFetch(t *testing.T) {
	const body = "scientificName\nPanthera leo\n"
	mux := http.NewServeMux()
	mux.HandleFunc("/dwca/taxa.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})
	mux.HandleFunc("/missing.txt", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	t.Run("OK", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "cache")
		u := srv.URL + "/dwca/taxa.txt"
		if _, ok := Cached(u, dir); ok {
			t.Fatal("Cached() before Fetch")
		}
		p, err := Fetch(t.Context(), srv.Client(), u, dir)
		if err != nil {
			t.Fatal(err)
		}
		if want := filepath.Join(dir, "taxa.txt"); p != want {
			t.Errorf("Fetch() = %q, want %q", p, want)
		}
		b, err := os.ReadFile(p)
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != body {
			t.Errorf("content = %q", b)
		}
		if c, ok := Cached(u, dir); !ok || c != p {
			t.Errorf("Cached() = %q, %v", c, ok)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		dir := t.TempDir()
		_, err := Fetch(t.Context(), srv.Client(), srv.URL+"/missing.txt", dir)
		var se *StatusError
		if !errors.As(err, &se) || se.Code != http.StatusNotFound {
			t.Fatalf("Fetch() error = %v, want 404 StatusError", err)
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 0 {
			t.Errorf("left %d files behind", len(entries))
		}
	})
}
