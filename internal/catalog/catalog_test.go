package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStickers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stickers" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"name":"star","image":"https://cdn.test/star.png"},{"name":"heart","image":"https://cdn.test/heart.png"}]`))
	}))
	defer srv.Close()

	items, err := NewClient(srv.URL).Stickers(context.Background())
	if err != nil {
		t.Fatalf("stickers: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Name != "star" || items[1].Image != "https://cdn.test/heart.png" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestEmojisServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).Emojis(context.Background()); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"a list"}`))
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).Stickers(context.Background()); err == nil {
		t.Fatal("expected error on malformed body")
	}
}
