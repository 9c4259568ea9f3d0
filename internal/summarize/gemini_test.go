package summarize_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/zionnet/newsflow/internal/summarize"
)

func geminiBody(text string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	}
}

func TestGeminiSummarizer_Summarize(t *testing.T) {
	var gotPath, gotKey string
	var gotReq map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(geminiBody("  A tidy three line summary.\n"))
	}))
	defer srv.Close()

	g := summarize.NewGeminiSummarizer(srv.URL, "g-key", "gemini-1.5-flash", 5*time.Second)
	summary, err := g.Summarize(context.Background(), "https://n.example/article")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary != "A tidy three line summary." {
		t.Errorf("expected trimmed summary, got %q", summary)
	}
	if gotPath != "/v1beta/models/gemini-1.5-flash:generateContent" {
		t.Errorf("unexpected path: %s", gotPath)
	}
	if gotKey != "g-key" {
		t.Errorf("expected api key in query, got %q", gotKey)
	}
	b, _ := json.Marshal(gotReq)
	if !strings.Contains(string(b), "https://n.example/article") {
		t.Error("expected the article link inside the prompt")
	}
}

func TestGeminiSummarizer_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := summarize.NewGeminiSummarizer(srv.URL, "k", "gemini-1.5-flash", 5*time.Second)
	if _, err := g.Summarize(context.Background(), "https://n.example/a"); err == nil {
		t.Fatal("expected an error on HTTP 429")
	}
}

func TestGeminiSummarizer_EmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	}))
	defer srv.Close()

	g := summarize.NewGeminiSummarizer(srv.URL, "k", "gemini-1.5-flash", 5*time.Second)
	if _, err := g.Summarize(context.Background(), "https://n.example/a"); err == nil {
		t.Fatal("expected an error for an empty candidate list")
	}
}
