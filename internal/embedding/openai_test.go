/*-------------------------------------------------------------------------
 *
 * pgEdge Text-to-SQL Agent
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package embedding

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewOpenAIProvider(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		provider, err := NewOpenAIProvider("sk-test", "text-embedding-3-small")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if provider.Dimensions() != 1536 {
			t.Errorf("dimensions = %d, want 1536", provider.Dimensions())
		}
	})

	t.Run("empty API key", func(t *testing.T) {
		if _, err := NewOpenAIProvider("", "text-embedding-3-small"); err == nil {
			t.Fatal("expected error for empty API key")
		}
	})

	t.Run("default model", func(t *testing.T) {
		provider, err := NewOpenAIProvider("sk-test", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if provider.ModelName() != "text-embedding-3-small" {
			t.Errorf("default model = %q", provider.ModelName())
		}
	})

	t.Run("unsupported model", func(t *testing.T) {
		if _, err := NewOpenAIProvider("sk-test", "text-embedding-99"); err == nil {
			t.Fatal("expected error for unsupported model")
		}
	})
}

func TestOpenAIProvider_Embed(t *testing.T) {
	t.Run("successful embedding is normalized", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer sk-test" {
				t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
			}
			w.Write([]byte(`{"data":[{"embedding":[1,1],"index":0}],"model":"text-embedding-3-small"}`))
		}))
		defer server.Close()

		provider, err := NewOpenAIProvider("sk-test", "text-embedding-3-small")
		if err != nil {
			t.Fatalf("failed to create provider: %v", err)
		}
		provider.baseURL = server.URL

		vec, err := provider.Embed(context.Background(), "hello")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(vec) != 2 {
			t.Fatalf("got %d components", len(vec))
		}
		want := 1 / math.Sqrt2
		if math.Abs(vec[0]-want) > 1e-9 {
			t.Errorf("vec[0] = %f, want %f", vec[0], want)
		}
	})

	t.Run("non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":{"message":"invalid key"}}`, http.StatusUnauthorized)
		}))
		defer server.Close()

		provider, _ := NewOpenAIProvider("sk-bad", "text-embedding-3-small")
		provider.baseURL = server.URL

		if _, err := provider.Embed(context.Background(), "hello"); err == nil {
			t.Fatal("expected error for 401 response")
		}
	})

	t.Run("empty data", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":[],"model":"text-embedding-3-small"}`))
		}))
		defer server.Close()

		provider, _ := NewOpenAIProvider("sk-test", "text-embedding-3-small")
		provider.baseURL = server.URL

		if _, err := provider.Embed(context.Background(), "hello"); err == nil {
			t.Fatal("expected error for empty data")
		}
	})
}
