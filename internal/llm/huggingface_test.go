/*-------------------------------------------------------------------------
 *
 * pgEdge Text-to-SQL Agent
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHuggingFaceClient_Generate(t *testing.T) {
	t.Run("list payload", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/models/google/gemma-2-2b-it") {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			if r.Header.Get("Authorization") != "Bearer hf-test" {
				t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
			}

			var req hfGenerateRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("failed to decode request: %v", err)
			}
			if !req.Options.WaitForModel {
				t.Error("wait_for_model must be set")
			}
			if req.Parameters.MaxNewTokens != 512 {
				t.Errorf("max_new_tokens = %d", req.Parameters.MaxNewTokens)
			}

			w.Write([]byte(`[{"generated_text":"SELECT total FROM orders"}]`))
		}))
		defer server.Close()

		client, err := NewHuggingFaceClient("hf-test", "", server.URL)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		sql, err := client.Generate(context.Background(), "test prompt")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sql != "SELECT total FROM orders" {
			t.Errorf("sql = %q", sql)
		}
	})

	t.Run("object payload", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"generated_text":"SELECT 1"}`))
		}))
		defer server.Close()

		client, _ := NewHuggingFaceClient("hf-test", "", server.URL)
		sql, err := client.Generate(context.Background(), "test prompt")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sql != "SELECT 1" {
			t.Errorf("sql = %q", sql)
		}
	})

	t.Run("summary_text fallback in list payload", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"summary_text":"SELECT 2"}]`))
		}))
		defer server.Close()

		client, _ := NewHuggingFaceClient("hf-test", "", server.URL)
		sql, err := client.Generate(context.Background(), "test prompt")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sql != "SELECT 2" {
			t.Errorf("sql = %q", sql)
		}
	})

	t.Run("unparseable payload is a hard failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"something_else":42}`))
		}))
		defer server.Close()

		client, _ := NewHuggingFaceClient("hf-test", "", server.URL)
		if _, err := client.Generate(context.Background(), "test prompt"); err == nil {
			t.Fatal("expected error for unrecognized payload")
		}
	})

	t.Run("empty list payload", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		}))
		defer server.Close()

		client, _ := NewHuggingFaceClient("hf-test", "", server.URL)
		if _, err := client.Generate(context.Background(), "test prompt"); err == nil {
			t.Fatal("expected error for empty list")
		}
	})

	t.Run("model loading status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"Model is currently loading"}`, http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client, _ := NewHuggingFaceClient("hf-test", "", server.URL)
		if _, err := client.Generate(context.Background(), "test prompt"); err == nil {
			t.Fatal("expected error for 503 response")
		}
	})
}
