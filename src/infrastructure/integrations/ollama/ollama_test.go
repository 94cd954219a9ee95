package ollama_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"ragline/src/core/rag"
	"ragline/src/infrastructure/integrations/ollama"
)

// fakeGenerateServer records the last /api/generate request body and
// answers with a single non-streaming response.
func fakeGenerateServer(t *testing.T, lastBody *[]byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("failed to read request body: %v", err)
		}
		*lastBody = body
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"model":"llama3.1","response":"ok","done":true}`)
	}))
}

func TestGenerateTemperatureOptions(t *testing.T) {
	zero := 0.0
	warm := 0.8

	tests := []struct {
		name     string
		opts     rag.GenerateOptions
		wantTemp *float64
	}{
		{"unset leaves temperature to the model", rag.GenerateOptions{}, nil},
		{"explicit zero is sent", rag.GenerateOptions{Temperature: &zero}, &zero},
		{"non-zero is sent", rag.GenerateOptions{Temperature: &warm}, &warm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lastBody []byte
			srv := fakeGenerateServer(t, &lastBody)
			defer srv.Close()

			client, err := ollama.NewClient(srv.URL, "nomic-embed-text", "llama3.1", srv.Client())
			if err != nil {
				t.Fatalf("NewClient() error = %v", err)
			}

			answer, err := client.Generate(context.Background(), "hello", tt.opts)
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if answer != "ok" {
				t.Errorf("Generate() = %q, want %q", answer, "ok")
			}

			var req struct {
				Options map[string]json.Number `json:"options"`
			}
			if err := json.Unmarshal(lastBody, &req); err != nil {
				t.Fatalf("failed to decode request body: %v", err)
			}

			got, sent := req.Options["temperature"]
			if tt.wantTemp == nil {
				if sent {
					t.Errorf("temperature = %v, want omitted", got)
				}
				return
			}
			if !sent {
				t.Fatal("temperature omitted, want it sent")
			}
			gotVal, err := got.Float64()
			if err != nil {
				t.Fatalf("temperature %q is not a number: %v", got, err)
			}
			if gotVal != *tt.wantTemp {
				t.Errorf("temperature = %v, want %v", gotVal, *tt.wantTemp)
			}
		})
	}
}
