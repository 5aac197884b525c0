package ollama_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/germanamz/ollamagen/pkg/modeladapter"
	"github.com/germanamz/ollamagen/pkg/providers/ollama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *ollama.Adapter {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return ollama.New(srv.URL, "")
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func readRawBody(t *testing.T, r *http.Request) []byte {
	t.Helper()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}

	return body
}

func TestNew_Defaults(t *testing.T) {
	a := ollama.New("", "")

	assert.Equal(t, ollama.DefaultBaseURL, a.BaseURL)
	assert.Equal(t, ollama.DefaultModel, a.Name)
	assert.Equal(t, "http://localhost:11434", ollama.DefaultBaseURL)
	assert.Equal(t, "mistral", ollama.DefaultModel)
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	a := ollama.New("http://gpu-box:11434/", "llama3")

	assert.Equal(t, "http://gpu-box:11434", a.BaseURL)
	assert.Equal(t, "llama3", a.Name)
}

func TestGenerate_Hello(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"))

		body := readRawBody(t, r)
		assert.Equal(t, `{"model":"mistral","prompt":"Hello","stream":false}`, string(body))

		writeJSON(t, w, map[string]any{"response": "Hi there"})
	})

	out, err := adapter.Generate(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi there", out)
}

func TestGenerate_PromptVerbatim(t *testing.T) {
	prompts := map[string]string{
		"empty":    "",
		"quotes":   `say "hi" \ bye`,
		"newlines": "line one\nline two\r\n\ttabbed",
		"html":     "<b>bold</b> & </script>",
		"unicode":  "héllo 世界 🦙",
		"control":  "bell\a nul\x00 end",
	}

	for name, prompt := range prompts {
		t.Run(name, func(t *testing.T) {
			adapter := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				body := readRawBody(t, r)

				var got map[string]any
				assert.NoError(t, json.Unmarshal(body, &got))
				assert.Len(t, got, 3)
				assert.Equal(t, "mistral", got["model"])
				assert.Equal(t, prompt, got["prompt"])
				assert.Equal(t, false, got["stream"])

				writeJSON(t, w, map[string]any{"response": "ok"})
			})

			_, err := adapter.Generate(context.Background(), prompt)
			require.NoError(t, err)
		})
	}
}

func TestGenerate_ConfiguredModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var got map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "llama3.2", got["model"])

		writeJSON(t, w, map[string]any{"response": "ok"})
	}))
	t.Cleanup(srv.Close)

	adapter := ollama.New(srv.URL+"/", "llama3.2")

	_, err := adapter.Generate(context.Background(), "hi")
	require.NoError(t, err)
}

func TestGenerate_ResponseUnmodified(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{"response": "  padded\n\n"})
	})

	out, err := adapter.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "  padded\n\n", out)
}

func TestGenerate_EmptyResponseString(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{"response": ""})
	})

	out, err := adapter.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestGenerate_RecordsUsage(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{
			"model":             "mistral",
			"created_at":        "2023-08-04T19:22:45.499127Z",
			"response":          "The sky is blue because of Rayleigh scattering.",
			"done":              true,
			"context":           []int{1, 2, 3},
			"total_duration":    5043500667,
			"prompt_eval_count": 26,
			"eval_count":        290,
		})
	})

	_, err := adapter.Generate(context.Background(), "Why is the sky blue?")
	require.NoError(t, err)

	last, ok := adapter.Usage.Last()
	require.True(t, ok)
	assert.Equal(t, 26, last.PromptTokens)
	assert.Equal(t, 290, last.ResponseTokens)
	assert.Equal(t, 5043500667*time.Nanosecond, last.Duration)
}

func TestGenerate_MissingResponse(t *testing.T) {
	bodies := map[string]string{
		"missing":    `{"done":true}`,
		"null":       `{"response":null}`,
		"number":     `{"response":42}`,
		"object":     `{"response":{"text":"hi"}}`,
		"empty json": `{}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			adapter := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			})

			out, err := adapter.Generate(context.Background(), "hi")
			require.Error(t, err)
			assert.ErrorIs(t, err, ollama.ErrMissingResponse)
			assert.Empty(t, out)
			assert.Equal(t, 0, adapter.Usage.Count())
		})
	}
}

func TestGenerate_InvalidJSON(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"response": "unterminated`))
	})

	out, err := adapter.Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama: decode response")
	assert.Empty(t, out)
}

func TestGenerate_TrailingDataAfterReply(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"response":"X"} this is not json`))
	})

	out, err := adapter.Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama: decode response")
	assert.Empty(t, out)
	assert.Equal(t, 0, adapter.Usage.Count())
}

func TestGenerate_InvalidUTF8PromptIsReplaced(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		body := readRawBody(t, r)
		assert.Equal(t, `{"model":"mistral","prompt":"a\ufffdb","stream":false}`, string(body))

		writeJSON(t, w, map[string]any{"response": "ok"})
	})

	out, err := adapter.Generate(context.Background(), "a\xffb")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestGenerate_HTTPErrorWithOllamaMessage(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"mistral\" not found, try pulling it first"}`))
	})

	_, err := adapter.Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")
	assert.Contains(t, err.Error(), "try pulling it first")

	var se *modeladapter.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
}

func TestGenerate_HTTPErrorPlainBody(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	})

	_, err := adapter.Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.EqualError(t, err, "ollama: unexpected status 502: upstream unavailable")
}

func TestGenerate_ErrorStatusWithResponseBodyStillFails(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		writeJSON(t, w, map[string]any{"response": "looks fine"})
	})

	out, err := adapter.Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.Empty(t, out)
}

func TestGenerate_NoRetry(t *testing.T) {
	var hits atomic.Int32

	adapter := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := adapter.Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestGenerate_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	adapter := ollama.New(url, "")

	out, err := adapter.Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama: do request")
	assert.Empty(t, out)
}

func TestGenerate_ContextCancelled(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := adapter.Generate(ctx, "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGenerate_PackageFunctionHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ollama.Generate(ctx, "Hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerate_ConcurrentCalls(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var got map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(t, w, map[string]any{"response": got["prompt"], "eval_count": 1})
	})

	const calls = 20

	errs := make(chan error, calls)
	for range calls {
		go func() {
			out, err := adapter.Generate(context.Background(), "echo")
			if err == nil && out != "echo" {
				err = assert.AnError
			}
			errs <- err
		}()
	}

	for range calls {
		require.NoError(t, <-errs)
	}

	assert.Equal(t, calls, adapter.Usage.Count())
	assert.Equal(t, calls, adapter.Usage.Total().ResponseTokens)
}
