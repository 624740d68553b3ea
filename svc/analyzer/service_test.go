package analyzer_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threew1h/converter/svc/analyzer"
)

func TestHTTPAnalyzer(t *testing.T) {
	t.Parallel()

	t.Run("posts text and normalizes response", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "the pump failed on monday", req["text"])
			assert.Equal(t, "3W1H", req["framework"])

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"rows": [{"what": "pump failure", "when": "monday"}], "detectedLanguage": "en"}`))
		}))
		defer srv.Close()

		a, err := analyzer.NewHTTPAnalyzer(analyzer.Config{PipelineURL: srv.URL})
		require.NoError(t, err)

		res, err := a.AnalyzeText(context.Background(), "the pump failed on monday", "")
		require.NoError(t, err)
		assert.Equal(t, "3W1H", res.Framework)
		require.Len(t, res.Rows, 1)
		assert.Equal(t, "pump failure", res.Rows[0]["what"])
	})

	t.Run("rejects empty text", func(t *testing.T) {
		t.Parallel()
		a, err := analyzer.NewHTTPAnalyzer(analyzer.Config{PipelineURL: "http://localhost:0"})
		require.NoError(t, err)

		_, err = a.AnalyzeText(context.Background(), "   ", "3W1H")
		assert.ErrorIs(t, err, analyzer.ErrEmptyText)
	})

	t.Run("wraps pipeline failures", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}))
		defer srv.Close()

		a, err := analyzer.NewHTTPAnalyzer(analyzer.Config{PipelineURL: srv.URL})
		require.NoError(t, err)

		_, err = a.AnalyzeText(context.Background(), "text", "3W1H")
		assert.ErrorIs(t, err, analyzer.ErrPipelineUnavailable)
	})

	t.Run("requires pipeline URL", func(t *testing.T) {
		t.Parallel()
		_, err := analyzer.NewHTTPAnalyzer(analyzer.Config{})
		assert.Error(t, err)
	})
}
