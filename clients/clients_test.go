package clients

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditx/auditx-pipeline/markers"
	"github.com/auditx/auditx-pipeline/transcript"
)

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transcribe", r.URL.Path)
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "call.wav", hdr.Filename)
		assert.Equal(t, "RIFF", string(data))

		io.WriteString(w, `{"sentences":[{"sentence_index":0,"start":0,"end":1.5,"text":"hello","speech":{"word_count":1,"confidence":0.9}}]}`)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "call.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0o644))

	sents, err := NewHTTP(time.Second).Transcribe(context.Background(), srv.URL, path)
	require.NoError(t, err)
	require.Len(t, sents, 1)
	assert.Equal(t, "hello", sents[0].Text)
	assert.Equal(t, 1, sents[0].Speech.WordCount)
}

func TestTranscribeServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "call.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0o644))

	_, err := NewHTTP(time.Second).Transcribe(context.Background(), srv.URL, path)
	assert.ErrorContains(t, err, "transcribe 503")
	assert.ErrorContains(t, err, "model not loaded")
}

func TestExtractMarkers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/extract", r.URL.Path)
		var req ExtractReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []ExtractSentence{{0, "hi"}, {1, "that's $40"}}, req.Sentences)

		io.WriteString(w, `{"sentences":[{"sentence_index":1,"markers":[{"type":"financial_entity","category":"currency_amount","matched_text":"$40"}]}]}`)
	}))
	defer srv.Close()

	idx, err := NewHTTP(0).ExtractMarkers(context.Background(), srv.URL, []transcript.Sentence{
		{Index: 0, Text: "hi"},
		{Index: 1, Text: "that's $40"},
	})
	require.NoError(t, err)
	assert.True(t, idx.HasCategory(1, markers.CategoryCurrencyAmount))
	assert.Equal(t, 2, idx.Span())
}

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/complete", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		var req CompletionReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "m1", req.Model)
		io.WriteString(w, `{"text":"{}","model":"m1"}`)
	}))
	defer srv.Close()

	out, err := NewHTTP(time.Second).Complete(context.Background(), srv.URL, "k", CompletionReq{Model: "m1", Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "{}", out.Text)
}

func TestCompleteMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `not json`)
	}))
	defer srv.Close()

	_, err := NewHTTP(time.Second).Complete(context.Background(), srv.URL, "", CompletionReq{Prompt: "p"})
	assert.ErrorContains(t, err, "complete decode")
}
