package sandbox

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_PostsCodeAndLanguage(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		resp := Response{Status: StatusSuccess, RunResult: RunResult{Stdout: "42\n"}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := New(srv.URL)
	resp, err := client.Run(context.Background(), "print(42)", "python")
	require.NoError(t, err)

	assert.Equal(t, "print(42)", got.Code)
	assert.Equal(t, "python", got.Language)
	assert.True(t, resp.Succeeded())
}

func TestRun_NonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	client := New(srv.URL)
	_, err := client.Run(context.Background(), "x", "python")
	assert.Error(t, err)
}

func TestAnswerPresent(t *testing.T) {
	ok := &Response{Status: StatusSuccess, RunResult: RunResult{Stdout: "the answer is 42 exactly"}}
	failed := &Response{Status: StatusError, RunResult: RunResult{Stdout: "42"}}

	assert.True(t, AnswerPresent(ok, "42"))
	assert.False(t, AnswerPresent(ok, "99"))
	assert.False(t, AnswerPresent(failed, "42"), "a failed run never satisfies the answer check")
	assert.False(t, AnswerPresent(ok, ""))
}
