package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestDataURLRoundTrip(t *testing.T) {
	data := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}
	url := DataURL("image/png", data)
	assert.Contains(t, url, "data:image/png;base64,")

	mimeType, decoded, err := ParseDataURL(url)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType)
	assert.Equal(t, data, decoded)
}

func TestParseDataURLInvalid(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{name: "no_prefix", url: "image/png;base64,AAAA"},
		{name: "no_comma", url: "data:image/png;base64"},
		{name: "not_base64", url: "data:text/plain,hello"},
		{name: "bad_payload", url: "data:image/png;base64,@@@"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseDataURL(tt.url)
			assert.Error(t, err)
		})
	}
}

func TestParseOptions(t *testing.T) {
	s, err := ParseOptions(map[string]any{
		"temperature": 1,
		"top_p":       "0.5",
		"max_tokens":  256.0,
		"seed":        7,
		"timeout":     30,
		"unknown":     "ignored",
	})
	require.NoError(t, err)

	require.NotNil(t, s.Temperature)
	assert.Equal(t, float32(1), *s.Temperature)
	require.NotNil(t, s.TopP)
	assert.Equal(t, float32(0.5), *s.TopP)
	require.NotNil(t, s.MaxTokens)
	assert.Equal(t, 256, *s.MaxTokens)
	require.NotNil(t, s.Seed)
	assert.Equal(t, 7, *s.Seed)
	assert.Equal(t, 30*time.Second, s.Timeout)
	assert.Nil(t, s.PresencePenalty)

	s, err = ParseOptions(map[string]any{"timeout": "2m"})
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, s.Timeout)

	_, err = ParseOptions(map[string]any{"temperature": "quente"})
	assert.ErrorContains(t, err, "temperature")
}

func TestParseSeconds(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want time.Duration
	}{
		{name: "int", raw: 5, want: 5 * time.Second},
		{name: "float", raw: 1.5, want: 1500 * time.Millisecond},
		{name: "numeric_string", raw: "30", want: 30 * time.Second},
		{name: "numeric_string_spaces", raw: " 2 ", want: 2 * time.Second},
		{name: "duration_string", raw: "250ms", want: 250 * time.Millisecond},
		{name: "duration", raw: 3 * time.Second, want: 3 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSeconds(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseSeconds("logo")
	assert.Error(t, err)

	s, err := ParseOptions(map[string]any{"timeout": "30"})
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, s.Timeout)
}

func TestMergeOptions(t *testing.T) {
	base := map[string]any{"temperature": 0.2, "timeout": 10}
	merged := MergeOptions(base, map[string]any{"temperature": 1})

	assert.Equal(t, 1, merged["temperature"])
	assert.Equal(t, 10, merged["timeout"])
	assert.Equal(t, 0.2, base["temperature"], "base must not be mutated")
}

func TestBuildOpenAIRequest(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		req, timeout, err := buildOpenAIRequest(Request{
			Model:   "gpt-4o-mini",
			System:  "prompt",
			Text:    "hello",
			Format:  FormatJSONObject,
			Options: map[string]any{"timeout": "5s", "temperature": 0.3},
		})
		require.NoError(t, err)
		assert.Equal(t, 5*time.Second, timeout)
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
		assert.Equal(t, "prompt", req.Messages[0].Content)
		assert.Equal(t, "hello", req.Messages[1].Content)
		require.NotNil(t, req.ResponseFormat)
		assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, req.ResponseFormat.Type)
		assert.InDelta(t, 0.3, req.Temperature, 1e-6)
	})

	t.Run("image", func(t *testing.T) {
		url := DataURL("image/png", []byte{1, 2, 3})
		req, _, err := buildOpenAIRequest(Request{
			Model:    "gpt-4o-mini",
			System:   "prompt",
			ImageURL: url,
			Format:   FormatJSONObject,
			Options:  map[string]any{"max_tokens": 256, "top_p": 1},
		})
		require.NoError(t, err)
		user := req.Messages[1]
		assert.Empty(t, user.Content)
		require.Len(t, user.MultiContent, 1)
		assert.Equal(t, openai.ChatMessagePartTypeImageURL, user.MultiContent[0].Type)
		assert.Equal(t, url, user.MultiContent[0].ImageURL.URL)
		assert.Equal(t, 256, req.MaxTokens)
		assert.Equal(t, float32(1), req.TopP)
	})
}

func TestClassifyOpenAIError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		rateLimit bool
		auth      bool
	}{
		{name: "429", err: &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}, rateLimit: true},
		{name: "401", err: &openai.APIError{HTTPStatusCode: http.StatusUnauthorized}, auth: true},
		{name: "request_403", err: &openai.RequestError{HTTPStatusCode: http.StatusForbidden, Err: errors.New("x")}, auth: true},
		{name: "500", err: &openai.APIError{HTTPStatusCode: http.StatusInternalServerError}},
		{name: "network", err: errors.New("connection reset")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyOpenAIError(tt.err)
			assert.Equal(t, tt.rateLimit, IsRateLimited(got))
			assert.Equal(t, tt.auth, IsAuthentication(got))
		})
	}
}

func TestClassifyGeminiError(t *testing.T) {
	assert.True(t, IsRateLimited(classifyGeminiError(&googleapi.Error{Code: 429})))
	assert.True(t, IsAuthentication(classifyGeminiError(&googleapi.Error{Code: 403})))
	assert.True(t, IsRateLimited(classifyGeminiError(fmt.Errorf("rpc error: code = RESOURCE_EXHAUSTED"))))

	other := classifyGeminiError(&googleapi.Error{Code: 500})
	assert.False(t, IsRateLimited(other))
	assert.False(t, IsAuthentication(other))
}

func TestGeminiUserPart(t *testing.T) {
	part, err := geminiUserPart(Request{ImageURL: DataURL("image/jpeg", []byte{9})})
	require.NoError(t, err)
	assert.NotNil(t, part)

	_, err = geminiUserPart(Request{ImageURL: "https://example.com/a.png"})
	assert.Error(t, err)
}

func TestThrottled(t *testing.T) {
	calls := 0
	next := ClientFunc(func(ctx context.Context, req Request) (string, error) {
		calls++
		return "{}", nil
	})

	_, throttledZero := NewThrottled(next, 0).(*Throttled)
	assert.False(t, throttledZero, "zero rate disables throttling")

	throttled := NewThrottled(next, 1000)
	for i := 0; i < 3; i++ {
		out, err := throttled.Complete(context.Background(), Request{})
		require.NoError(t, err)
		assert.Equal(t, "{}", out)
	}
	assert.Equal(t, 3, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	slow := NewThrottled(next, 0.001)
	_, _ = slow.Complete(context.Background(), Request{}) // consome o burst
	_, err := slow.Complete(ctx, Request{})
	assert.Error(t, err)
	assert.Equal(t, 4, calls)
}
