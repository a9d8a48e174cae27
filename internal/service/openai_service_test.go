package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlangGY/dream-catcher-server/internal/config"
	"github.com/AlangGY/dream-catcher-server/internal/model"
)

func newOpenAIService(baseURL string) *OpenAIService {
	cfg := &config.Config{}
	cfg.OpenAI.APIKey = "test-key"
	cfg.OpenAI.Model = "gpt-4o-mini"
	cfg.OpenAI.BaseURL = baseURL
	return NewOpenAIService(cfg)
}

func TestChatForDreamInterview(t *testing.T) {
	var gotReq responsesRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/responses", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "resp-abc",
			"output": [
				{"type": "message", "content": [{"type": "output_text", "text": "  你在梦里看到了什么？  "}]}
			]
		}`))
	}))
	defer server.Close()

	svc := newOpenAIService(server.URL)
	result, err := svc.ChatForDreamInterview(context.Background(), "我做了一个梦。", "resp-prev")
	require.NoError(t, err)

	assert.Equal(t, "你在梦里看到了什么？", result.Output)
	assert.Equal(t, "resp-abc", result.ResponseID)

	// 续接令牌和输入原样透传
	assert.Equal(t, "resp-prev", gotReq.PreviousResponseID)
	assert.Equal(t, "我做了一个梦。", gotReq.Input)
	assert.True(t, gotReq.Store)
}

func TestChatForDreamInterview_OmitsEmptyPreviousID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		// 新对话不携带 previous_response_id 字段
		_, present := raw["previous_response_id"]
		assert.False(t, present)

		w.Write([]byte(`{"id": "resp-1", "output": [{"type": "message", "content": [{"type": "output_text", "text": "好的"}]}]}`))
	}))
	defer server.Close()

	svc := newOpenAIService(server.URL)
	_, err := svc.ChatForDreamInterview(context.Background(), "开始", "")
	require.NoError(t, err)
}

func TestChatForDreamInterview_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"type": "rate_limit", "message": "slow down"}}`))
	}))
	defer server.Close()

	svc := newOpenAIService(server.URL)
	_, err := svc.ChatForDreamInterview(context.Background(), "我做了一个梦。", "")
	assert.Error(t, err)
}

func TestChatForDreamInterview_EmptyOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "resp-1", "output": []}`))
	}))
	defer server.Close()

	svc := newOpenAIService(server.URL)
	_, err := svc.ChatForDreamInterview(context.Background(), "我做了一个梦。", "")
	assert.Error(t, err)
}

func TestChatForDreamInterview_MissingAPIKey(t *testing.T) {
	svc := NewOpenAIService(&config.Config{})
	_, err := svc.ChatForDreamInterview(context.Background(), "我做了一个梦。", "")
	assert.Error(t, err)
}

func TestSummarizeInterview(t *testing.T) {
	var gotReq responsesRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(`{"id": "resp-sum", "output": [{"type": "message", "content": [{"type": "output_text", "text": "这是一个关于寻找的梦。"}]}]}`))
	}))
	defer server.Close()

	svc := newOpenAIService(server.URL)
	result, err := svc.SummarizeInterview(context.Background(), "resp-last")
	require.NoError(t, err)

	assert.Equal(t, "这是一个关于寻找的梦。", result.Output)
	assert.Equal(t, "resp-last", gotReq.PreviousResponseID)
	assert.Equal(t, summaryInstructions, gotReq.Instructions)
}

func TestAnalyzeDream_ParsesJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "json_object", req.ResponseFormat.Type)
		require.Len(t, req.Messages, 2)

		w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "{\"keywords\": [\"海\", \"风\"], \"clarity\": 3, \"vividness\": 5, \"interpretation\": \"向往自由。\"}"}}]}`))
	}))
	defer server.Close()

	svc := newOpenAIService(server.URL)
	analysis, err := svc.AnalyzeDream(context.Background(), &model.Dream{
		Date:    "2026-08-29",
		Title:   "海边",
		Content: "我站在海边。",
		Mood:    "平静",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"海", "风"}, analysis.Keywords)
	assert.Equal(t, 3, analysis.Clarity)
	assert.Equal(t, 5, analysis.Vividness)
	assert.Equal(t, "向往自由。", analysis.Interpretation)
}

func TestAnalyzeDream_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "这不是 JSON"}}]}`))
	}))
	defer server.Close()

	svc := newOpenAIService(server.URL)
	_, err := svc.AnalyzeDream(context.Background(), &model.Dream{Title: "海边", Content: "内容"})
	assert.Error(t, err)
}
