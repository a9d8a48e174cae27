// Package service 提供业务逻辑层的实现
// 服务层封装具体的业务逻辑，协调 Repository 和外部服务
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AlangGY/dream-catcher-server/internal/config"
	"github.com/AlangGY/dream-catcher-server/internal/model"
)

// 访谈对话的系统指令
// AI 扮演倾听用户梦境故事的咨询师，通过追问引导用户补全细节
const interviewInstructions = "你是一位倾听用户梦境故事的咨询师。" +
	"认真倾听用户讲述的梦境，并针对梦的细节提出简短的追问，" +
	"引导用户回忆出更多内容。每次只问一个问题。"

// 访谈结束时生成结果摘要的指令
const summaryInstructions = "访谈已经结束。请根据整个对话内容，" +
	"用两三句话总结这个梦可能反映的心理状态，直接给出结论。"

// 梦境日记分析的系统指令
// 要求模型输出符合固定结构的 JSON
const analysisInstructions = "你是一位梦境分析师。请分析用户的梦境日记，" +
	"并只输出一个 JSON 对象，包含以下字段：" +
	`keywords（字符串数组，关键词列表）、clarity（整数，梦的清晰度，1-5 分）、` +
	`vividness（整数，梦的鲜明度，1-5 分）、interpretation（字符串，梦境解读）。`

// ChatResult AI 对话调用的结果
type ChatResult struct {
	// Output 生成的文本
	Output string
	// ResponseID 本次响应的续接令牌，下一轮对话时回传
	// 不透明字符串，不要解析其内容
	ResponseID string
}

// ChatClient AI 对话服务的抽象
// 访谈状态机只依赖此接口，测试时注入假实现
type ChatClient interface {
	// ChatForDreamInterview 发送一轮访谈输入，返回 AI 的回复
	// previousResponseID 为空表示新对话
	ChatForDreamInterview(ctx context.Context, input, previousResponseID string) (*ChatResult, error)

	// SummarizeInterview 基于续接令牌对整个访谈生成结果摘要
	SummarizeInterview(ctx context.Context, previousResponseID string) (*ChatResult, error)

	// AnalyzeDream 对一篇梦境日记生成结构化分析
	AnalyzeDream(ctx context.Context, dream *model.Dream) (*model.DreamAnalysis, error)
}

// OpenAIService 基于 OpenAI API 的 ChatClient 实现
// 访谈走 Responses API（previous_response_id 续接上下文），
// 日记分析走 Chat Completions（JSON 输出）
type OpenAIService struct {
	config *config.Config
	client *http.Client
}

// NewOpenAIService 创建 OpenAIService 实例
func NewOpenAIService(cfg *config.Config) *OpenAIService {
	return &OpenAIService{
		config: cfg,
		client: &http.Client{
			Timeout: 30 * time.Second, // 设置超时
		},
	}
}

// responsesRequest Responses API 请求结构
type responsesRequest struct {
	Model              string `json:"model"`
	Instructions       string `json:"instructions"`
	Input              string `json:"input"`
	PreviousResponseID string `json:"previous_response_id,omitempty"`
	Store              bool   `json:"store"`
}

// responsesResponse Responses API 响应结构
// output 是条目数组，文本在 message 条目的 output_text 内容里
type responsesResponse struct {
	ID     string `json:"id"`
	Output []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// ChatForDreamInterview 发送一轮访谈输入
// previousResponseID 原样透传，让 OpenAI 侧续接上下文，
// 本服务不重发历史消息
func (s *OpenAIService) ChatForDreamInterview(ctx context.Context, input, previousResponseID string) (*ChatResult, error) {
	return s.createResponse(ctx, interviewInstructions, input, previousResponseID)
}

// SummarizeInterview 生成访谈结果摘要
// 通过续接令牌让模型回顾整个对话
func (s *OpenAIService) SummarizeInterview(ctx context.Context, previousResponseID string) (*ChatResult, error) {
	return s.createResponse(ctx, summaryInstructions, "请总结这次访谈。", previousResponseID)
}

// createResponse 调用 Responses API 生成一条回复
func (s *OpenAIService) createResponse(ctx context.Context, instructions, input, previousResponseID string) (*ChatResult, error) {
	if s.config.OpenAI.APIKey == "" {
		return nil, errors.New("AI service not configured (missing API Key)")
	}

	reqBody := responsesRequest{
		Model:              s.config.OpenAI.Model,
		Instructions:       instructions,
		Input:              input,
		PreviousResponseID: previousResponseID,
		Store:              true,
	}

	var resp responsesResponse
	if err := s.post(ctx, "/responses", reqBody, &resp); err != nil {
		return nil, err
	}

	if resp.Error != nil {
		return nil, fmt.Errorf("AI service error: %s - %s", resp.Error.Type, resp.Error.Message)
	}

	// 提取第一段 output_text
	output := ""
	for _, item := range resp.Output {
		for _, content := range item.Content {
			if content.Type == "output_text" && content.Text != "" {
				output = strings.TrimSpace(content.Text)
				break
			}
		}
		if output != "" {
			break
		}
	}
	if output == "" {
		return nil, errors.New("AI returned no content")
	}

	return &ChatResult{
		Output:     output,
		ResponseID: resp.ID,
	}, nil
}

// chatCompletionRequest Chat Completions API 请求结构
type chatCompletionRequest struct {
	Model          string                  `json:"model"`
	Messages       []chatCompletionMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionResponse Chat Completions API 响应结构
type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// AnalyzeDream 分析一篇梦境日记
// 使用 JSON 输出模式，解析为结构化结果
func (s *OpenAIService) AnalyzeDream(ctx context.Context, dream *model.Dream) (*model.DreamAnalysis, error) {
	if s.config.OpenAI.APIKey == "" {
		return nil, errors.New("AI service not configured (missing API Key)")
	}

	userContent := fmt.Sprintf("日期: %s\n标题: %s\n情绪: %s\n内容: %s",
		dream.Date, dream.Title, dream.Mood, dream.Content)

	reqBody := chatCompletionRequest{
		Model: s.config.OpenAI.Model,
		Messages: []chatCompletionMessage{
			{Role: "system", Content: analysisInstructions},
			{Role: "user", Content: userContent},
		},
	}
	reqBody.ResponseFormat.Type = "json_object"

	var resp chatCompletionResponse
	if err := s.post(ctx, "/chat/completions", reqBody, &resp); err != nil {
		return nil, err
	}

	if resp.Error != nil {
		return nil, fmt.Errorf("AI service error: %s - %s", resp.Error.Type, resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("AI returned no content")
	}

	var analysis model.DreamAnalysis
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse AI analysis: %w", err)
	}

	return &analysis, nil
}

// post 发送 JSON 请求并解析响应
func (s *OpenAIService) post(ctx context.Context, path string, reqBody, respBody interface{}) error {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	url := strings.TrimSuffix(s.config.OpenAI.BaseURL, "/") + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.config.OpenAI.APIKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to call AI service: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("AI service returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.Unmarshal(bodyBytes, respBody); err != nil {
		return fmt.Errorf("failed to parse AI response: %w", err)
	}
	return nil
}
