package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	openAIChatURL      = "https://api.openai.com/v1/chat/completions"
	defaultOpenAIModel = "gpt-4o-mini"
)

// OpenAITranslator translates text using OpenAI Chat API
type OpenAITranslator struct {
	apiKey     KeyResolver
	model      KeyResolver
	endpoint   string
	httpClient *http.Client
}

func NewOpenAITranslator(apiKey, model KeyResolver, client *http.Client) *OpenAITranslator {
	return &OpenAITranslator{apiKey: apiKey, model: model, endpoint: openAIChatURL, httpClient: client}
}

func (o *OpenAITranslator) Name() string {
	return "openai"
}

func (o *OpenAITranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	key := resolve(o.apiKey)
	if key == "" {
		return "", fmt.Errorf("openai: %w", ErrMissingKey)
	}
	model := resolve(o.model)
	if model == "" {
		model = defaultOpenAIModel
	}

	reqBody := map[string]any{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt(source, target)},
			{"role": "user", "content": text},
		},
		"temperature": 0.2,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+key)

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("OpenAI API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", &apiError{Engine: "openai", Status: resp.StatusCode, Body: truncate(string(body), 256)}
	}

	var chatResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(chatResp.Choices) == 0 || strings.TrimSpace(chatResp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("empty OpenAI response")
	}
	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}
