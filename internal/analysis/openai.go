package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/techscope/internal/model"
)

// defaultOpenAIEndpoint はOpenAI互換APIのデフォルトエンドポイント。
const defaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"

// analyzeBodyPrefix は分析プロンプトに含める本文の最大文字数。
const analyzeBodyPrefix = 500

const systemPrompt = "You are a breaking news analyzer for tech industry news. Respond only with a JSON object."

// OpenAIAnalyzer はOpenAI互換APIを使用した重要度分析の実装。
// 応答の不備（タイムアウト、非JSON、不正な値）は全てAnalysisErrorとして返し、
// 呼び出し元がルールエンジンにフォールバックできるようにする。
type OpenAIAnalyzer struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

// NewOpenAIAnalyzer はOpenAIAnalyzerの新しいインスタンスを生成する。
// endpointが空の場合はOpenAIのデフォルトエンドポイントを使用する。
func NewOpenAIAnalyzer(endpoint, modelName, apiKey string, timeout time.Duration) *OpenAIAnalyzer {
	if endpoint == "" {
		endpoint = defaultOpenAIEndpoint
	}
	return &OpenAIAnalyzer{
		endpoint: endpoint,
		model:    modelName,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name は分析戦略の識別名を返す。
func (a *OpenAIAnalyzer) Name() string {
	return "openai"
}

// chatRequest / chatResponse はOpenAI Chat Completions APIのワイヤ形式。
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// analysisPayload はモデルに要求するJSON応答の形式。
type analysisPayload struct {
	ImportanceScore float64 `json:"importance_score"`
	IsCritical      bool    `json:"is_critical"`
	Sentiment       string  `json:"sentiment"`
	Reason          string  `json:"reason"`
}

// Analyze はOpenAI互換APIでタイトルと本文を分析する。
// impactはモデルの応答ではなくスコアから導出する（スコアとの整合性を保証するため）。
func (a *OpenAIAnalyzer) Analyze(ctx context.Context, title, body string, breaking bool) (model.Analysis, error) {
	if a.apiKey == "" {
		return model.Analysis{}, &model.AnalysisError{Strategy: a.Name(), Err: fmt.Errorf("API key is not configured")}
	}

	prompt := buildPrompt(title, body, breaking)

	reqBody, err := json.Marshal(chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   300,
		Temperature: 0.3,
	})
	if err != nil {
		return model.Analysis{}, &model.AnalysisError{Strategy: a.Name(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return model.Analysis{}, &model.AnalysisError{Strategy: a.Name(), Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return model.Analysis{}, &model.AnalysisError{Strategy: a.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return model.Analysis{}, &model.AnalysisError{
			Strategy: a.Name(),
			Err:      fmt.Errorf("API error %s: %s", resp.Status, strings.TrimSpace(string(errBody))),
		}
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return model.Analysis{}, &model.AnalysisError{Strategy: a.Name(), Err: err}
	}
	if len(chatResp.Choices) == 0 {
		return model.Analysis{}, &model.AnalysisError{Strategy: a.Name(), Err: fmt.Errorf("empty choices in response")}
	}

	var payload analysisPayload
	content := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return model.Analysis{}, &model.AnalysisError{Strategy: a.Name(), Err: fmt.Errorf("non-JSON model output: %w", err)}
	}

	score := clamp(payload.ImportanceScore, 0.0, 1.0)
	result := model.Analysis{
		Score:      score,
		IsCritical: payload.IsCritical,
		Sentiment:  model.Sentiment(payload.Sentiment),
		Impact:     model.ImpactForScore(score),
		Reason:     payload.Reason,
	}
	if result.Reason == "" {
		result.Reason = "Model-based analysis"
	}

	// 不正な列挙値はフォールバック対象として弾く
	if err := result.Validate(); err != nil {
		return model.Analysis{}, &model.AnalysisError{Strategy: a.Name(), Err: err}
	}

	return result, nil
}

// buildPrompt は分析プロンプトを組み立てる。本文は先頭500文字に切り詰める。
func buildPrompt(title, body string, breaking bool) string {
	runes := []rune(body)
	if len(runes) > analyzeBodyPrefix {
		body = string(runes[:analyzeBodyPrefix]) + "..."
	}

	kind := "tech news"
	if breaking {
		kind = "breaking tech news"
	}

	return fmt.Sprintf(`Analyze this %s for importance and criticality:

Title: %s
Content: %s

Analyze for:
1. Importance score (0.0-1.0): How significant is this news?
2. Criticality: Is this critical news that requires immediate attention?
3. Sentiment: positive, negative, or neutral
4. Reason: Brief explanation of the analysis

Return only a JSON object with:
{"importance_score": float, "is_critical": boolean, "sentiment": "positive|negative|neutral", "reason": "brief explanation"}`,
		kind, title, body)
}

// compile-time interface check
var _ Analyzer = (*OpenAIAnalyzer)(nil)
