// Package facts は日次の技術豆知識の生成とローテーションを提供する。
package facts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/techscope/internal/model"
)

// Generator は豆知識の生成インターフェース。
type Generator interface {
	// Generate は指定カテゴリの豆知識を1件生成する。
	Generate(ctx context.Context, category model.FactCategory) (*model.Fact, error)
}

// categoryTopics はプロンプトに埋め込むカテゴリ別のトピック説明。
var categoryTopics = map[model.FactCategory]string{
	model.FactCategoryCS:        "computer science concepts, algorithms, data structures",
	model.FactCategoryAI:        "artificial intelligence, machine learning, neural networks",
	model.FactCategoryTech:      "technology companies, innovations, tech history",
	model.FactCategoryCompanies: "tech companies, founders, company facts",
}

// OpenAIGenerator はOpenAI互換APIで豆知識を生成するGenerator実装。
type OpenAIGenerator struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

// NewOpenAIGenerator はOpenAIGeneratorの新しいインスタンスを生成する。
func NewOpenAIGenerator(endpoint, modelName, apiKey string, timeout time.Duration) *OpenAIGenerator {
	if endpoint == "" {
		endpoint = "https://api.openai.com/v1/chat/completions"
	}
	return &OpenAIGenerator{
		endpoint: endpoint,
		model:    modelName,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

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

// Generate はOpenAI互換APIで豆知識を生成する。
func (g *OpenAIGenerator) Generate(ctx context.Context, category model.FactCategory) (*model.Fact, error) {
	if g.apiKey == "" {
		return nil, &model.AnalysisError{Strategy: "openai-fact", Err: fmt.Errorf("API key is not configured")}
	}

	topic, ok := categoryTopics[category]
	if !ok {
		topic = "technology"
	}

	prompt := fmt.Sprintf(`Generate an interesting, educational fact about %s.
The fact should be:
- Accurate and verifiable
- Engaging and surprising
- Related to computer science, AI, or technology
- Suitable for a daily newsletter

Return only the fact text, nothing else.`, topic)

	reqBody, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a tech fact generator for a daily newsletter."},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   150,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, &model.AnalysisError{Strategy: "openai-fact", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, &model.AnalysisError{Strategy: "openai-fact", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, &model.AnalysisError{Strategy: "openai-fact", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &model.AnalysisError{
			Strategy: "openai-fact",
			Err:      fmt.Errorf("API error %s: %s", resp.Status, strings.TrimSpace(string(errBody))),
		}
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, &model.AnalysisError{Strategy: "openai-fact", Err: err}
	}
	if len(chatResp.Choices) == 0 {
		return nil, &model.AnalysisError{Strategy: "openai-fact", Err: fmt.Errorf("empty choices in response")}
	}

	text := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if text == "" {
		return nil, &model.AnalysisError{Strategy: "openai-fact", Err: fmt.Errorf("empty fact text")}
	}

	return &model.Fact{
		Text:     text,
		Category: category,
		Source:   "AI Generated",
	}, nil
}

// FallbackGenerator は組み込みの豆知識データベースから選ぶGenerator実装。
// 外部サービスが利用できない場合に使用する。失敗しない。
type FallbackGenerator struct {
	rng *rand.Rand
}

// NewFallbackGenerator はFallbackGeneratorの新しいインスタンスを生成する。
func NewFallbackGenerator() *FallbackGenerator {
	return &FallbackGenerator{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// fallbackFacts はカテゴリ別の組み込み豆知識。
var fallbackFacts = map[model.FactCategory][]string{
	model.FactCategoryCS: {
		"The first computer bug was an actual bug - a moth found in the Harvard Mark II computer in 1947.",
		"The term 'algorithm' comes from the name of Persian mathematician Al-Khwarizmi.",
		"The first programming language was FORTRAN, created in 1957 by IBM.",
	},
	model.FactCategoryAI: {
		"The term 'Artificial Intelligence' was first coined at a conference at Dartmouth College in 1956.",
		"The first AI program was written in 1951 to play checkers.",
		"Machine learning algorithms can now detect patterns invisible to the human eye.",
	},
	model.FactCategoryTech: {
		"The first iPhone was announced by Steve Jobs in 2007, revolutionizing mobile computing.",
		"Google was originally called 'Backrub' before being renamed in 1997.",
		"The first email was sent in 1971 by Ray Tomlinson, who also introduced the @ symbol.",
	},
	model.FactCategoryCompanies: {
		"Microsoft was founded in 1975 by Bill Gates and Paul Allen in a garage.",
		"Apple was founded on April 1, 1976, by Steve Jobs, Steve Wozniak, and Ronald Wayne.",
		"Amazon started as an online bookstore in 1994 before becoming the e-commerce giant.",
	},
}

// Generate は組み込みデータベースからランダムに1件選ぶ。エラーを返すことはない。
func (g *FallbackGenerator) Generate(ctx context.Context, category model.FactCategory) (*model.Fact, error) {
	candidates, ok := fallbackFacts[category]
	if !ok {
		candidates = fallbackFacts[model.FactCategoryTech]
	}

	return &model.Fact{
		Text:     candidates[g.rng.Intn(len(candidates))],
		Category: category,
		Source:   "Fallback Database",
	}, nil
}

// compile-time interface check
var _ Generator = (*OpenAIGenerator)(nil)
var _ Generator = (*FallbackGenerator)(nil)
