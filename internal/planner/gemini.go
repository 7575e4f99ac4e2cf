// Package planner は旅行プランの自動生成機能を提供する。
// Gemini APIによるプラン生成とUnsplash APIによる画像検索を含む。
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/tripnavi/internal/model"
)

const (
	// defaultGeminiEndpoint はGemini generateContent APIのエンドポイント。
	defaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"
)

// GeminiClient はGemini APIのクライアント。
// 旅行条件からJSON形式の旅行プランを生成する。
type GeminiClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	endpoint   string // テスト用にエンドポイントを差し替え可能
}

// NewGeminiClient はGeminiClientの新しいインスタンスを生成する。
func NewGeminiClient(httpClient *http.Client, logger *slog.Logger, apiKey string) *GeminiClient {
	return &GeminiClient{
		httpClient: httpClient,
		logger:     logger,
		apiKey:     apiKey,
		endpoint:   defaultGeminiEndpoint,
	}
}

// geminiRequest はgenerateContent APIのリクエストボディ。
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

// geminiResponse はgenerateContent APIのレスポンスボディ。
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateTripPlan は旅行条件から旅行プランを生成する。
// 生成モデルの出力はマークダウンのコードフェンスで囲まれている場合があるため、
// フェンスを除去してからJSONとしてパースする。
func (c *GeminiClient) GenerateTripPlan(ctx context.Context, tripReq *model.TripRequest) (*model.TripDetails, error) {
	prompt := buildPrompt(tripReq)

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("リクエストボディの生成に失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(string(payload)))
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Gemini APIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
			slog.String("country", tripReq.Country),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Gemini APIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("country", tripReq.Country),
		)
		return nil, fmt.Errorf("Gemini APIがステータス %d を返しました", resp.StatusCode)
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("Gemini APIのレスポンスに生成結果が含まれていません")
	}

	text := stripCodeFences(geminiResp.Candidates[0].Content.Parts[0].Text)

	var details model.TripDetails
	if err := json.Unmarshal([]byte(text), &details); err != nil {
		c.logger.Error("生成された旅行プランのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("生成された旅行プランのパースに失敗しました: %w", err)
	}

	return &details, nil
}

// buildPrompt は旅行条件からGeminiへのプロンプトを構築する。
// レスポンスのJSONスキーマをプロンプト内で明示的に指定する。
func buildPrompt(tripReq *model.TripRequest) string {
	return fmt.Sprintf(`Generate a %d-day travel itinerary for %s based on the following user information:
Budget: %s
Interests: %s
TravelStyle: %s
GroupType: %s
Return the itinerary and lowest estimated price in a clean, non-markdown JSON format with the following structure:
{
  "name": "A descriptive title for the trip",
  "description": "A brief description of the trip and its highlights not exceeding 100 words",
  "estimatedPrice": "Lowest average price for the trip in USD, e.g. $price",
  "duration": %d,
  "budget": "%s",
  "travelStyle": "%s",
  "country": "%s",
  "interests": "%s",
  "groupType": "%s",
  "bestTimeToVisit": ["season1: reason", "season2: reason", "season3: reason", "season4: reason"],
  "weatherInfo": ["season1: temperature range", "season2: temperature range", "season3: temperature range", "season4: temperature range"],
  "location": {
    "city": "name of the city or region",
    "coordinates": [latitude, longitude],
    "openStreetMap": "link to open street map"
  },
  "itinerary": [
    {
      "day": 1,
      "location": "City/Region Name",
      "activities": [
        {"time": "Morning", "description": "activity description"},
        {"time": "Afternoon", "description": "activity description"},
        {"time": "Evening", "description": "activity description"}
      ]
    }
  ]
}`,
		tripReq.NumberOfDays, tripReq.Country,
		tripReq.Budget, tripReq.Interests, tripReq.TravelStyle, tripReq.GroupType,
		tripReq.NumberOfDays, tripReq.Budget, tripReq.TravelStyle,
		tripReq.Country, tripReq.Interests, tripReq.GroupType,
	)
}

// stripCodeFences はマークダウンのコードフェンス（```json ... ```）を除去する。
func stripCodeFences(text string) string {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
