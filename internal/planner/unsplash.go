package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
)

const (
	// defaultUnsplashEndpoint はUnsplash画像検索APIのエンドポイント。
	defaultUnsplashEndpoint = "https://api.unsplash.com/search/photos"
	// maxTripImages は旅行プラン1件に保存する画像URLの最大数。
	maxTripImages = 3
)

// UnsplashClient はUnsplash APIのクライアント。
// 旅行先に関連する画像URLを検索する。
type UnsplashClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	accessKey  string
	endpoint   string // テスト用にエンドポイントを差し替え可能
}

// NewUnsplashClient はUnsplashClientの新しいインスタンスを生成する。
func NewUnsplashClient(httpClient *http.Client, logger *slog.Logger, accessKey string) *UnsplashClient {
	return &UnsplashClient{
		httpClient: httpClient,
		logger:     logger,
		accessKey:  accessKey,
		endpoint:   defaultUnsplashEndpoint,
	}
}

// unsplashSearchResponse はUnsplash検索APIのレスポンス。
type unsplashSearchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
	} `json:"results"`
}

// SearchTripImages は検索クエリに合致する画像URLを最大3件取得する。
// 結果が3件未満の場合は取得できた分だけを返す。
// 取得失敗時はエラーを返す（呼び出し元が画像なしでの保存を判断する）。
func (c *UnsplashClient) SearchTripImages(ctx context.Context, query string) ([]string, error) {
	reqURL, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("エンドポイントURLのパースに失敗しました: %w", err)
	}

	q := reqURL.Query()
	q.Set("query", query)
	q.Set("per_page", fmt.Sprintf("%d", maxTripImages))
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Unsplash APIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
			slog.String("query", query),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Unsplash APIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("query", query),
		)
		return nil, fmt.Errorf("Unsplash APIがステータス %d を返しました", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	var searchResp unsplashSearchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	imageURLs := make([]string, 0, maxTripImages)
	for _, result := range searchResp.Results {
		if result.URLs.Regular == "" {
			continue
		}
		imageURLs = append(imageURLs, result.URLs.Regular)
		if len(imageURLs) == maxTripImages {
			break
		}
	}

	return imageURLs, nil
}
