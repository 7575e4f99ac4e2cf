// Package payment はStripeによる決済リンクの発行機能を提供する。
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	// defaultStripeBaseURL はStripe APIのベースURL。
	defaultStripeBaseURL = "https://api.stripe.com/v1"
)

// StripeAPI はStripe APIの呼び出しインターフェース。
type StripeAPI interface {
	// CreateProduct は商品を作成し、商品IDを返す。
	CreateProduct(ctx context.Context, name, description string, images []string) (string, error)
	// CreatePrice は商品の価格（USDのマイナー単位）を作成し、価格IDを返す。
	CreatePrice(ctx context.Context, productID string, unitAmount int64) (string, error)
	// CreatePaymentLink は決済リンクを作成し、リンクURLを返す。
	CreatePaymentLink(ctx context.Context, priceID, tripID, redirectURL string) (string, error)
}

// StripeClient はStripe APIのクライアント。
// フォームエンコードされたリクエストでStripe REST APIを直接呼び出す。
type StripeClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	secretKey  string
	baseURL    string // テスト用にベースURLを差し替え可能
}

// NewStripeClient はStripeClientの新しいインスタンスを生成する。
func NewStripeClient(httpClient *http.Client, logger *slog.Logger, secretKey string) *StripeClient {
	return &StripeClient{
		httpClient: httpClient,
		logger:     logger,
		secretKey:  secretKey,
		baseURL:    defaultStripeBaseURL,
	}
}

// stripeObject はStripe APIレスポンスのうち必要なフィールドのみを表す。
type stripeObject struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateProduct は商品を作成し、商品IDを返す。
func (c *StripeClient) CreateProduct(ctx context.Context, name, description string, images []string) (string, error) {
	data := url.Values{}
	data.Set("name", name)
	if description != "" {
		data.Set("description", description)
	}
	for i, img := range images {
		data.Set(fmt.Sprintf("images[%d]", i), img)
	}

	obj, err := c.post(ctx, "/products", data)
	if err != nil {
		return "", fmt.Errorf("商品の作成に失敗しました: %w", err)
	}
	return obj.ID, nil
}

// CreatePrice は商品の価格を作成し、価格IDを返す。
// unitAmountはUSDのマイナー単位（セント）で指定する。
func (c *StripeClient) CreatePrice(ctx context.Context, productID string, unitAmount int64) (string, error) {
	data := url.Values{}
	data.Set("product", productID)
	data.Set("unit_amount", strconv.FormatInt(unitAmount, 10))
	data.Set("currency", "usd")

	obj, err := c.post(ctx, "/prices", data)
	if err != nil {
		return "", fmt.Errorf("価格の作成に失敗しました: %w", err)
	}
	return obj.ID, nil
}

// CreatePaymentLink は決済リンクを作成し、リンクURLを返す。
// 決済完了後は指定されたURLへリダイレクトされる。
func (c *StripeClient) CreatePaymentLink(ctx context.Context, priceID, tripID, redirectURL string) (string, error) {
	data := url.Values{}
	data.Set("line_items[0][price]", priceID)
	data.Set("line_items[0][quantity]", "1")
	data.Set("metadata[tripId]", tripID)
	data.Set("after_completion[type]", "redirect")
	data.Set("after_completion[redirect][url]", redirectURL)

	obj, err := c.post(ctx, "/payment_links", data)
	if err != nil {
		return "", fmt.Errorf("決済リンクの作成に失敗しました: %w", err)
	}
	return obj.URL, nil
}

// post はStripe APIへフォームエンコードされたPOSTリクエストを送信する。
func (c *StripeClient) post(ctx context.Context, path string, data url.Values) (*stripeObject, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Stripe APIの呼び出しに失敗しました",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Stripe APIがエラーステータスを返しました",
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("Stripe APIがステータス %d を返しました: %s", resp.StatusCode, string(body))
	}

	var obj stripeObject
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	return &obj, nil
}

// compile-time interface check
var _ StripeAPI = (*StripeClient)(nil)
