package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, trip, payment, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeAdminRequired      = "ADMIN_REQUIRED"
	ErrCodeTripNotFound       = "TRIP_NOT_FOUND"
	ErrCodeInvalidTripRequest = "INVALID_TRIP_REQUEST"
	ErrCodeTripGenerateFailed = "TRIP_GENERATION_FAILED"
	ErrCodePaymentFailed      = "PAYMENT_LINK_FAILED"
	ErrCodeImageURLBlocked    = "IMAGE_URL_BLOCKED"
	ErrCodeInvalidPagination  = "INVALID_PAGINATION"
	ErrCodeProfileWriteFailed = "PROFILE_WRITE_FAILED"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewAdminRequiredError は管理者権限が必要な操作への未許可アクセスエラーを生成する。
func NewAdminRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeAdminRequired,
		Message:  "この操作には管理者権限が必要です。",
		Category: "auth",
		Action:   "管理者アカウントでログインしてください。",
	}
}

// NewTripNotFoundError は旅行プラン未検出エラーを生成する。
func NewTripNotFoundError(tripID string) *APIError {
	return &APIError{
		Code:     ErrCodeTripNotFound,
		Message:  fmt.Sprintf("指定された旅行プランが見つかりません: %s", tripID),
		Category: "trip",
		Action:   "旅行プランのIDを確認してください。",
	}
}

// NewInvalidTripRequestError は旅行プラン生成リクエストの検証エラーを生成する。
func NewInvalidTripRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidTripRequest,
		Message:  fmt.Sprintf("旅行プランのリクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "すべての項目を入力し、日数は1〜10日の範囲で指定してください。",
	}
}

// NewTripGenerateFailedError は旅行プラン生成の失敗エラーを生成する。
func NewTripGenerateFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeTripGenerateFailed,
		Message:  fmt.Sprintf("旅行プランの生成に失敗しました: %s", reason),
		Category: "trip",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewPaymentFailedError は決済リンク発行の失敗エラーを生成する。
func NewPaymentFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodePaymentFailed,
		Message:  fmt.Sprintf("決済リンクの発行に失敗しました: %s", reason),
		Category: "payment",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewImageURLBlockedError は画像URLの検証失敗エラーを生成する。
func NewImageURLBlockedError(imageURL string) *APIError {
	return &APIError{
		Code:     ErrCodeImageURLBlocked,
		Message:  fmt.Sprintf("セキュリティポリシーにより、指定された画像URLは使用できません: %s", imageURL),
		Category: "validation",
		Action:   "公開されているhttpsの画像URLを指定してください。",
	}
}

// NewInvalidPaginationError はページネーションパラメータの検証エラーを生成する。
func NewInvalidPaginationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPagination,
		Message:  fmt.Sprintf("ページネーションのパラメータが不正です: %s", reason),
		Category: "validation",
		Action:   "limitは1以上、offsetは0以上を指定してください。",
	}
}
