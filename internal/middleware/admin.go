package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/tripnavi/internal/model"
)

// ProfileFinder は管理者判定に必要なプロフィール検索のインターフェース。
// repository.ProfileRepositoryの部分集合として定義する。
type ProfileFinder interface {
	FindByID(ctx context.Context, id string) (*model.Profile, error)
}

// NewAdminMiddleware は管理者ロールを要求するミドルウェアを返す。
// SessionMiddlewareの後に配置すること。
// 管理者でないユーザーはフロントエンドのトップページへリダイレクトされる。
func NewAdminMiddleware(profileFinder ProfileFinder, baseURL string) func(next http.Handler) http.Handler {
	redirectURL := fmt.Sprintf("%s/?error=unauthorized", baseURL)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := UserIDFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			profile, err := profileFinder.FindByID(r.Context(), userID)
			if err != nil {
				slog.Error("failed to load profile for admin check",
					slog.String("user_id", userID),
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}

			if !profile.IsAdmin() {
				slog.Warn("non-admin access to admin route",
					slog.String("user_id", userID),
					slog.String("path", r.URL.Path),
				)
				http.Redirect(w, r, redirectURL, http.StatusFound)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
