// Package dashboard は管理者向けの集計統計機能を提供する。
package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/tripnavi/internal/model"
	"github.com/hitoshi/tripnavi/internal/repository"
)

// monthWindows は統計集計に使用する月単位の期間。
type monthWindows struct {
	startCurrent time.Time // 当月1日 00:00:00
	startPrev    time.Time // 前月1日 00:00:00
	endPrev      time.Time // 前月末日 00:00:00（両端含む）
}

// newMonthWindows は基準時刻から当月・前月の集計期間を導出する。
// 前月の終端は当月1日の前日の00:00:00であり、比較は両端を含む。
func newMonthWindows(now time.Time) monthWindows {
	startCurrent := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return monthWindows{
		startCurrent: startCurrent,
		startPrev:    startCurrent.AddDate(0, -1, 0),
		endPrev:      startCurrent.AddDate(0, 0, -1),
	}
}

// Service は統計集計に関するビジネスロジックを提供する。
type Service struct {
	profileRepo repository.ProfileRepository
	tripRepo    repository.TripRepository
	now         func() time.Time // テスト用に差し替え可能
}

// NewService はServiceを生成する。
func NewService(profileRepo repository.ProfileRepository, tripRepo repository.TripRepository) *Service {
	return &Service{
		profileRepo: profileRepo,
		tripRepo:    tripRepo,
		now:         time.Now,
	}
}

// GetStats はユーザーと旅行プランの統計スナップショットを取得する。
// 7つの集計クエリを並行実行し、1つでも失敗した場合は全体をエラーとする
// （部分的な統計は誤解を招くため返さない）。
func (s *Service) GetStats(ctx context.Context) (*model.StatsSnapshot, error) {
	windows := newMonthWindows(s.now())

	var (
		totalUsers        int
		currentMonthUsers int
		lastMonthUsers    int
		totalTrips        int
		currentMonthTrips int
		lastMonthTrips    int
		activeUsers       int
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		totalUsers, err = s.profileRepo.CountAll(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		currentMonthUsers, err = s.profileRepo.CountJoinedSince(gctx, windows.startCurrent)
		return err
	})
	g.Go(func() error {
		var err error
		lastMonthUsers, err = s.profileRepo.CountJoinedBetween(gctx, windows.startPrev, windows.endPrev)
		return err
	})
	g.Go(func() error {
		var err error
		totalTrips, err = s.tripRepo.CountAll(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		currentMonthTrips, err = s.tripRepo.CountCreatedSince(gctx, windows.startCurrent)
		return err
	})
	g.Go(func() error {
		var err error
		lastMonthTrips, err = s.tripRepo.CountCreatedBetween(gctx, windows.startPrev, windows.endPrev)
		return err
	})
	g.Go(func() error {
		var err error
		activeUsers, err = s.profileRepo.CountByStatus(gctx, model.StatusUser)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to collect stats: %w", err)
	}

	return &model.StatsSnapshot{
		TotalUsers: totalUsers,
		UsersJoined: model.MonthlyCount{
			CurrentMonth: currentMonthUsers,
			LastMonth:    lastMonthUsers,
		},
		UserRole: model.RoleCount{
			Total: activeUsers,
		},
		TotalTrips: totalTrips,
		TripsCreated: model.MonthlyCount{
			CurrentMonth: currentMonthTrips,
			LastMonth:    lastMonthTrips,
		},
	}, nil
}

// maxListLimit は一覧取得の1ページあたり最大件数。
const maxListLimit = 100

// ListUsers は登録日時降順のユーザーページと全体件数を返す。
func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*model.Profile, int, error) {
	if limit < 1 {
		return nil, 0, model.NewInvalidPaginationError(fmt.Sprintf("limitは1以上を指定してください: %d", limit))
	}
	if limit > maxListLimit {
		return nil, 0, model.NewInvalidPaginationError(fmt.Sprintf("limitは%d以下を指定してください: %d", maxListLimit, limit))
	}
	if offset < 0 {
		return nil, 0, model.NewInvalidPaginationError(fmt.Sprintf("offsetは0以上を指定してください: %d", offset))
	}

	profiles, total, err := s.profileRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return profiles, total, nil
}
