package model

// MonthlyCount は当月・前月の件数の組を表す。
type MonthlyCount struct {
	CurrentMonth int `json:"currentMonth"`
	LastMonth    int `json:"lastMonth"`
}

// RoleCount はロール別ユーザー数の集計を表す。
// CurrentMonth/LastMonthは現状常に0（観測された元実装の簡略化を踏襲）。
type RoleCount struct {
	Total        int `json:"total"`
	CurrentMonth int `json:"currentMonth"`
	LastMonth    int `json:"lastMonth"`
}

// StatsSnapshot はリクエスト時点で計算される集計サマリを表す。
// 永続化されず、リクエストごとに再計算される。キャッシュも鮮度保証もない。
type StatsSnapshot struct {
	TotalUsers   int          `json:"totalUsers"`
	UsersJoined  MonthlyCount `json:"usersJoined"`
	TotalTrips   int          `json:"totalTrips"`
	TripsCreated MonthlyCount `json:"tripsCreated"`
	UserRole     RoleCount    `json:"userRole"`
}
