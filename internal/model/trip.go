package model

import (
	"encoding/json"
	"time"
)

// Trip はAIが生成した旅行プランを表す。
// 生成後に本スライスから変更されることはない。
type Trip struct {
	ID             string
	UserID         string
	Name           string
	TripDetails    json.RawMessage // 生成された旅程（構造はTripDetailsを参照）
	ImageURLs      []string
	Tags           []string
	EstimatedPrice string // 表示用の価格文字列（例: "$1,200"）
	CreatedAt      time.Time
}

// TripDetails は生成された旅程の構造を表す。
// Trip.TripDetailsにJSONとして格納される。
type TripDetails struct {
	Name            string       `json:"name"`
	Description     string       `json:"description"`
	EstimatedPrice  string       `json:"estimatedPrice"`
	Duration        int          `json:"duration"`
	Budget          string       `json:"budget"`
	TravelStyle     string       `json:"travelStyle"`
	Country         string       `json:"country"`
	Interests       string       `json:"interests"`
	GroupType       string       `json:"groupType"`
	BestTimeToVisit []string     `json:"bestTimeToVisit"`
	WeatherInfo     []string     `json:"weatherInfo"`
	Location        TripLocation `json:"location"`
	Itinerary       []DayPlan    `json:"itinerary"`
}

// TripLocation は旅行先の位置情報を表す。
type TripLocation struct {
	City          string    `json:"city"`
	Coordinates   []float64 `json:"coordinates"`
	OpenStreetMap string    `json:"openStreetMap"`
}

// DayPlan は旅程の1日分を表す。
type DayPlan struct {
	Day        int        `json:"day"`
	Location   string     `json:"location"`
	Activities []Activity `json:"activities"`
}

// Activity は旅程内の1つのアクティビティを表す。
type Activity struct {
	Time        string `json:"time"`
	Description string `json:"description"`
}

// TripRequest は旅行プラン生成のリクエストを表す。
type TripRequest struct {
	Country      string `json:"country"`
	NumberOfDays int    `json:"numberOfDays"`
	TravelStyle  string `json:"travelStyle"`
	Interests    string `json:"interests"`
	Budget       string `json:"budget"`
	GroupType    string `json:"groupType"`
}
