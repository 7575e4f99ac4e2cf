package trip

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/tripnavi/internal/model"
	"github.com/hitoshi/tripnavi/internal/repository"
	"github.com/hitoshi/tripnavi/internal/security"
)

// --- モック定義 ---

type mockTripRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.Trip, error)
	createFn   func(ctx context.Context, trip *model.Trip) error
	listFn     func(ctx context.Context, limit, offset int) ([]*model.Trip, int, error)
}

func (m *mockTripRepo) FindByID(ctx context.Context, id string) (*model.Trip, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockTripRepo) Create(ctx context.Context, trip *model.Trip) error {
	if m.createFn != nil {
		return m.createFn(ctx, trip)
	}
	return nil
}

func (m *mockTripRepo) List(ctx context.Context, limit, offset int) ([]*model.Trip, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit, offset)
	}
	return nil, 0, nil
}

func (m *mockTripRepo) CountAll(_ context.Context) (int, error) { return 0, nil }

func (m *mockTripRepo) CountCreatedSince(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}

func (m *mockTripRepo) CountCreatedBetween(_ context.Context, _, _ time.Time) (int, error) {
	return 0, nil
}

type mockGenerator struct {
	generateFn func(ctx context.Context, tripReq *model.TripRequest) (*model.TripDetails, error)
}

func (m *mockGenerator) GenerateTripPlan(ctx context.Context, tripReq *model.TripRequest) (*model.TripDetails, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, tripReq)
	}
	return generatedDetails(), nil
}

type mockImageSearcher struct {
	searchFn func(ctx context.Context, query string) ([]string, error)
}

func (m *mockImageSearcher) SearchTripImages(ctx context.Context, query string) ([]string, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query)
	}
	return []string{"https://images.unsplash.com/photo-1"}, nil
}

type mockImageGuard struct {
	validateFn func(rawURL string) error
}

func (m *mockImageGuard) NewSafeClient(timeout time.Duration) *http.Client {
	return http.DefaultClient
}

func (m *mockImageGuard) ValidateImageURL(rawURL string) error {
	if m.validateFn != nil {
		return m.validateFn(rawURL)
	}
	return nil
}

// --- compile-time interface checks ---
var _ repository.TripRepository = (*mockTripRepo)(nil)
var _ PlanGenerator = (*mockGenerator)(nil)
var _ ImageSearcher = (*mockImageSearcher)(nil)
var _ security.ImageGuardService = (*mockImageGuard)(nil)

func generatedDetails() *model.TripDetails {
	return &model.TripDetails{
		Name:            "7-Day Temple Adventure in Japan",
		Description:     "A week exploring the temples of Kyoto and Nara.",
		EstimatedPrice:  "$1,200",
		Duration:        7,
		Budget:          "Budget",
		TravelStyle:     "Adventure",
		Country:         "Japan",
		Interests:       "Temples",
		GroupType:       "Solo",
		BestTimeToVisit: []string{"Spring: cherry blossoms"},
		WeatherInfo:     []string{"Spring: 10-20C"},
		Location: model.TripLocation{
			City:        "Kyoto",
			Coordinates: []float64{35.0116, 135.7681},
		},
		Itinerary: []model.DayPlan{
			{
				Day:      1,
				Location: "Kyoto",
				Activities: []model.Activity{
					{Time: "Morning", Description: "Arrival and check-in"},
				},
			},
		},
	}
}

func validRequest() *model.TripRequest {
	return &model.TripRequest{
		Country:      "Japan",
		NumberOfDays: 7,
		TravelStyle:  "Adventure",
		Interests:    "Temples",
		Budget:       "Budget",
		GroupType:    "Solo",
	}
}

func newTestService(repo *mockTripRepo, gen *mockGenerator, images *mockImageSearcher, guard *mockImageGuard) *Service {
	return NewService(repo, gen, images, security.NewTextSanitizer(), guard, ServiceConfig{
		GenerateTimeout: 60 * time.Second,
	})
}

// --- テスト ---

func TestCreateTrip_Success(t *testing.T) {
	ctx := context.Background()

	var saved *model.Trip
	repo := &mockTripRepo{
		createFn: func(ctx context.Context, trip *model.Trip) error {
			saved = trip
			return nil
		},
	}

	var searchQuery string
	images := &mockImageSearcher{
		searchFn: func(ctx context.Context, query string) ([]string, error) {
			searchQuery = query
			return []string{
				"https://images.unsplash.com/photo-1",
				"https://images.unsplash.com/photo-2",
				"https://images.unsplash.com/photo-3",
			}, nil
		},
	}

	svc := newTestService(repo, &mockGenerator{}, images, &mockImageGuard{})

	trip, err := svc.CreateTrip(ctx, "user-1", validRequest())
	if err != nil {
		t.Fatalf("CreateTrip() error = %v", err)
	}

	if trip.ID == "" {
		t.Error("expected non-empty trip ID")
	}
	if trip.UserID != "user-1" {
		t.Errorf("userID = %q, want %q", trip.UserID, "user-1")
	}
	if trip.Name != "7-Day Temple Adventure in Japan" {
		t.Errorf("name = %q", trip.Name)
	}
	if trip.EstimatedPrice != "$1,200" {
		t.Errorf("estimatedPrice = %q, want %q", trip.EstimatedPrice, "$1,200")
	}
	if len(trip.ImageURLs) != 3 {
		t.Errorf("expected 3 image URLs, got %d", len(trip.ImageURLs))
	}
	if len(trip.Tags) != 2 || trip.Tags[0] != "Temples" || trip.Tags[1] != "Adventure" {
		t.Errorf("tags = %v, want [Temples Adventure]", trip.Tags)
	}

	// 画像検索クエリに国名と興味が含まれること
	if searchQuery != "Japan Temples travel" {
		t.Errorf("search query = %q, want %q", searchQuery, "Japan Temples travel")
	}

	// 保存されたプラン詳細がJSONとしてパースできること
	if saved == nil {
		t.Fatal("expected trip to be saved")
	}
	var details model.TripDetails
	if err := json.Unmarshal(saved.TripDetails, &details); err != nil {
		t.Fatalf("saved trip details are not valid JSON: %v", err)
	}
	if details.Duration != 7 {
		t.Errorf("saved duration = %d, want 7", details.Duration)
	}
}

func TestCreateTrip_SanitizesGeneratedText(t *testing.T) {
	ctx := context.Background()

	gen := &mockGenerator{
		generateFn: func(ctx context.Context, tripReq *model.TripRequest) (*model.TripDetails, error) {
			details := generatedDetails()
			details.Name = `Trip<script>alert('xss')</script> to Japan`
			details.Itinerary[0].Activities[0].Description = `Visit <img src=x onerror=steal()> temple`
			return details, nil
		},
	}

	var saved *model.Trip
	repo := &mockTripRepo{
		createFn: func(ctx context.Context, trip *model.Trip) error {
			saved = trip
			return nil
		},
	}

	svc := newTestService(repo, gen, &mockImageSearcher{}, &mockImageGuard{})

	trip, err := svc.CreateTrip(ctx, "user-1", validRequest())
	if err != nil {
		t.Fatalf("CreateTrip() error = %v", err)
	}

	if strings.Contains(trip.Name, "<script") {
		t.Errorf("trip name should be sanitized: %q", trip.Name)
	}

	var details model.TripDetails
	if err := json.Unmarshal(saved.TripDetails, &details); err != nil {
		t.Fatalf("failed to parse saved details: %v", err)
	}
	if strings.Contains(details.Itinerary[0].Activities[0].Description, "<img") {
		t.Errorf("activity description should be sanitized: %q", details.Itinerary[0].Activities[0].Description)
	}
}

func TestCreateTrip_InvalidRequests_ReturnValidationError(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(&mockTripRepo{}, &mockGenerator{}, &mockImageSearcher{}, &mockImageGuard{})

	tests := []struct {
		name   string
		mutate func(r *model.TripRequest)
	}{
		{"国名が空", func(r *model.TripRequest) { r.Country = "" }},
		{"日数が0", func(r *model.TripRequest) { r.NumberOfDays = 0 }},
		{"日数が11", func(r *model.TripRequest) { r.NumberOfDays = 11 }},
		{"日数が負", func(r *model.TripRequest) { r.NumberOfDays = -1 }},
		{"旅行スタイルが空", func(r *model.TripRequest) { r.TravelStyle = "" }},
		{"興味が空", func(r *model.TripRequest) { r.Interests = "" }},
		{"予算が空", func(r *model.TripRequest) { r.Budget = "" }},
		{"グループ種別が空", func(r *model.TripRequest) { r.GroupType = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			_, err := svc.CreateTrip(ctx, "user-1", req)
			if err == nil {
				t.Fatal("expected validation error")
			}

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidTripRequest {
				t.Errorf("expected INVALID_TRIP_REQUEST error, got %v", err)
			}
		})
	}
}

func TestCreateTrip_BoundaryDays_Accepted(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(&mockTripRepo{}, &mockGenerator{}, &mockImageSearcher{}, &mockImageGuard{})

	for _, days := range []int{1, 10} {
		req := validRequest()
		req.NumberOfDays = days

		if _, err := svc.CreateTrip(ctx, "user-1", req); err != nil {
			t.Errorf("CreateTrip() with %d days error = %v", days, err)
		}
	}
}

func TestCreateTrip_GenerationFailure_ReturnsGenerateError(t *testing.T) {
	ctx := context.Background()

	gen := &mockGenerator{
		generateFn: func(ctx context.Context, tripReq *model.TripRequest) (*model.TripDetails, error) {
			return nil, errors.New("model overloaded")
		},
	}

	svc := newTestService(&mockTripRepo{}, gen, &mockImageSearcher{}, &mockImageGuard{})

	_, err := svc.CreateTrip(ctx, "user-1", validRequest())
	if err == nil {
		t.Fatal("expected error when generation fails")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeTripGenerateFailed {
		t.Errorf("expected TRIP_GENERATION_FAILED error, got %v", err)
	}
}

// 画像検索の失敗はプラン保存を妨げない
func TestCreateTrip_ImageSearchFailure_SavesWithoutImages(t *testing.T) {
	ctx := context.Background()

	images := &mockImageSearcher{
		searchFn: func(ctx context.Context, query string) ([]string, error) {
			return nil, errors.New("unsplash rate limited")
		},
	}

	var saved *model.Trip
	repo := &mockTripRepo{
		createFn: func(ctx context.Context, trip *model.Trip) error {
			saved = trip
			return nil
		},
	}

	svc := newTestService(repo, &mockGenerator{}, images, &mockImageGuard{})

	trip, err := svc.CreateTrip(ctx, "user-1", validRequest())
	if err != nil {
		t.Fatalf("CreateTrip() error = %v", err)
	}

	if saved == nil {
		t.Fatal("expected trip to be saved despite image search failure")
	}
	if len(trip.ImageURLs) != 0 {
		t.Errorf("expected no image URLs, got %v", trip.ImageURLs)
	}
}

func TestCreateTrip_UnsafeImageURLs_AreExcluded(t *testing.T) {
	ctx := context.Background()

	images := &mockImageSearcher{
		searchFn: func(ctx context.Context, query string) ([]string, error) {
			return []string{
				"https://images.unsplash.com/photo-1",
				"https://192.168.0.1/internal.jpg",
			}, nil
		},
	}

	guard := &mockImageGuard{
		validateFn: func(rawURL string) error {
			if strings.Contains(rawURL, "192.168") {
				return errors.New("blocked IP address")
			}
			return nil
		},
	}

	svc := newTestService(&mockTripRepo{}, &mockGenerator{}, images, guard)

	trip, err := svc.CreateTrip(ctx, "user-1", validRequest())
	if err != nil {
		t.Fatalf("CreateTrip() error = %v", err)
	}

	if len(trip.ImageURLs) != 1 || trip.ImageURLs[0] != "https://images.unsplash.com/photo-1" {
		t.Errorf("unsafe image should be excluded, got %v", trip.ImageURLs)
	}
}

func TestCreateTrip_SaveFailure_ReturnsError(t *testing.T) {
	ctx := context.Background()

	repo := &mockTripRepo{
		createFn: func(ctx context.Context, trip *model.Trip) error {
			return errors.New("db down")
		},
	}

	svc := newTestService(repo, &mockGenerator{}, &mockImageSearcher{}, &mockImageGuard{})

	_, err := svc.CreateTrip(ctx, "user-1", validRequest())
	if err == nil {
		t.Fatal("expected error when save fails")
	}
}

func TestGetTrip_Found_ReturnsTrip(t *testing.T) {
	ctx := context.Background()

	repo := &mockTripRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Trip, error) {
			return &model.Trip{ID: id, Name: "Trip"}, nil
		},
	}

	svc := newTestService(repo, &mockGenerator{}, &mockImageSearcher{}, &mockImageGuard{})

	trip, err := svc.GetTrip(ctx, "trip-1")
	if err != nil {
		t.Fatalf("GetTrip() error = %v", err)
	}
	if trip.ID != "trip-1" {
		t.Errorf("trip ID = %q, want %q", trip.ID, "trip-1")
	}
}

func TestGetTrip_NotFound_ReturnsNotFoundError(t *testing.T) {
	ctx := context.Background()

	svc := newTestService(&mockTripRepo{}, &mockGenerator{}, &mockImageSearcher{}, &mockImageGuard{})

	_, err := svc.GetTrip(ctx, "missing")
	if err == nil {
		t.Fatal("expected error for missing trip")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeTripNotFound {
		t.Errorf("expected TRIP_NOT_FOUND error, got %v", err)
	}
}

func TestListTrips_DelegatesToRepo(t *testing.T) {
	ctx := context.Background()

	repo := &mockTripRepo{
		listFn: func(ctx context.Context, limit, offset int) ([]*model.Trip, int, error) {
			if limit != 2 || offset != 0 {
				t.Errorf("List(%d, %d), want (2, 0)", limit, offset)
			}
			return []*model.Trip{{ID: "t4"}, {ID: "t3"}}, 5, nil
		},
	}

	svc := newTestService(repo, &mockGenerator{}, &mockImageSearcher{}, &mockImageGuard{})

	trips, total, err := svc.ListTrips(ctx, 2, 0)
	if err != nil {
		t.Fatalf("ListTrips() error = %v", err)
	}
	if len(trips) != 2 {
		t.Errorf("expected 2 trips, got %d", len(trips))
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
}

func TestListTrips_InvalidPagination_ReturnsValidationError(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(&mockTripRepo{}, &mockGenerator{}, &mockImageSearcher{}, &mockImageGuard{})

	tests := []struct {
		name   string
		limit  int
		offset int
	}{
		{"limitが0", 0, 0},
		{"limitが負", -1, 0},
		{"limitが上限超過", 101, 0},
		{"offsetが負", 10, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.ListTrips(ctx, tt.limit, tt.offset)
			if err == nil {
				t.Fatal("expected pagination error")
			}

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidPagination {
				t.Errorf("expected INVALID_PAGINATION error, got %v", err)
			}
		})
	}
}
