package domain

import (
	"fmt"
	"strings"
	"time"
)

type Tour struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	Price       float64    `json:"price"`
	StartDate   time.Time  `json:"startDate"`
	EndDate     time.Time  `json:"endDate"`
	Capacity    int        `json:"capacity"`
	ImageURL    *string    `json:"imageUrl,omitempty"`
	Category    string     `json:"category"`
	GuideID     *string    `json:"guideId,omitempty"`
	Guide       *UserInfo  `json:"guide,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type CreateTourRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Price       float64   `json:"price"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Capacity    int       `json:"capacity"`
	ImageURL    *string   `json:"imageUrl,omitempty"`
	Category    string    `json:"category"`
}

type UpdateTourRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Location    *string    `json:"location,omitempty"`
	Price       *float64   `json:"price,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	Capacity    *int       `json:"capacity,omitempty"`
	ImageURL    *string    `json:"imageUrl,omitempty"`
	Category    *string    `json:"category,omitempty"`
}

// Tour sort keys accepted by the list endpoint.
var validTourSorts = map[string]string{
	"createdAt": "created_at",
	"price":     "price",
	"startDate": "start_date",
	"title":     "title",
}

type TourQuery struct {
	Search    string
	Category  string
	Location  string
	MinPrice  *float64
	MaxPrice  *float64
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// SortColumn maps the requested sort key to a column name, defaulting to
// created_at for anything unrecognized.
func (q *TourQuery) SortColumn() string {
	if col, ok := validTourSorts[q.SortBy]; ok {
		return col
	}
	return "created_at"
}

func (q *TourQuery) SortDirection() string {
	if strings.EqualFold(q.SortOrder, "asc") {
		return "ASC"
	}
	return "DESC"
}

func (r *CreateTourRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(r.Location) == "" {
		return fmt.Errorf("location is required")
	}
	if strings.TrimSpace(r.Category) == "" {
		return fmt.Errorf("category is required")
	}
	if r.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	if r.Capacity <= 0 {
		return fmt.Errorf("capacity must be positive")
	}
	if !r.EndDate.After(r.StartDate) {
		return fmt.Errorf("end date must be after start date")
	}
	return nil
}

// Validate checks an update against the current tour: a patch may move one
// end of the date range, and the resulting range must stay valid.
func (r *UpdateTourRequest) Validate(current *Tour) error {
	start := current.StartDate
	end := current.EndDate
	if r.StartDate != nil {
		start = *r.StartDate
	}
	if r.EndDate != nil {
		end = *r.EndDate
	}
	if !end.After(start) {
		return fmt.Errorf("end date must be after start date")
	}
	if r.Price != nil && *r.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	if r.Capacity != nil && *r.Capacity <= 0 {
		return fmt.Errorf("capacity must be positive")
	}
	return nil
}

type TourStatistics struct {
	TotalTours      int            `json:"totalTours"`
	TotalCategories int            `json:"totalCategories"`
	AveragePrice    float64        `json:"averagePrice"`
	UpcomingTours   int            `json:"upcomingTours"`
	OngoingTours    int            `json:"ongoingTours"`
	CompletedTours  int            `json:"completedTours"`
	ToursByCategory map[string]int `json:"toursByCategory"`
}

type SearchSuggestions struct {
	Locations []string `json:"locations"`
	Titles    []string `json:"titles"`
}
