package handler

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bhushangy/natours-api/internal/apperror"
	"github.com/bhushangy/natours-api/internal/model"
	"github.com/bhushangy/natours-api/internal/query"
	"github.com/bhushangy/natours-api/internal/repository"
	"github.com/bhushangy/natours-api/internal/utils"
)

// TourHandler bundles dependencies for the tour endpoints.
type TourHandler struct {
	Tours *repository.TourRepo
}

func NewTourHandler(tours *repository.TourRepo) *TourHandler {
	return &TourHandler{Tours: tours}
}

// ----- DTOs -----

type locationPart struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"` // [longitude, latitude]
	Address     string    `json:"address,omitempty"`
	Description string    `json:"description,omitempty"`
	Day         int       `json:"day,omitempty"`
}

func toLocationPart(l model.Location) locationPart {
	return locationPart{
		Type:        "Point",
		Coordinates: []float64{l.Longitude, l.Latitude},
		Address:     l.Address,
		Description: l.Description,
		Day:         l.Day,
	}
}

func (p locationPart) toModel() model.Location {
	l := model.Location{
		Type:        "Point",
		Address:     p.Address,
		Description: p.Description,
		Day:         p.Day,
	}
	if len(p.Coordinates) == 2 {
		l.Longitude, l.Latitude = p.Coordinates[0], p.Coordinates[1]
	}
	return l
}

// tourPart is the response shape. Fields carry omitempty so a projection
// narrowed by ?fields= returns only what was selected.
type tourPart struct {
	ID              uint64         `json:"id"`
	Name            string         `json:"name,omitempty"`
	Slug            string         `json:"slug,omitempty"`
	Duration        int            `json:"duration,omitempty"`
	DurationWeeks   float64        `json:"durationWeeks,omitempty"`
	MaxGroupSize    int            `json:"maxGroupSize,omitempty"`
	Difficulty      string         `json:"difficulty,omitempty"`
	RatingsAverage  float64        `json:"ratingsAverage,omitempty"`
	RatingsQuantity int            `json:"ratingsQuantity,omitempty"`
	Price           float64        `json:"price,omitempty"`
	PriceDiscount   *float64       `json:"priceDiscount,omitempty"`
	Summary         string         `json:"summary,omitempty"`
	Description     string         `json:"description,omitempty"`
	ImageCover      string         `json:"imageCover,omitempty"`
	Images          []string       `json:"images,omitempty"`
	CreatedAt       *time.Time     `json:"createdAt,omitempty"`
	StartDates      []time.Time    `json:"startDates,omitempty"`
	StartLocation   *locationPart  `json:"startLocation,omitempty"`
	Locations       []locationPart `json:"locations,omitempty"`
	Guides          []userPart     `json:"guides,omitempty"`
}

func toTourPart(t model.Tour) tourPart {
	p := tourPart{
		ID:              t.ID,
		Name:            t.Name,
		Slug:            t.Slug,
		Duration:        t.Duration,
		DurationWeeks:   t.DurationWeeks(),
		MaxGroupSize:    t.MaxGroupSize,
		Difficulty:      t.Difficulty,
		RatingsAverage:  t.RatingsAverage,
		RatingsQuantity: t.RatingsQuantity,
		Price:           t.Price,
		PriceDiscount:   t.PriceDiscount,
		Summary:         t.Summary,
		Description:     t.Description,
		ImageCover:      t.ImageCover,
		Images:          t.Images,
		StartDates:      t.StartDates,
	}
	if !t.CreatedAt.IsZero() {
		created := t.CreatedAt
		p.CreatedAt = &created
	}
	if t.StartLocation != nil {
		start := toLocationPart(*t.StartLocation)
		p.StartLocation = &start
	}
	for _, l := range t.Locations {
		p.Locations = append(p.Locations, toLocationPart(l))
	}
	for _, g := range t.Guides {
		p.Guides = append(p.Guides, toUserPart(g))
	}
	return p
}

// tourReq is the create/patch body. Every field is a pointer so a PATCH
// only touches what it names.
type tourReq struct {
	Name            *string         `json:"name"`
	Duration        *int            `json:"duration"`
	MaxGroupSize    *int            `json:"maxGroupSize"`
	Difficulty      *string         `json:"difficulty"`
	RatingsAverage  *float64        `json:"ratingsAverage"`
	Price           *float64        `json:"price"`
	PriceDiscount   *float64        `json:"priceDiscount"`
	Summary         *string         `json:"summary"`
	Description     *string         `json:"description"`
	ImageCover      *string         `json:"imageCover"`
	Images          *[]string       `json:"images"`
	StartDates      *[]time.Time    `json:"startDates"`
	Secret          *bool           `json:"secretTour"`
	StartLocation   *locationPart   `json:"startLocation"`
	Locations       *[]locationPart `json:"locations"`
	Guides          *[]uint64       `json:"guides"`
}

// apply merges the request onto a tour record; the slug is re-derived
// whenever the name changes (explicit pre-save step, no hidden hooks).
func (req tourReq) apply(t *model.Tour) {
	if req.Name != nil {
		t.Name = *req.Name
		t.Slug = utils.Slugify(t.Name)
	}
	if req.Duration != nil {
		t.Duration = *req.Duration
	}
	if req.MaxGroupSize != nil {
		t.MaxGroupSize = *req.MaxGroupSize
	}
	if req.Difficulty != nil {
		t.Difficulty = *req.Difficulty
	}
	if req.RatingsAverage != nil {
		t.RatingsAverage = *req.RatingsAverage
	}
	if req.Price != nil {
		t.Price = *req.Price
	}
	if req.PriceDiscount != nil {
		t.PriceDiscount = req.PriceDiscount
	}
	if req.Summary != nil {
		t.Summary = *req.Summary
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.ImageCover != nil {
		t.ImageCover = *req.ImageCover
	}
	if req.Images != nil {
		t.Images = *req.Images
	}
	if req.StartDates != nil {
		t.StartDates = *req.StartDates
	}
	if req.Secret != nil {
		t.Secret = *req.Secret
	}
	if req.StartLocation != nil {
		start := req.StartLocation.toModel()
		t.StartLocation = &start
	}
	if req.Locations != nil {
		t.Locations = nil
		for _, l := range *req.Locations {
			t.Locations = append(t.Locations, l.toModel())
		}
	}
	if req.Guides != nil {
		t.GuideIDs = *req.Guides
	}
}

// parseID parses a numeric path parameter. A malformed value is the
// relational counterpart of a cast error and comes back as 400.
func parseID(c echo.Context, name string) (uint64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Newf(http.StatusBadRequest, "Invalid %s: %s", name, raw)
	}
	return id, nil
}

// GetAllTours lists tours through the four-stage feature pipeline. Secret
// tours never appear; the repository excludes them on every listing path.
func (h *TourHandler) GetAllTours(c echo.Context) error {
	f := query.New(c.QueryParams(), repository.TourColumns).
		Filter().
		Sort().
		LimitFields().
		Paginate()

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	tours, err := h.Tours.List(ctx, f)
	if err != nil {
		return err
	}
	parts := make([]tourPart, 0, len(tours))
	for _, t := range tours {
		parts = append(parts, toTourPart(t))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"results": len(parts),
		"data":    echo.Map{"tours": parts},
	})
}

// AliasTopTours presets the query parameters for the top-5-cheap listing
// before handing over to GetAllTours.
func (h *TourHandler) AliasTopTours(c echo.Context) error {
	c.Request().URL.RawQuery = presetTopTours(c.QueryParams()).Encode()
	return h.GetAllTours(c)
}

// presetTopTours forces the alias window and projection; any other
// client-supplied parameters (extra filters) stay in effect.
func presetTopTours(params url.Values) url.Values {
	params.Set("limit", "5")
	params.Set("sort", "-ratingsAverage,price")
	params.Set("fields", "name,price,ratingsAverage,summary,difficulty")
	return params
}

// CreateTour validates and persists a new tour.
func (h *TourHandler) CreateTour(c echo.Context) error {
	var req tourReq
	if err := c.Bind(&req); err != nil {
		return apperror.New(http.StatusBadRequest, "Invalid request body")
	}
	t := model.Tour{RatingsAverage: 4.5}
	req.apply(&t)
	if err := model.ValidateTour(t); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	id, err := h.Tours.Create(ctx, t)
	if err != nil {
		return err
	}
	created, err := h.Tours.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"status": "success",
		"data":   echo.Map{"tour": toTourPart(created)},
	})
}

// GetTour fetches one tour with start dates, locations and resolved guides.
func (h *TourHandler) GetTour(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	t, err := h.Tours.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   echo.Map{"tour": toTourPart(t)},
	})
}

// UpdateTour merges a partial body onto the stored record, re-validates the
// result (so cross-field rules like discount < price see final values) and
// persists it.
func (h *TourHandler) UpdateTour(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req tourReq
	if err := c.Bind(&req); err != nil {
		return apperror.New(http.StatusBadRequest, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	t, err := h.Tours.GetByID(ctx, id)
	if err != nil {
		return err
	}
	req.apply(&t)
	if err := model.ValidateTour(t); err != nil {
		return err
	}
	if err := h.Tours.Update(ctx, t); err != nil {
		return err
	}
	updated, err := h.Tours.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   echo.Map{"tour": toTourPart(updated)},
	})
}

// DeleteTour removes a tour and its child rows.
func (h *TourHandler) DeleteTour(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Tours.Delete(ctx, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// GetTourStats returns per-difficulty aggregates over well-rated tours.
func (h *TourHandler) GetTourStats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	stats, err := h.Tours.Stats(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   echo.Map{"stats": stats},
	})
}

// GetMonthlyPlan groups the start dates of a year by month.
func (h *TourHandler) GetMonthlyPlan(c echo.Context) error {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1000 || year > 9999 {
		return apperror.Newf(http.StatusBadRequest, "Invalid year: %s", c.Param("year"))
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	plan, err := h.Tours.MonthlyPlan(ctx, year)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   echo.Map{"plan": plan},
	})
}
