package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bhushangy/natours-api/internal/model"
	"github.com/bhushangy/natours-api/internal/query"
)

// TourRepo owns access to the `tours` table and its child tables
// (tour_start_dates, tour_locations, tour_guides).
type TourRepo struct{ DB *sql.DB }

func NewTourRepo(db *sql.DB) *TourRepo { return &TourRepo{DB: db} }

// TourColumns is the whitelist handed to the query-feature pipeline: API
// field names on the left, columns on the right. Anything not listed here
// can never be filtered, sorted or projected by a client.
var TourColumns = []query.Column{
	{Name: "id", Col: "id"},
	{Name: "name", Col: "name"},
	{Name: "slug", Col: "slug"},
	{Name: "duration", Col: "duration"},
	{Name: "maxGroupSize", Col: "max_group_size"},
	{Name: "difficulty", Col: "difficulty"},
	{Name: "ratingsAverage", Col: "ratings_average"},
	{Name: "ratingsQuantity", Col: "ratings_quantity"},
	{Name: "price", Col: "price"},
	{Name: "priceDiscount", Col: "price_discount"},
	{Name: "summary", Col: "summary"},
	{Name: "description", Col: "description"},
	{Name: "imageCover", Col: "image_cover"},
	{Name: "images", Col: "images"},
	{Name: "createdAt", Col: "created_at"},
}

// List runs the fully built feature pipeline against the tours table.
// Secret tours are excluded here as an explicit step, not by implicit hook:
// every listing path goes through this method.
func (r *TourRepo) List(ctx context.Context, f *query.Features) ([]model.Tour, error) {
	cols := f.Columns()
	if len(cols) == 0 {
		for _, c := range TourColumns {
			cols = append(cols, c.Col)
		}
	}

	where := "secret = 0"
	cond, args := f.Where()
	if cond != "" {
		where += " AND " + cond
	}
	limit, offset := f.LimitOffset()

	q := fmt.Sprintf("SELECT %s FROM tours WHERE %s ORDER BY %s LIMIT ? OFFSET ?",
		strings.Join(cols, ","), where, f.OrderBy())
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Tour{}
	for rows.Next() {
		var t model.Tour
		var imagesJSON []byte
		if err := rows.Scan(scanTargets(&t, &imagesJSON, cols)...); err != nil {
			return nil, err
		}
		if err := decodeImages(imagesJSON, &t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// scanTargets maps selected columns onto Tour field pointers in projection
// order, so a narrowed SELECT scans into exactly the fields it named.
func scanTargets(t *model.Tour, imagesJSON *[]byte, cols []string) []any {
	targets := make([]any, 0, len(cols))
	for _, col := range cols {
		switch col {
		case "id":
			targets = append(targets, &t.ID)
		case "name":
			targets = append(targets, &t.Name)
		case "slug":
			targets = append(targets, &t.Slug)
		case "duration":
			targets = append(targets, &t.Duration)
		case "max_group_size":
			targets = append(targets, &t.MaxGroupSize)
		case "difficulty":
			targets = append(targets, &t.Difficulty)
		case "ratings_average":
			targets = append(targets, &t.RatingsAverage)
		case "ratings_quantity":
			targets = append(targets, &t.RatingsQuantity)
		case "price":
			targets = append(targets, &t.Price)
		case "price_discount":
			targets = append(targets, &t.PriceDiscount)
		case "summary":
			targets = append(targets, &t.Summary)
		case "description":
			targets = append(targets, &t.Description)
		case "image_cover":
			targets = append(targets, &t.ImageCover)
		case "images":
			targets = append(targets, imagesJSON)
		case "created_at":
			targets = append(targets, &t.CreatedAt)
		}
	}
	return targets
}

func decodeImages(raw []byte, t *model.Tour) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, &t.Images)
}

const tourCols = "id,name,slug,duration,max_group_size,difficulty,ratings_average,ratings_quantity,price,price_discount,summary,description,image_cover,images,created_at,secret"

func (r *TourRepo) scanTour(row *sql.Row) (model.Tour, error) {
	var t model.Tour
	var imagesJSON []byte
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Duration, &t.MaxGroupSize,
		&t.Difficulty, &t.RatingsAverage, &t.RatingsQuantity, &t.Price,
		&t.PriceDiscount, &t.Summary, &t.Description, &t.ImageCover,
		&imagesJSON, &t.CreatedAt, &t.Secret)
	if err != nil {
		return t, err
	}
	err = decodeImages(imagesJSON, &t)
	return t, err
}

// GetByID fetches one tour with its start dates, locations and resolved
// guides. Guides are weak references: the join resolves them at read time
// and only safe user columns travel back. Secret tours are served here;
// only listings and aggregates exclude them, so the create/update paths
// can re-read a secret tour they just wrote.
func (r *TourRepo) GetByID(ctx context.Context, id uint64) (model.Tour, error) {
	t, err := r.scanTour(r.DB.QueryRowContext(ctx,
		"SELECT "+tourCols+" FROM tours WHERE id=? LIMIT 1", id))
	if err != nil {
		return t, err
	}
	if err := r.loadStartDates(ctx, &t); err != nil {
		return t, err
	}
	if err := r.loadLocations(ctx, &t); err != nil {
		return t, err
	}
	if err := r.loadGuides(ctx, &t); err != nil {
		return t, err
	}
	return t, nil
}

func (r *TourRepo) loadStartDates(ctx context.Context, t *model.Tour) error {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT starts_at FROM tour_start_dates WHERE tour_id=? ORDER BY starts_at", t.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var d sql.NullTime
		if err := rows.Scan(&d); err != nil {
			return err
		}
		if d.Valid {
			t.StartDates = append(t.StartDates, d.Time)
		}
	}
	return rows.Err()
}

func (r *TourRepo) loadLocations(ctx context.Context, t *model.Tour) error {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT position, longitude, latitude, address, description, day
		 FROM tour_locations WHERE tour_id=? ORDER BY position`, t.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var pos int
		loc := model.Location{Type: "Point"}
		if err := rows.Scan(&pos, &loc.Longitude, &loc.Latitude,
			&loc.Address, &loc.Description, &loc.Day); err != nil {
			return err
		}
		if pos == 0 {
			start := loc
			t.StartLocation = &start
			continue
		}
		t.Locations = append(t.Locations, loc)
	}
	return rows.Err()
}

func (r *TourRepo) loadGuides(ctx context.Context, t *model.Tour) error {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT u.id, u.name, u.email, u.photo, u.role
		 FROM tour_guides g JOIN users u ON u.id = g.user_id
		 WHERE g.tour_id=? AND u.active=1 ORDER BY u.id`, t.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Photo, &u.Role); err != nil {
			return err
		}
		t.GuideIDs = append(t.GuideIDs, u.ID)
		t.Guides = append(t.Guides, u)
	}
	return rows.Err()
}

// Create inserts a tour and its child rows in one transaction. The caller
// has already validated the record and derived the slug.
func (r *TourRepo) Create(ctx context.Context, t model.Tour) (uint64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	imagesJSON, err := encodeImages(t.Images)
	if err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO tours (name, slug, duration, max_group_size, difficulty,
		   ratings_average, ratings_quantity, price, price_discount, summary,
		   description, image_cover, images, secret)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.Name, t.Slug, t.Duration, t.MaxGroupSize, t.Difficulty,
		t.RatingsAverage, t.RatingsQuantity, t.Price, t.PriceDiscount,
		t.Summary, t.Description, t.ImageCover, imagesJSON, t.Secret)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	t.ID = uint64(id)

	if err := insertChildren(ctx, tx, t); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return t.ID, nil
}

// Update rewrites a tour's scalar columns and replaces its child rows. The
// handler fetches the current record, merges the patch, re-derives the slug
// and re-validates before calling this.
func (r *TourRepo) Update(ctx context.Context, t model.Tour) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	imagesJSON, err := encodeImages(t.Images)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE tours SET name=?, slug=?, duration=?, max_group_size=?,
		   difficulty=?, ratings_average=?, ratings_quantity=?, price=?,
		   price_discount=?, summary=?, description=?, image_cover=?,
		   images=?, secret=?
		 WHERE id=?`,
		t.Name, t.Slug, t.Duration, t.MaxGroupSize, t.Difficulty,
		t.RatingsAverage, t.RatingsQuantity, t.Price, t.PriceDiscount,
		t.Summary, t.Description, t.ImageCover, imagesJSON, t.Secret, t.ID)
	if err != nil {
		return err
	}
	if err := requireRow(res); err != nil {
		return err
	}

	for _, table := range []string{"tour_start_dates", "tour_locations", "tour_guides"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE tour_id=?", t.ID); err != nil {
			return err
		}
	}
	if err := insertChildren(ctx, tx, t); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a tour and its child rows. Tours are hard-deleted; only
// user accounts soft-delete.
func (r *TourRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"tour_start_dates", "tour_locations", "tour_guides"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE tour_id=?", id); err != nil {
			return err
		}
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM tours WHERE id=?", id)
	if err != nil {
		return err
	}
	if err := requireRow(res); err != nil {
		return err
	}
	return tx.Commit()
}

func insertChildren(ctx context.Context, tx *sql.Tx, t model.Tour) error {
	for _, d := range t.StartDates {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO tour_start_dates (tour_id, starts_at) VALUES (?,?)",
			t.ID, d.UTC()); err != nil {
			return err
		}
	}
	// Position 0 is reserved for the start location; itinerary stops start
	// at 1 so a tour without one round-trips correctly.
	if t.StartLocation != nil {
		if err := insertLocation(ctx, tx, t.ID, 0, *t.StartLocation); err != nil {
			return err
		}
	}
	pos := 1
	for _, loc := range t.Locations {
		if err := insertLocation(ctx, tx, t.ID, pos, loc); err != nil {
			return err
		}
		pos++
	}
	for _, gid := range t.GuideIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO tour_guides (tour_id, user_id) VALUES (?,?)",
			t.ID, gid); err != nil {
			return err
		}
	}
	return nil
}

func insertLocation(ctx context.Context, tx *sql.Tx, tourID uint64, pos int, loc model.Location) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO tour_locations (tour_id, position, longitude, latitude, address, description, day)
		 VALUES (?,?,?,?,?,?,?)`,
		tourID, pos, loc.Longitude, loc.Latitude, loc.Address, loc.Description, loc.Day)
	return err
}

func encodeImages(images []string) ([]byte, error) {
	if images == nil {
		images = []string{}
	}
	return json.Marshal(images)
}
