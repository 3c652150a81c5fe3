package repository

import (
	"context"
	"strings"
)

// TourStats is one aggregate row of GET /tours/tour-stats, grouped by
// difficulty over well-rated, non-secret tours.
type TourStats struct {
	Difficulty string  `json:"difficulty"`
	NumTours   int     `json:"numTours"`
	NumRatings int     `json:"numRatings"`
	AvgRating  float64 `json:"avgRating"`
	AvgPrice   float64 `json:"avgPrice"`
	MinPrice   float64 `json:"minPrice"`
	MaxPrice   float64 `json:"maxPrice"`
}

// Stats aggregates tours with ratings_average >= 4.5 by difficulty. Secret
// tours are excluded like in every other listing path.
func (r *TourRepo) Stats(ctx context.Context) ([]TourStats, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT difficulty, COUNT(*), COALESCE(SUM(ratings_quantity),0),
		        COALESCE(AVG(ratings_average),0), COALESCE(AVG(price),0),
		        COALESCE(MIN(price),0), COALESCE(MAX(price),0)
		 FROM tours
		 WHERE secret = 0 AND ratings_average >= 4.5
		 GROUP BY difficulty
		 ORDER BY AVG(price)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []TourStats{}
	for rows.Next() {
		var s TourStats
		if err := rows.Scan(&s.Difficulty, &s.NumTours, &s.NumRatings,
			&s.AvgRating, &s.AvgPrice, &s.MinPrice, &s.MaxPrice); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// MonthlyPlanRow is one month of GET /tours/monthly-plan/:year: how many
// tours start that month and which ones.
type MonthlyPlanRow struct {
	Month     int      `json:"month"`
	NumStarts int      `json:"numTourStarts"`
	Tours     []string `json:"tours"`
}

// MonthlyPlan groups tour start dates of the given year by month, busiest
// month first.
func (r *TourRepo) MonthlyPlan(ctx context.Context, year int) ([]MonthlyPlanRow, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT MONTH(d.starts_at), COUNT(*), GROUP_CONCAT(t.name ORDER BY t.name SEPARATOR '||')
		 FROM tour_start_dates d
		 JOIN tours t ON t.id = d.tour_id
		 WHERE t.secret = 0 AND YEAR(d.starts_at) = ?
		 GROUP BY MONTH(d.starts_at)
		 ORDER BY COUNT(*) DESC, MONTH(d.starts_at)`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []MonthlyPlanRow{}
	for rows.Next() {
		var row MonthlyPlanRow
		var names string
		if err := rows.Scan(&row.Month, &row.NumStarts, &names); err != nil {
			return nil, err
		}
		if names != "" {
			row.Tours = strings.Split(names, "||")
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
