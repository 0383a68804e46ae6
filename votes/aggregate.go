// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package votes

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/danielhkuo/rate-my-teacher/apperr"
	"github.com/danielhkuo/rate-my-teacher/models"
)

// Aggregator computes statistics from the live vote rows on every call.
// Nothing is cached.
type Aggregator struct {
	db *sql.DB
}

func NewAggregator(conn *sql.DB) *Aggregator {
	return &Aggregator{db: conn}
}

func (a *Aggregator) Aggregate(ctx context.Context, teacherID string) (models.AggregateView, error) {
	if err := teacherExists(ctx, a.db, teacherID); err != nil {
		return models.AggregateView{}, err
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT rating, COUNT(*) FROM vote WHERE teacher_id = $1 GROUP BY rating
	`, teacherID)
	if err != nil {
		return models.AggregateView{}, apperr.Storage(err)
	}
	defer rows.Close()

	counts := make(map[int]int, MaxRating)
	for rows.Next() {
		var rating, n int
		if err := rows.Scan(&rating, &n); err != nil {
			return models.AggregateView{}, apperr.Storage(err)
		}
		counts[rating] = n
	}
	if err := rows.Err(); err != nil {
		return models.AggregateView{}, apperr.Storage(err)
	}
	return buildView(teacherID, counts), nil
}

func buildView(teacherID string, counts map[int]int) models.AggregateView {
	view := models.AggregateView{
		TeacherID:    teacherID,
		Distribution: make(map[string]int, MaxRating),
	}
	sum := 0
	for r := MinRating; r <= MaxRating; r++ {
		n := counts[r]
		view.Distribution[strconv.Itoa(r)] = n
		view.RatingCount += n
		sum += r * n
	}
	if view.RatingCount > 0 {
		avg := float64(sum) / float64(view.RatingCount)
		view.AverageRating = &avg
	}
	return view
}
