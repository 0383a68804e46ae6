// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package votes

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/danielhkuo/rate-my-teacher/apperr"
	"github.com/danielhkuo/rate-my-teacher/models"
)

const (
	maxNameLength        = 200
	maxDescriptionLength = 5000
	maxTags              = 20
)

// Teachers stores the rating subjects.
type Teachers struct {
	db  *sql.DB
	now func() time.Time
}

func NewTeachers(conn *sql.DB) *Teachers {
	return &Teachers{db: conn, now: func() time.Time { return time.Now().UTC() }}
}

func (t *Teachers) Create(ctx context.Context, req models.CreateTeacherRequest) (models.Teacher, error) {
	teacher, err := validateTeacher(req)
	if err != nil {
		return models.Teacher{}, err
	}
	teacher.ID = uuid.NewString()
	teacher.CreatedAt = t.now()
	teacher.UpdatedAt = teacher.CreatedAt

	_, err = t.db.ExecContext(ctx, `
		INSERT INTO teacher (id, name, description, schedule, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, teacher.ID, teacher.Name, teacher.Description, teacher.Schedule, strings.Join(teacher.Tags, ","),
		teacher.CreatedAt, teacher.UpdatedAt)
	if err != nil {
		return models.Teacher{}, apperr.Storage(err)
	}
	return teacher, nil
}

func (t *Teachers) Update(ctx context.Context, id string, req models.UpdateTeacherRequest) (models.Teacher, error) {
	teacher, err := validateTeacher(req)
	if err != nil {
		return models.Teacher{}, err
	}
	now := t.now()
	res, err := t.db.ExecContext(ctx, `
		UPDATE teacher SET name = $1, description = $2, schedule = $3, tags = $4, updated_at = $5
		WHERE id = $6
	`, teacher.Name, teacher.Description, teacher.Schedule, strings.Join(teacher.Tags, ","), now, id)
	if err != nil {
		return models.Teacher{}, apperr.Storage(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Teacher{}, apperr.NotFound("teacher not found")
	}
	return t.Get(ctx, id)
}

// Delete removes the teacher and, by cascade, its votes.
func (t *Teachers) Delete(ctx context.Context, id string) error {
	res, err := t.db.ExecContext(ctx, `DELETE FROM teacher WHERE id = $1`, id)
	if err != nil {
		return apperr.Storage(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("teacher not found")
	}
	return nil
}

func (t *Teachers) Get(ctx context.Context, id string) (models.Teacher, error) {
	row := t.db.QueryRowContext(ctx, `
		SELECT id, name, description, schedule, tags, created_at, updated_at
		FROM teacher WHERE id = $1
	`, id)
	teacher, err := scanTeacher(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Teacher{}, apperr.NotFound("teacher not found")
	}
	if err != nil {
		return models.Teacher{}, apperr.Storage(err)
	}
	return teacher, nil
}

func (t *Teachers) List(ctx context.Context) ([]models.Teacher, error) {
	rows, err := t.db.QueryContext(ctx, `
		SELECT id, name, description, schedule, tags, created_at, updated_at
		FROM teacher ORDER BY name, id
	`)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer rows.Close()

	teachers := []models.Teacher{}
	for rows.Next() {
		teacher, err := scanTeacher(rows)
		if err != nil {
			return nil, apperr.Storage(err)
		}
		teachers = append(teachers, teacher)
	}
	return teachers, apperr.Storage(rows.Err())
}

// Exists is used by the ledger and aggregation to turn unknown ids into NotFound.
func (t *Teachers) Exists(ctx context.Context, id string) error {
	return teacherExists(ctx, t.db, id)
}

func teacherExists(ctx context.Context, conn *sql.DB, id string) error {
	var one int
	err := conn.QueryRowContext(ctx, `SELECT 1 FROM teacher WHERE id = $1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("teacher not found")
	}
	return apperr.Storage(err)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTeacher(s scanner) (models.Teacher, error) {
	var teacher models.Teacher
	var tags string
	err := s.Scan(&teacher.ID, &teacher.Name, &teacher.Description, &teacher.Schedule, &tags,
		&teacher.CreatedAt, &teacher.UpdatedAt)
	if err != nil {
		return models.Teacher{}, err
	}
	teacher.Tags = splitTags(tags)
	return teacher, nil
}

func splitTags(s string) []string {
	tags := []string{}
	for _, tag := range strings.Split(s, ",") {
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func validateTeacher(req models.CreateTeacherRequest) (models.Teacher, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return models.Teacher{}, apperr.Invalid("name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return models.Teacher{}, apperr.Invalid("name is too long")
	}
	description := strings.TrimSpace(req.Description)
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return models.Teacher{}, apperr.Invalid("description is too long")
	}
	if len(req.Tags) > maxTags {
		return models.Teacher{}, apperr.Invalid("too many tags")
	}

	tags := make([]string, 0, len(req.Tags))
	seen := make(map[string]bool, len(req.Tags))
	for _, tag := range req.Tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		if strings.Contains(tag, ",") {
			return models.Teacher{}, apperr.Invalid("tags may not contain commas")
		}
		seen[tag] = true
		tags = append(tags, tag)
	}

	return models.Teacher{
		Name:        name,
		Description: description,
		Schedule:    strings.TrimSpace(req.Schedule),
		Tags:        tags,
	}, nil
}
