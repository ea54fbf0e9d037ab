package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/alem-hub/mentorship-hub/internal/domain/mentorship"
)

// MentorshipRepository implements mentorship.Directory and
// mentorship.RatingReader. Mentorships, mentors and enterprises are owned by
// other parts of the platform; writes here exist for seeding and tests.
type MentorshipRepository struct {
	conn *Connection
}

// NewMentorshipRepository creates a new MentorshipRepository.
func NewMentorshipRepository(conn *Connection) *MentorshipRepository {
	return &MentorshipRepository{conn: conn}
}

const mentorshipSelect = `
	SELECT m.id::text, m.mentor_id::text, mt.name, m.se_id::text, se.name, m.status, m.created_at
	FROM mentorships m
	JOIN mentors mt ON mt.id = m.mentor_id
	JOIN social_enterprises se ON se.id = m.se_id`

// GetByID resolves a mentorship with its current mentor and SE.
func (r *MentorshipRepository) GetByID(ctx context.Context, id string) (*mentorship.Mentorship, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, mentorship.ErrMentorshipNotFound
	}

	row := r.conn.querier(ctx).QueryRow(ctx, mentorshipSelect+` WHERE m.id = $1`, id)
	m, err := scanMentorship(row)
	if IsNoRows(err) {
		return nil, mentorship.ErrMentorshipNotFound
	}
	if err != nil {
		return nil, classify("GetMentorship", fmt.Errorf("failed to get mentorship: %w", err))
	}
	return m, nil
}

// ListActive returns every active mentorship.
func (r *MentorshipRepository) ListActive(ctx context.Context) ([]*mentorship.Mentorship, error) {
	rows, err := r.conn.querier(ctx).Query(ctx, mentorshipSelect+` WHERE m.status = 'Active' ORDER BY mt.name, m.id`)
	if err != nil {
		return nil, classify("ListMentorships", fmt.Errorf("failed to list mentorships: %w", err))
	}
	defer rows.Close()

	out := make([]*mentorship.Mentorship, 0)
	for rows.Next() {
		m, err := scanMentorship(rows)
		if err != nil {
			return nil, classify("ListMentorships", fmt.Errorf("failed to scan mentorship: %w", err))
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("ListMentorships", fmt.Errorf("rows iteration error: %w", err))
	}
	return out, nil
}

func scanMentorship(row pgx.Row) (*mentorship.Mentorship, error) {
	var m mentorship.Mentorship
	var status string
	if err := row.Scan(&m.ID, &m.MentorID, &m.MentorName, &m.SEID, &m.SEName, &status, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Status = mentorship.Status(status)
	return &m, nil
}

// CategoryAverages aggregates ratings per (mentorship, category) in SQL.
func (r *MentorshipRepository) CategoryAverages(ctx context.Context, mentorshipIDs ...string) ([]mentorship.CategoryAverage, error) {
	query := `
		SELECT e.mentorship_id::text, c.name, AVG(r.rating)::float8, COUNT(*)
		FROM evaluation_category_ratings r
		JOIN evaluations e ON e.id = r.evaluation_id
		JOIN evaluation_categories c ON c.id = r.category_id
	`
	args := []interface{}{}
	if len(mentorshipIDs) > 0 {
		query += ` WHERE e.mentorship_id = ANY($1::text[]::uuid[])`
		args = append(args, mentorshipIDs)
	}
	query += ` GROUP BY e.mentorship_id, c.name ORDER BY 1, 2`

	rows, err := r.conn.querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, classify("CategoryAverages", fmt.Errorf("failed to aggregate ratings: %w", err))
	}
	defer rows.Close()

	out := make([]mentorship.CategoryAverage, 0)
	for rows.Next() {
		var a mentorship.CategoryAverage
		if err := rows.Scan(&a.MentorshipID, &a.Category, &a.Average, &a.Ratings); err != nil {
			return nil, fmt.Errorf("failed to scan category average: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("CategoryAverages", fmt.Errorf("rows iteration error: %w", err))
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Seeding
// ─────────────────────────────────────────────────────────────────────────────

// Save upserts the mentor, the enterprise and the mentorship.
func (r *MentorshipRepository) Save(ctx context.Context, m *mentorship.Mentorship) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(ctx context.Context) error {
		q := r.conn.querier(ctx)

		if _, err := q.Exec(ctx, `
			INSERT INTO mentors (id, name) VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
		`, m.MentorID, m.MentorName); err != nil {
			return fmt.Errorf("failed to save mentor: %w", err)
		}

		if _, err := q.Exec(ctx, `
			INSERT INTO social_enterprises (id, name) VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
		`, m.SEID, m.SEName); err != nil {
			return fmt.Errorf("failed to save social enterprise: %w", err)
		}

		status := m.Status
		if !status.IsValid() {
			status = mentorship.StatusActive
		}
		if _, err := q.Exec(ctx, `
			INSERT INTO mentorships (id, mentor_id, se_id, status) VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET mentor_id = EXCLUDED.mentor_id, status = EXCLUDED.status
		`, m.ID, m.MentorID, m.SEID, string(status)); err != nil {
			return fmt.Errorf("failed to save mentorship: %w", err)
		}
		return nil
	})
}

// AddEvaluation records one evaluation with a rating per category.
func (r *MentorshipRepository) AddEvaluation(ctx context.Context, mentorshipID string, ratings map[string]int) (string, error) {
	evaluationID := uuid.NewString()

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(ctx context.Context) error {
		q := r.conn.querier(ctx)

		if _, err := q.Exec(ctx, `INSERT INTO evaluations (id, mentorship_id) VALUES ($1, $2)`,
			evaluationID, mentorshipID); err != nil {
			if IsForeignKeyViolation(err) {
				return mentorship.ErrMentorshipNotFound
			}
			return fmt.Errorf("failed to insert evaluation: %w", err)
		}

		for category, rating := range ratings {
			rec := mentorship.EvaluationCategoryRating{
				EvaluationID: evaluationID, MentorshipID: mentorshipID, Category: category, Rating: rating,
			}
			if err := rec.Validate(); err != nil {
				return err
			}

			var categoryID string
			err := q.QueryRow(ctx, `
				INSERT INTO evaluation_categories (name) VALUES ($1)
				ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
				RETURNING id::text
			`, category).Scan(&categoryID)
			if err != nil {
				return fmt.Errorf("failed to upsert category: %w", err)
			}

			if _, err := q.Exec(ctx, `
				INSERT INTO evaluation_category_ratings (evaluation_id, category_id, rating) VALUES ($1, $2, $3)
			`, evaluationID, categoryID, rating); err != nil {
				return fmt.Errorf("failed to insert rating: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return evaluationID, nil
}
