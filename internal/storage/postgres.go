package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/your-org/medassist/internal/config"
	"github.com/your-org/medassist/internal/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Users ---

func (s *PostgresStore) CreateUser(ctx context.Context, name string) (*models.User, error) {
	u := &models.User{
		ID:   uuid.New(),
		Name: name,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, name) VALUES ($1, $2) RETURNING created_at, updated_at`,
		u.ID, u.Name,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u := &models.User{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, created_at, updated_at FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, nil
}

// DeleteUser removes a user with their schedule entries and face templates.
// Dose log rows are retained; the log is append-only.
func (s *PostgresStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

// --- Schedule entries ---

func (s *PostgresStore) CreateScheduleEntry(ctx context.Context, e *models.ScheduleEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	e.ID = uuid.New()
	err := s.pool.QueryRow(ctx,
		`INSERT INTO schedule_entries (id, user_id, medicine, time_of_day, weekdays)
		 VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		e.ID, e.UserID, e.Medicine, e.At.String(), int(e.Days),
	).Scan(&e.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s at %s", models.ErrDuplicateEntry, e.Medicine, e.At)
		}
		return fmt.Errorf("create schedule entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListScheduleEntries(ctx context.Context, userID uuid.UUID) ([]models.ScheduleEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, medicine, time_of_day, weekdays, created_at
		 FROM schedule_entries WHERE user_id = $1 ORDER BY time_of_day, medicine`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ListAllScheduleEntries loads every entry, used to warm the in-memory
// schedule store at startup.
func (s *PostgresStore) ListAllScheduleEntries(ctx context.Context) ([]models.ScheduleEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, medicine, time_of_day, weekdays, created_at
		 FROM schedule_entries ORDER BY user_id, time_of_day, medicine`)
	if err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows pgx.Rows) ([]models.ScheduleEntry, error) {
	var entries []models.ScheduleEntry
	for rows.Next() {
		var (
			e       models.ScheduleEntry
			timeStr string
			days    int
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Medicine, &timeStr, &days, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan schedule entry: %w", err)
		}
		at, err := models.ParseTimeOfDay(timeStr)
		if err != nil {
			return nil, fmt.Errorf("stored time_of_day %q: %w", timeStr, err)
		}
		e.At = at
		e.Days = models.WeekdaySet(days)
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *PostgresStore) DeleteScheduleEntry(ctx context.Context, userID, entryID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM schedule_entries WHERE id = $1 AND user_id = $2`, entryID, userID)
	if err != nil {
		return fmt.Errorf("delete schedule entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("schedule entry not found")
	}
	return nil
}

// --- Face templates ---

func (s *PostgresStore) AddFaceTemplate(ctx context.Context, userID uuid.UUID, embedding []float32, quality float32, sourceKey string) (*models.FaceTemplate, error) {
	ft := &models.FaceTemplate{
		ID:        uuid.New(),
		UserID:    userID,
		Embedding: embedding,
		Quality:   quality,
		SourceKey: sourceKey,
	}
	vec := pgvector.NewVector(embedding)
	err := s.pool.QueryRow(ctx,
		`INSERT INTO face_templates (id, user_id, embedding, quality, source_key) VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		ft.ID, ft.UserID, vec, ft.Quality, ft.SourceKey,
	).Scan(&ft.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("add face template: %w", err)
	}
	return ft, nil
}

func (s *PostgresStore) ListFaceTemplates(ctx context.Context, userID uuid.UUID) ([]models.FaceTemplate, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, quality, source_key, created_at FROM face_templates WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list face templates: %w", err)
	}
	defer rows.Close()

	var templates []models.FaceTemplate
	for rows.Next() {
		var ft models.FaceTemplate
		if err := rows.Scan(&ft.ID, &ft.UserID, &ft.Quality, &ft.SourceKey, &ft.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan face template: %w", err)
		}
		templates = append(templates, ft)
	}
	return templates, nil
}

// BestMatch scores an observed embedding against one user's enrolled
// templates and returns the best cosine similarity. ok is false when the
// user has no templates.
func (s *PostgresStore) BestMatch(ctx context.Context, userID uuid.UUID, embedding []float32) (float64, bool, error) {
	vec := pgvector.NewVector(embedding)
	var score float64
	err := s.pool.QueryRow(ctx,
		`SELECT 1 - (embedding <=> $1) AS score
		 FROM face_templates
		 WHERE user_id = $2
		 ORDER BY embedding <=> $1
		 LIMIT 1`,
		vec, userID,
	).Scan(&score)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("match face template: %w", err)
	}
	return score, true, nil
}

// --- Dose log ---

// AppendDose writes one audit row. The table has no update or delete path;
// the row id comes from the record so retried appends stay idempotent.
func (s *PostgresStore) AppendDose(ctx context.Context, rec models.DoseRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO dose_log (id, user_id, user_name, medicine, scheduled_at, resolved_at, outcome, channel, attempts, confidence, snapshot_key)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO NOTHING`,
		rec.ID, rec.UserID, rec.UserName, rec.Medicine, rec.ScheduledAt, rec.ResolvedAt,
		rec.Outcome, rec.Channel, rec.Attempts, rec.Confidence, rec.SnapshotKey)
	if err != nil {
		return fmt.Errorf("append dose record: %w", err)
	}
	return nil
}

// QueryDoses returns audit rows matching the filter, ordered by resolution
// time ascending.
func (s *PostgresStore) QueryDoses(ctx context.Context, f models.DoseFilter) ([]models.DoseRecord, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	argIdx := 1

	if f.UserID != nil {
		where += fmt.Sprintf(" AND user_id = $%d", argIdx)
		args = append(args, *f.UserID)
		argIdx++
	}
	if f.From != nil {
		where += fmt.Sprintf(" AND resolved_at >= $%d", argIdx)
		args = append(args, *f.From)
		argIdx++
	}
	if f.To != nil {
		where += fmt.Sprintf(" AND resolved_at <= $%d", argIdx)
		args = append(args, *f.To)
		argIdx++
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 200
	}
	if limit > 1000 {
		limit = 1000
	}

	query := fmt.Sprintf(
		`SELECT id, user_id, user_name, medicine, scheduled_at, resolved_at, outcome, channel, attempts, confidence, snapshot_key
		 FROM dose_log %s ORDER BY resolved_at ASC LIMIT $%d`,
		where, argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query dose log: %w", err)
	}
	defer rows.Close()

	var records []models.DoseRecord
	for rows.Next() {
		var r models.DoseRecord
		if err := rows.Scan(&r.ID, &r.UserID, &r.UserName, &r.Medicine, &r.ScheduledAt, &r.ResolvedAt,
			&r.Outcome, &r.Channel, &r.Attempts, &r.Confidence, &r.SnapshotKey); err != nil {
			return nil, fmt.Errorf("scan dose record: %w", err)
		}
		records = append(records, r)
	}
	return records, nil
}

// GetDose returns a single audit row by id.
func (s *PostgresStore) GetDose(ctx context.Context, id uuid.UUID) (*models.DoseRecord, error) {
	var r models.DoseRecord
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, user_name, medicine, scheduled_at, resolved_at, outcome, channel, attempts, confidence, snapshot_key
		 FROM dose_log WHERE id = $1`, id).
		Scan(&r.ID, &r.UserID, &r.UserName, &r.Medicine, &r.ScheduledAt, &r.ResolvedAt,
			&r.Outcome, &r.Channel, &r.Attempts, &r.Confidence, &r.SnapshotKey)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get dose record: %w", err)
	}
	return &r, nil
}
