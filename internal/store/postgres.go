package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"villagework/pkg/models"
)

// PostgresConfig holds connection pool settings
type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// PostgresStore implements Store on PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    phone         TEXT NOT NULL UNIQUE,
    role          TEXT NOT NULL,
    skill_level   TEXT NOT NULL DEFAULT '',
    language      TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
    token      TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    expires_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS jobs (
    id                TEXT PRIMARY KEY,
    title             TEXT NOT NULL,
    description       TEXT NOT NULL DEFAULT '',
    location          TEXT NOT NULL,
    salary            TEXT NOT NULL,
    category          TEXT NOT NULL,
    experience_level  TEXT NOT NULL,
    training_provided BOOLEAN NOT NULL DEFAULT FALSE,
    applicants        INTEGER NOT NULL DEFAULT 0 CHECK (applicants >= 0),
    status            TEXT NOT NULL,
    posted_by         TEXT NOT NULL,
    owner_id          TEXT NOT NULL REFERENCES users(id),
    posted_at         TIMESTAMPTZ NOT NULL,
    requirements      TEXT[] NOT NULL DEFAULT '{}',
    benefits          TEXT[] NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS applications (
    id             TEXT PRIMARY KEY,
    job_id         TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
    worker_id      TEXT NOT NULL REFERENCES users(id),
    applicant_name TEXT NOT NULL,
    message        TEXT NOT NULL DEFAULT '',
    status         TEXT NOT NULL,
    applied_at     TIMESTAMPTZ NOT NULL,
    UNIQUE (job_id, worker_id)
);

CREATE TABLE IF NOT EXISTS notifications (
    id           TEXT PRIMARY KEY,
    user_id      TEXT NOT NULL,
    type         TEXT NOT NULL,
    title        TEXT NOT NULL,
    message      TEXT NOT NULL,
    read         BOOLEAN NOT NULL DEFAULT FALSE,
    reference_id TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS notifications_user_idx ON notifications (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS payments (
    id         TEXT PRIMARY KEY,
    job_id     TEXT NOT NULL,
    job_title  TEXT NOT NULL,
    worker_id  TEXT NOT NULL,
    owner_id   TEXT NOT NULL,
    amount     BIGINT NOT NULL CHECK (amount > 0),
    method     TEXT NOT NULL,
    status     TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    paid_at    TIMESTAMPTZ
);
`

// NewPostgresStore opens and pings the database
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Migrate creates the schema if it does not exist
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *PostgresStore) Close() error                   { return s.db.Close() }

// translate maps driver errors onto the store's sentinel errors
func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return ErrDuplicate
		case "23503":
			return ErrNotFound
		}
	}
	return err
}

// requireTransition tells a conditional update that lost its race (ErrStale)
// apart from one whose row does not exist (ErrNotFound). table is a constant.
func (s *PostgresStore) requireTransition(ctx context.Context, table, id string, res sql.Result, err error) error {
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, id).Scan(&exists); err != nil {
		return translate(err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStale
}

// requireOne turns an update that touched no rows into ErrNotFound
func requireOne(res sql.Result, err error) error {
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

const userColumns = `id, name, phone, role, skill_level, language, password_hash, created_at`

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Name, &u.Phone, &u.Role, &u.SkillLevel, &u.Language, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *models.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Name, u.Phone, u.Role, u.SkillLevel, u.Language, u.PasswordHash, u.CreatedAt)
	return translate(err)
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *PostgresStore) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone))
}

func (s *PostgresStore) CountUsersByRole(ctx context.Context) (map[models.Role]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.Role]int)
	for rows.Next() {
		var role models.Role
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		counts[role] = n
	}
	return counts, rows.Err()
}

func (s *PostgresStore) CreateSession(ctx context.Context, sess *models.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, expires_at) VALUES ($1, $2, $3)`,
		sess.Token, sess.UserID, sess.ExpiresAt)
	return translate(err)
}

func (s *PostgresStore) GetSession(ctx context.Context, token string) (*models.Session, error) {
	var sess models.Session
	err := s.db.QueryRowContext(ctx,
		`SELECT token, user_id, expires_at FROM sessions WHERE token = $1`, token).
		Scan(&sess.Token, &sess.UserID, &sess.ExpiresAt)
	if err != nil {
		return nil, translate(err)
	}
	return &sess, nil
}

func (s *PostgresStore) DeleteSession(ctx context.Context, token string) error {
	return requireOne(s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token))
}

func (s *PostgresStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

const jobColumns = `id, title, description, location, salary, category, experience_level,
    training_provided, applicants, status, posted_by, owner_id, posted_at, requirements, benefits`

func scanJob(row scanner) (*models.Job, error) {
	var j models.Job
	err := row.Scan(&j.ID, &j.Title, &j.Description, &j.Location, &j.Salary, &j.Category, &j.ExperienceLevel,
		&j.TrainingProvided, &j.Applicants, &j.Status, &j.PostedBy, &j.OwnerID, &j.PostedAt,
		pq.Array(&j.Requirements), pq.Array(&j.Benefits))
	if err != nil {
		return nil, translate(err)
	}
	if j.Requirements == nil {
		j.Requirements = []string{}
	}
	if j.Benefits == nil {
		j.Benefits = []string{}
	}
	return &j, nil
}

func (s *PostgresStore) CreateJob(ctx context.Context, j *models.Job) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (`+jobColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		j.ID, j.Title, j.Description, j.Location, j.Salary, j.Category, j.ExperienceLevel,
		j.TrainingProvided, j.Applicants, j.Status, j.PostedBy, j.OwnerID, j.PostedAt,
		pq.Array(j.Requirements), pq.Array(j.Benefits))
	return translate(err)
}

func (s *PostgresStore) GetJob(ctx context.Context, id string) (*models.Job, error) {
	return scanJob(s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
}

func (s *PostgresStore) UpdateJob(ctx context.Context, j *models.Job) error {
	return requireOne(s.db.ExecContext(ctx, `
        UPDATE jobs SET title = $2, description = $3, location = $4, salary = $5, category = $6,
            experience_level = $7, training_provided = $8, status = $9, requirements = $10, benefits = $11
        WHERE id = $1`,
		j.ID, j.Title, j.Description, j.Location, j.Salary, j.Category,
		j.ExperienceLevel, j.TrainingProvided, j.Status, pq.Array(j.Requirements), pq.Array(j.Benefits)))
}

func (s *PostgresStore) DeleteJob(ctx context.Context, id string) error {
	return requireOne(s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id))
}

func (s *PostgresStore) ListJobs(ctx context.Context) ([]models.Job, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY posted_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := make([]models.Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

func (s *PostgresStore) CreateApplication(ctx context.Context, a *models.Application) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
        INSERT INTO applications (id, job_id, worker_id, applicant_name, message, status, applied_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.JobID, a.WorkerID, a.ApplicantName, a.Message, a.Status, a.AppliedAt); err != nil {
		return translate(err)
	}

	if err := requireOne(tx.ExecContext(ctx, `UPDATE jobs SET applicants = applicants + 1 WHERE id = $1`, a.JobID)); err != nil {
		return err
	}

	return tx.Commit()
}

const applicationSelect = `SELECT a.id, a.job_id, a.worker_id, a.applicant_name, a.message, a.status, a.applied_at,
    j.id, j.title, j.description, j.location, j.salary, j.category, j.experience_level,
    j.training_provided, j.applicants, j.status, j.posted_by, j.owner_id, j.posted_at, j.requirements, j.benefits
FROM applications a JOIN jobs j ON j.id = a.job_id`

func scanApplication(row scanner) (*models.Application, error) {
	var a models.Application
	var j models.Job
	err := row.Scan(&a.ID, &a.JobID, &a.WorkerID, &a.ApplicantName, &a.Message, &a.Status, &a.AppliedAt,
		&j.ID, &j.Title, &j.Description, &j.Location, &j.Salary, &j.Category, &j.ExperienceLevel,
		&j.TrainingProvided, &j.Applicants, &j.Status, &j.PostedBy, &j.OwnerID, &j.PostedAt,
		pq.Array(&j.Requirements), pq.Array(&j.Benefits))
	if err != nil {
		return nil, translate(err)
	}
	a.Job = &j
	return &a, nil
}

func (s *PostgresStore) queryApplications(ctx context.Context, where string, args ...interface{}) ([]models.Application, error) {
	rows, err := s.db.QueryContext(ctx, applicationSelect+` WHERE `+where+` ORDER BY a.applied_at DESC, a.id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := make([]models.Application, 0)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *app)
	}
	return apps, rows.Err()
}

func (s *PostgresStore) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	return scanApplication(s.db.QueryRowContext(ctx, applicationSelect+` WHERE a.id = $1`, id))
}

func (s *PostgresStore) UpdateApplicationStatus(ctx context.Context, id string, from, to models.ApplicationStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE applications SET status = $3 WHERE id = $1 AND status = $2`, id, from, to)
	return s.requireTransition(ctx, "applications", id, res, err)
}

func (s *PostgresStore) ListApplicationsByWorker(ctx context.Context, workerID string) ([]models.Application, error) {
	return s.queryApplications(ctx, `a.worker_id = $1`, workerID)
}

func (s *PostgresStore) ListApplicationsByJob(ctx context.Context, jobID string) ([]models.Application, error) {
	return s.queryApplications(ctx, `a.job_id = $1`, jobID)
}

func (s *PostgresStore) FindApplication(ctx context.Context, jobID, workerID string) (*models.Application, error) {
	return scanApplication(s.db.QueryRowContext(ctx, applicationSelect+` WHERE a.job_id = $1 AND a.worker_id = $2`, jobID, workerID))
}

func (s *PostgresStore) CountApplications(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM applications`).Scan(&n)
	return n, err
}

func (s *PostgresStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO notifications (id, user_id, type, title, message, read, reference_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.ID, n.UserID, n.Type, n.Title, n.Message, n.Read, n.ReferenceID, n.CreatedAt)
	return translate(err)
}

func (s *PostgresStore) ListNotifications(ctx context.Context, userID string) ([]models.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, user_id, type, title, message, read, reference_id, created_at
        FROM notifications WHERE user_id = $1 ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Read, &n.ReferenceID, &n.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

func (s *PostgresStore) MarkNotificationRead(ctx context.Context, userID, id string) error {
	return requireOne(s.db.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`, id, userID))
}

func (s *PostgresStore) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE user_id = $1 AND NOT read`, userID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

const paymentColumns = `id, job_id, job_title, worker_id, owner_id, amount, method, status, created_at, paid_at`

func scanPayment(row scanner) (*models.Payment, error) {
	var p models.Payment
	var paidAt sql.NullTime
	if err := row.Scan(&p.ID, &p.JobID, &p.JobTitle, &p.WorkerID, &p.OwnerID, &p.Amount, &p.Method, &p.Status, &p.CreatedAt, &paidAt); err != nil {
		return nil, translate(err)
	}
	if paidAt.Valid {
		p.PaidAt = &paidAt.Time
	}
	return &p, nil
}

func (s *PostgresStore) CreatePayment(ctx context.Context, p *models.Payment) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payments (`+paymentColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.JobID, p.JobTitle, p.WorkerID, p.OwnerID, p.Amount, p.Method, p.Status, p.CreatedAt, p.PaidAt)
	return translate(err)
}

func (s *PostgresStore) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	return scanPayment(s.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
}

func (s *PostgresStore) UpdatePayment(ctx context.Context, p *models.Payment, from models.PaymentStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE payments SET status = $2, paid_at = $3, method = $4 WHERE id = $1 AND status = $5`,
		p.ID, p.Status, p.PaidAt, p.Method, from)
	return s.requireTransition(ctx, "payments", p.ID, res, err)
}

func (s *PostgresStore) ListPayments(ctx context.Context, q PaymentQuery) ([]models.Payment, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT `+paymentColumns+` FROM payments
        WHERE ($1 = '' OR worker_id = $1) AND ($2 = '' OR owner_id = $2) AND ($3 = '' OR status = $3)
        ORDER BY created_at DESC, id`,
		q.WorkerID, q.OwnerID, string(q.Status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]models.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}
