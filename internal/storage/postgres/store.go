package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hongminglow/finance-api/internal/models"
	"github.com/hongminglow/finance-api/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// Store provides Postgres-backed persistence for users and movements.
type Store struct {
	pool *pgxpool.Pool
}

// Options tunes store construction.
type Options struct {
	// Migrate applies the embedded schema before the pool is returned.
	Migrate bool
}

// NewStore connects a pool and optionally runs migrations.
func NewStore(ctx context.Context, databaseURL string, opts Options) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if opts.Migrate {
		if err := RunMigrations(databaseURL); err != nil {
			return nil, err
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

const userColumns = `id, name, email, phone, role, password_hash, created_at`

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (id, name, email, phone, role, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns
	row := s.pool.QueryRow(ctx, query, user.ID, user.Name, user.Email, user.Phone, string(user.Role.OrDefault()), user.PasswordHash)
	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	return created, nil
}

// GetUser fetches a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// FindByEmail fetches a user by email address.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// ListUsers returns every user, newest first.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateUser changes the non-nil patch fields.
func (s *Store) UpdateUser(ctx context.Context, id string, patch storage.UserPatch) (models.User, error) {
	var role *string
	if patch.Role != nil {
		r := string(*patch.Role)
		role = &r
	}
	const query = `
		UPDATE users SET
			name = COALESCE($2, name),
			role = COALESCE($3, role),
			phone = CASE WHEN $4::boolean THEN $5 ELSE phone END
		WHERE id = $1
		RETURNING ` + userColumns
	row := s.pool.QueryRow(ctx, query, id, patch.Name, role, patch.Phone != nil, patch.Phone)
	return scanUser(row)
}

// DeleteUser removes a user and, through the foreign key, their movements.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// PromoteIfFirst grants ADMIN to id when it is the oldest account.
func (s *Store) PromoteIfFirst(ctx context.Context, id string) (models.User, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("begin promote: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Waits out uncommitted registrations and serializes concurrent promotions.
	if _, err := tx.Exec(ctx, `LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return models.User{}, fmt.Errorf("lock users: %w", err)
	}
	const query = `
		UPDATE users SET role = CASE
			WHEN id = (SELECT id FROM users ORDER BY created_at, id LIMIT 1) THEN 'ADMIN'
			ELSE role
		END
		WHERE id = $1
		RETURNING ` + userColumns
	user, err := scanUser(tx.QueryRow(ctx, query, id))
	if err != nil {
		return models.User{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return models.User{}, fmt.Errorf("commit promote: %w", err)
	}
	return user, nil
}

const movementSelect = `
	SELECT m.id, m.amount, m.concept, m.date, m.type, m.user_id, u.name, u.email
	FROM movements m
	JOIN users u ON u.id = m.user_id`

// CreateMovement inserts a movement for an existing user.
func (s *Store) CreateMovement(ctx context.Context, m models.Movement) (models.Movement, error) {
	const query = `
		INSERT INTO movements (amount, concept, date, type, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, amount, concept, date, type, user_id`
	row := s.pool.QueryRow(ctx, query, m.Amount.String(), m.Concept, m.Date, string(m.Type), m.UserID)
	created, err := scanMovement(row, false)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return models.Movement{}, fmt.Errorf("movement owner %s: %w", m.UserID, storage.ErrNotFound)
		}
		return models.Movement{}, err
	}
	return created, nil
}

// GetMovement fetches a movement with its owner.
func (s *Store) GetMovement(ctx context.Context, id int64) (models.Movement, error) {
	row := s.pool.QueryRow(ctx, movementSelect+` WHERE m.id = $1`, id)
	return scanMovement(row, true)
}

// ListMovements returns every movement ordered by date.
func (s *Store) ListMovements(ctx context.Context, order storage.SortOrder) ([]models.Movement, error) {
	direction := "DESC"
	if order == storage.Ascending {
		direction = "ASC"
	}
	rows, err := s.pool.Query(ctx, movementSelect+` ORDER BY m.date `+direction+`, m.id `+direction)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	movements := []models.Movement{}
	for rows.Next() {
		m, err := scanMovement(rows, true)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// UpdateMovement changes the non-nil patch fields.
func (s *Store) UpdateMovement(ctx context.Context, id int64, patch storage.MovementPatch) (models.Movement, error) {
	var amount, kind *string
	if patch.Amount != nil {
		a := patch.Amount.String()
		amount = &a
	}
	if patch.Type != nil {
		t := string(*patch.Type)
		kind = &t
	}
	const query = `
		UPDATE movements SET
			amount = COALESCE($2, amount),
			concept = COALESCE($3, concept),
			date = COALESCE($4, date),
			type = COALESCE($5, type)
		WHERE id = $1
		RETURNING id, amount, concept, date, type, user_id`
	row := s.pool.QueryRow(ctx, query, id, amount, patch.Concept, patch.Date, kind)
	return scanMovement(row, false)
}

// DeleteMovement removes a movement.
func (s *Store) DeleteMovement(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM movements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete movement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	var role string
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Phone, &role, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	user.Role = models.Role(role)
	return user, nil
}

func scanMovement(row pgx.Row, withOwner bool) (models.Movement, error) {
	var (
		m      models.Movement
		amount string
		kind   string
		dest   = []any{&m.ID, &amount, &m.Concept, &m.Date, &kind, &m.UserID}
		owner  models.UserRef
	)
	if withOwner {
		dest = append(dest, &owner.Name, &owner.Email)
	}
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Movement{}, storage.ErrNotFound
		}
		return models.Movement{}, err
	}
	m.Amount = models.StringAmount(amount)
	m.Type = models.MovementType(strings.ToUpper(kind))
	if withOwner {
		owner.ID = m.UserID
		m.User = &owner
	}
	return m, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
