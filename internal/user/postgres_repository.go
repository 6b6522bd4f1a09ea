package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, username, password_hash, google_id, secret, created_at, updated_at`

const uniqueViolation = "23505"

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new Repository backed by the given connection pool.
func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.GoogleID, &u.Secret,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// mapWriteError translates unique violations into repository sentinels.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case "users_username_key":
			return ErrUsernameTaken
		case "users_google_id_key":
			return ErrGoogleIDTaken
		}
	}
	return err
}

func keyColumn(key Key) (string, error) {
	if !key.valid() {
		return "", ErrInvalidKey
	}
	// Column names cannot be bound as parameters; only whitelisted fields reach the query.
	switch key.Field {
	case KeyUsername:
		return "username", nil
	default:
		return "google_id", nil
	}
}

// Create inserts a new user record.
func (r *PostgresRepository) Create(ctx context.Context, u *User) error {
	if !u.Reachable() {
		return ErrUnreachable
	}

	query := `
		INSERT INTO users (username, password_hash, google_id, secret)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		u.Username,
		u.PasswordHash,
		u.GoogleID,
		u.Secret,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if mapped := mapWriteError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

// GetByID retrieves a single user by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("querying user: %w", err)
	}

	return u, nil
}

// Find retrieves a single user by a unique identity field.
func (r *PostgresRepository) Find(ctx context.Context, key Key) (*User, error) {
	column, err := keyColumn(key)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`

	u, err := scanUser(r.pool.QueryRow(ctx, query, key.Value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("querying user by %s: %w", column, err)
	}

	return u, nil
}

// FindOrCreate inserts the built user unless the key's unique index already
// holds a row, in which case the existing row is returned. ON CONFLICT makes
// a racing insert wait for the winner instead of producing a duplicate.
func (r *PostgresRepository) FindOrCreate(ctx context.Context, key Key, build func() *User) (*User, bool, error) {
	column, err := keyColumn(key)
	if err != nil {
		return nil, false, err
	}

	u := build()
	key.apply(u)

	query := `
		INSERT INTO users (username, password_hash, google_id, secret)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (` + column + `) DO NOTHING
		RETURNING ` + userColumns

	created, err := scanUser(r.pool.QueryRow(ctx, query,
		u.Username,
		u.PasswordHash,
		u.GoogleID,
		u.Secret,
	))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		if mapped := mapWriteError(err); mapped != err {
			return nil, false, mapped
		}
		return nil, false, fmt.Errorf("upserting user by %s: %w", column, err)
	}

	existing, err := r.Find(ctx, key)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// SetSecret overwrites the secret of the given user.
func (r *PostgresRepository) SetSecret(ctx context.Context, id uuid.UUID, secret string) error {
	query := `
		UPDATE users
		SET secret = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, secret)
	if err != nil {
		return fmt.Errorf("updating secret: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// ListWithSecrets retrieves all users with a non-empty secret, ordered by creation time.
func (r *PostgresRepository) ListWithSecrets(ctx context.Context) ([]User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE secret IS NOT NULL AND secret <> ''
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing users with secrets: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}

	return users, nil
}

// Ping verifies the database connection is alive.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
