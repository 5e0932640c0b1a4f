package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/account-service/internal/domain"
)

type postgresDirectory struct {
	pool       *pgxpool.Pool
	bcryptCost int
}

// NewPostgres returns a Postgres-backed Directory.
func NewPostgres(pool *pgxpool.Pool, bcryptCost int) Directory {
	return &postgresDirectory{pool: pool, bcryptCost: bcryptCost}
}

func (d *postgresDirectory) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	const query = `
        SELECT id, name, email, role, is_active, created_at, updated_at
        FROM identities WHERE id=$1`

	var identity domain.Identity
	if err := d.pool.QueryRow(ctx, query, id).Scan(
		&identity.ID,
		&identity.Name,
		&identity.Email,
		&identity.Role,
		&identity.IsActive,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	); err != nil {
		return nil, mapRowErr(err)
	}
	return &identity, nil
}

func (d *postgresDirectory) FindByEmailWithCredential(ctx context.Context, email string) (*domain.IdentityWithCredential, error) {
	const query = `
        SELECT id, name, email, role, is_active, password_hash, created_at, updated_at
        FROM identities WHERE email=$1`
	return d.scanWithCredential(ctx, query, email)
}

func (d *postgresDirectory) FindByIDWithCredential(ctx context.Context, id string) (*domain.IdentityWithCredential, error) {
	const query = `
        SELECT id, name, email, role, is_active, password_hash, created_at, updated_at
        FROM identities WHERE id=$1`
	return d.scanWithCredential(ctx, query, id)
}

func (d *postgresDirectory) scanWithCredential(ctx context.Context, query, arg string) (*domain.IdentityWithCredential, error) {
	var record domain.IdentityWithCredential
	if err := d.pool.QueryRow(ctx, query, arg).Scan(
		&record.ID,
		&record.Name,
		&record.Email,
		&record.Role,
		&record.IsActive,
		&record.PasswordHash,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		return nil, mapRowErr(err)
	}
	return &record, nil
}

func (d *postgresDirectory) EmailTaken(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM identities WHERE email=$1)`

	var taken bool
	if err := d.pool.QueryRow(ctx, query, email).Scan(&taken); err != nil {
		return false, err
	}
	return taken, nil
}

func (d *postgresDirectory) Create(ctx context.Context, identity *domain.Identity, password string) error {
	hash, err := HashPassword(password, d.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}

	const query = `
        INSERT INTO identities (id, name, email, role, is_active, password_hash)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at, updated_at`

	return d.pool.QueryRow(ctx, query,
		identity.ID,
		identity.Name,
		identity.Email,
		identity.Role,
		identity.IsActive,
		hash,
	).Scan(&identity.CreatedAt, &identity.UpdatedAt)
}

func (d *postgresDirectory) Update(ctx context.Context, identity *domain.Identity) error {
	const query = `
        UPDATE identities SET name=$1, email=$2, role=$3, is_active=$4, updated_at=NOW()
        WHERE id=$5`

	cmd, err := d.pool.Exec(ctx, query,
		identity.Name,
		identity.Email,
		identity.Role,
		identity.IsActive,
		identity.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *postgresDirectory) UpdatePassword(ctx context.Context, id, password string) error {
	hash, err := HashPassword(password, d.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	const query = `UPDATE identities SET password_hash=$1, updated_at=NOW() WHERE id=$2`

	cmd, err := d.pool.Exec(ctx, query, hash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *postgresDirectory) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM identities WHERE id=$1`

	cmd, err := d.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *postgresDirectory) List(ctx context.Context, filter ListFilter) ([]domain.Identity, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	if filter.ExcludeID != "" {
		args = append(args, filter.ExcludeID)
		where += fmt.Sprintf(" AND id <> $%d", len(args))
	}

	var total int
	if err := d.pool.QueryRow(ctx, "SELECT COUNT(*) FROM identities "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * DefaultPageSize
	}
	args = append(args, DefaultPageSize, offset)
	query := fmt.Sprintf(`
        SELECT id, name, email, role, is_active, created_at, updated_at
        FROM identities %s
        ORDER BY name ASC
        LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	identities := make([]domain.Identity, 0, DefaultPageSize)
	for rows.Next() {
		var identity domain.Identity
		if err := rows.Scan(
			&identity.ID,
			&identity.Name,
			&identity.Email,
			&identity.Role,
			&identity.IsActive,
			&identity.CreatedAt,
			&identity.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		identities = append(identities, identity)
	}
	return identities, total, rows.Err()
}

func mapRowErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
