package postgres

import (
	"context"
	"database/sql"
	"errors"

	"vet-clinic/internal/domain/permissions"
	"vet-clinic/internal/domain/users"
	"vet-clinic/internal/platform/apperr"
)

type UsersRepo struct {
	db *DB
}

func NewUsersRepo(db *DB) *UsersRepo {
	return &UsersRepo{db: db}
}

func (r *UsersRepo) Create(ctx context.Context, u users.User) error {
	return r.db.write(ctx, "users.create", func(ctx context.Context) error {
		_, err := r.db.sql.ExecContext(ctx, `
			INSERT INTO users (uid, email, nombre, role, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, u.UID, u.Email, u.Nombre, string(u.Role), u.CreatedAt, u.UpdatedAt)
		return err
	})
}

func (r *UsersRepo) Update(ctx context.Context, u users.User) error {
	return r.db.write(ctx, "users.update", func(ctx context.Context) error {
		res, err := r.db.sql.ExecContext(ctx, `
			UPDATE users SET email = $2, nombre = $3, role = $4, updated_at = $5
			WHERE uid = $1
		`, u.UID, u.Email, u.Nombre, string(u.Role), u.UpdatedAt)
		if err != nil {
			return err
		}
		return rowsAffected(res, "users.update", u.UID)
	})
}

func (r *UsersRepo) GetByUID(ctx context.Context, uid string) (users.User, error) {
	var u users.User
	err := r.db.read(ctx, "users.get", func(ctx context.Context) error {
		var role string
		err := r.db.sql.QueryRowContext(ctx, `
			SELECT uid, email, nombre, role, created_at, updated_at
			FROM users WHERE uid = $1
		`, uid).Scan(&u.UID, &u.Email, &u.Nombre, &role, &u.CreatedAt, &u.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("users.get", uid)
		}
		u.Role = permissions.Role(role)
		return err
	})
	return u, err
}

func (r *UsersRepo) List(ctx context.Context) ([]users.User, error) {
	var out []users.User
	err := r.db.read(ctx, "users.list", func(ctx context.Context) error {
		rows, err := r.db.sql.QueryContext(ctx, `
			SELECT uid, email, nombre, role, created_at, updated_at
			FROM users ORDER BY email ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]users.User, 0)
		for rows.Next() {
			var u users.User
			var role string
			if err := rows.Scan(&u.UID, &u.Email, &u.Nombre, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
				return err
			}
			u.Role = permissions.Role(role)
			out = append(out, u)
		}
		return rows.Err()
	})
	return out, err
}

func (r *UsersRepo) CountByRole(ctx context.Context, role permissions.Role) (int, error) {
	var n int
	err := r.db.read(ctx, "users.count_by_role", func(ctx context.Context) error {
		return r.db.sql.QueryRowContext(ctx, `SELECT count(*) FROM users WHERE role = $1`, string(role)).Scan(&n)
	})
	return n, err
}
