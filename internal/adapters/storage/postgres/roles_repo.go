package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"vet-clinic/internal/domain/permissions"
	"vet-clinic/internal/platform/apperr"
)

type RolesRepo struct {
	db *DB
}

func NewRolesRepo(db *DB) *RolesRepo {
	return &RolesRepo{db: db}
}

func (r *RolesRepo) Get(ctx context.Context, role permissions.Role) ([]permissions.Permission, error) {
	var raw []byte
	err := r.db.read(ctx, "roles.get", func(ctx context.Context) error {
		err := r.db.sql.QueryRowContext(ctx, `SELECT permissions FROM roles WHERE role = $1`, string(role)).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("roles.get", string(role))
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return decodePerms(raw)
}

// CreateIfAbsent: INSERT ... ON CONFLICT DO NOTHING y luego se lee lo que quedó.
// Dos seeds concurrentes terminan con una sola escritura.
func (r *RolesRepo) CreateIfAbsent(ctx context.Context, role permissions.Role, perms []permissions.Permission) ([]permissions.Permission, bool, error) {
	raw, err := json.Marshal(perms)
	if err != nil {
		return nil, false, err
	}

	var created bool
	err = r.db.write(ctx, "roles.create_if_absent", func(ctx context.Context) error {
		res, err := r.db.sql.ExecContext(ctx, `
			INSERT INTO roles (role, permissions, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (role) DO NOTHING
		`, string(role), raw)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		created = n == 1
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		return perms, true, nil
	}

	stored, err := r.Get(ctx, role)
	if err != nil {
		return nil, false, err
	}
	return stored, false, nil
}

func (r *RolesRepo) Replace(ctx context.Context, role permissions.Role, perms []permissions.Permission) error {
	raw, err := json.Marshal(perms)
	if err != nil {
		return err
	}
	return r.db.write(ctx, "roles.replace", func(ctx context.Context) error {
		_, err := r.db.sql.ExecContext(ctx, `
			INSERT INTO roles (role, permissions, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (role) DO UPDATE SET permissions = EXCLUDED.permissions, updated_at = now()
		`, string(role), raw)
		return err
	})
}

func decodePerms(raw []byte) ([]permissions.Permission, error) {
	var perms []permissions.Permission
	if err := json.Unmarshal(raw, &perms); err != nil {
		return nil, err
	}
	return perms, nil
}
