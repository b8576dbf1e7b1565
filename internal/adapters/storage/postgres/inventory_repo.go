package postgres

import (
	"context"
	"database/sql"
	"errors"

	"vet-clinic/internal/domain/inventory"
	"vet-clinic/internal/platform/apperr"
)

type InventoryRepo struct {
	db *DB
}

func NewInventoryRepo(db *DB) *InventoryRepo {
	return &InventoryRepo{db: db}
}

const itemColumns = `id, name, category, quantity, min_quantity, price, unit, supplier, created_at, updated_at`

func scanItem(s interface{ Scan(...any) error }, it *inventory.Item) error {
	return s.Scan(&it.ID, &it.Name, &it.Category, &it.Quantity, &it.MinQuantity, &it.Price, &it.Unit, &it.Supplier, &it.CreatedAt, &it.UpdatedAt)
}

func (r *InventoryRepo) Create(ctx context.Context, it inventory.Item) error {
	return r.db.write(ctx, "inventory.create", func(ctx context.Context) error {
		_, err := r.db.sql.ExecContext(ctx, `
			INSERT INTO inventory (`+itemColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`, it.ID, it.Name, it.Category, it.Quantity, it.MinQuantity, it.Price, it.Unit, it.Supplier, it.CreatedAt, it.UpdatedAt)
		return err
	})
}

func (r *InventoryRepo) Get(ctx context.Context, id string) (inventory.Item, error) {
	var it inventory.Item
	err := r.db.read(ctx, "inventory.get", func(ctx context.Context) error {
		row := r.db.sql.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM inventory WHERE id = $1`, id)
		if err := scanItem(row, &it); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.NotFound("inventory.get", id)
			}
			return err
		}
		return nil
	})
	return it, err
}

// Update es la edición manual: last-write-wins sobre quantity incluido.
func (r *InventoryRepo) Update(ctx context.Context, it inventory.Item) error {
	return r.db.write(ctx, "inventory.update", func(ctx context.Context) error {
		res, err := r.db.sql.ExecContext(ctx, `
			UPDATE inventory
			SET name = $2, category = $3, quantity = $4, min_quantity = $5, price = $6,
			    unit = $7, supplier = $8, updated_at = $9
			WHERE id = $1
		`, it.ID, it.Name, it.Category, it.Quantity, it.MinQuantity, it.Price, it.Unit, it.Supplier, it.UpdatedAt)
		if err != nil {
			return err
		}
		return rowsAffected(res, "inventory.update", it.ID)
	})
}

func (r *InventoryRepo) Delete(ctx context.Context, id string) error {
	return r.db.write(ctx, "inventory.delete", func(ctx context.Context) error {
		res, err := r.db.sql.ExecContext(ctx, `DELETE FROM inventory WHERE id = $1`, id)
		if err != nil {
			return err
		}
		return rowsAffected(res, "inventory.delete", id)
	})
}

func (r *InventoryRepo) List(ctx context.Context, filter inventory.ListFilter) ([]inventory.Item, error) {
	q := `SELECT ` + itemColumns + ` FROM inventory`
	if filter.LowOnly {
		q += ` WHERE quantity <= min_quantity`
	}
	q += ` ORDER BY name ASC`

	var out []inventory.Item
	err := r.db.read(ctx, "inventory.list", func(ctx context.Context) error {
		rows, err := r.db.sql.QueryContext(ctx, q)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]inventory.Item, 0)
		for rows.Next() {
			var it inventory.Item
			if err := scanItem(rows, &it); err != nil {
				return err
			}
			out = append(out, it)
		}
		return rows.Err()
	})
	return out, err
}

// Decrement es una escritura condicional: solo resta si alcanza. Si no hubo
// fila afectada se distingue entre ítem inexistente y stock insuficiente.
func (r *InventoryRepo) Decrement(ctx context.Context, id string, amount int) (int, error) {
	var left int
	err := r.db.write(ctx, "inventory.decrement", func(ctx context.Context) error {
		err := r.db.sql.QueryRowContext(ctx, `
			UPDATE inventory
			SET quantity = quantity - $2, updated_at = now()
			WHERE id = $1 AND quantity >= $2
			RETURNING quantity
		`, id, amount).Scan(&left)
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		var current int
		err = r.db.sql.QueryRowContext(ctx, `SELECT quantity FROM inventory WHERE id = $1`, id).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("inventory.decrement", id)
		}
		if err != nil {
			return err
		}
		left = current
		return apperr.E(apperr.ErrInsufficientStock, "inventory.decrement", id, nil)
	})
	return left, err
}
