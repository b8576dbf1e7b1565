package postgres

import (
	"context"
	"strconv"

	"vet-clinic/internal/domain/activity"
)

type ActivityRepo struct {
	db *DB
}

func NewActivityRepo(db *DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

func (r *ActivityRepo) Append(ctx context.Context, e activity.Entry) error {
	return r.db.write(ctx, "activity.append", func(ctx context.Context) error {
		_, err := r.db.sql.ExecContext(ctx, `
			INSERT INTO activity (
				id, owner_id, patient_id, type,
				occurred_at, recorded_at, title, notes,
				actor_uid, actor_role, ref
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		`, e.ID, e.OwnerID, e.PatientID, string(e.Type),
			e.OccurredAt, e.RecordedAt, e.Title, e.Notes,
			e.Actor.UID, e.Actor.Role, e.Ref)
		return err
	})
}

func (r *ActivityRepo) ListByPatient(ctx context.Context, ownerID, patientID string, filter activity.ListFilter) ([]activity.Entry, error) {
	q := `
		SELECT id, owner_id, patient_id, type, occurred_at, recorded_at, title, notes, actor_uid, actor_role, ref
		FROM activity
		WHERE owner_id = $1 AND patient_id = $2`
	args := []any{ownerID, patientID}

	if len(filter.Types) > 0 {
		types := make([]string, 0, len(filter.Types))
		for _, t := range filter.Types {
			types = append(types, string(t))
		}
		args = append(args, types)
		q += ` AND type = ANY($` + strconv.Itoa(len(args)) + `)`
	}
	q += ` ORDER BY occurred_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		q += ` LIMIT $` + strconv.Itoa(len(args))
	}

	var out []activity.Entry
	err := r.db.read(ctx, "activity.list", func(ctx context.Context) error {
		rows, err := r.db.sql.QueryContext(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]activity.Entry, 0)
		for rows.Next() {
			var e activity.Entry
			var typ string
			if err := rows.Scan(&e.ID, &e.OwnerID, &e.PatientID, &typ, &e.OccurredAt, &e.RecordedAt,
				&e.Title, &e.Notes, &e.Actor.UID, &e.Actor.Role, &e.Ref); err != nil {
				return err
			}
			e.Type = activity.Type(typ)
			out = append(out, e)
		}
		return rows.Err()
	})
	return out, err
}

func (r *ActivityRepo) DeleteByPatient(ctx context.Context, ownerID, patientID string) error {
	return r.db.write(ctx, "activity.delete_by_patient", func(ctx context.Context) error {
		_, err := r.db.sql.ExecContext(ctx, `DELETE FROM activity WHERE owner_id = $1 AND patient_id = $2`, ownerID, patientID)
		return err
	})
}
