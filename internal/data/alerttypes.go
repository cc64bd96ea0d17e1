package data

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mikesvoboda/foscam-ingest/internal/alerts"
)

type AlertTypeModel struct {
	DB DBTX
}

// SeedCatalog bootstraps the fixed AlertType catalog once at startup; it
// is never mutated at runtime afterward.
func (m AlertTypeModel) SeedCatalog(ctx context.Context) error {
	const upsert = `
		INSERT INTO alert_types (name, priority)
		VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING`

	for _, kind := range alerts.AllKinds {
		if _, err := m.DB.ExecContext(ctx, upsert, string(kind), alerts.Priority[kind]); err != nil {
			return err
		}
	}
	return nil
}

func (m AlertTypeModel) GetByName(ctx context.Context, name string) (*AlertType, error) {
	const query = `SELECT id, name, priority FROM alert_types WHERE name = $1`
	var a AlertType
	err := m.DB.QueryRowContext(ctx, query, name).Scan(&a.ID, &a.Name, &a.Priority)
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	return &a, err
}

func (m AlertTypeModel) List(ctx context.Context) ([]*AlertType, error) {
	const query = `SELECT id, name, priority FROM alert_types ORDER BY priority`
	rows, err := m.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []*AlertType
	for rows.Next() {
		var a AlertType
		if err := rows.Scan(&a.ID, &a.Name, &a.Priority); err != nil {
			return nil, err
		}
		types = append(types, &a)
	}
	return types, rows.Err()
}

// nameToID resolves the catalog rows needed for a set of fired kinds into
// their ids, used when writing DetectionAlert rows inside a commit tx.
func (m AlertTypeModel) nameToID(ctx context.Context, names []string) (map[string]uuid.UUID, error) {
	if len(names) == 0 {
		return map[string]uuid.UUID{}, nil
	}

	const query = `SELECT id, name FROM alert_types WHERE name = ANY($1)`
	rows, err := m.DB.QueryContext(ctx, query, pq.Array(names))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]uuid.UUID, len(names))
	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		result[name] = id
	}
	return result, rows.Err()
}
