// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/NVIDIA/server-builder/pkg/catalog"
	cberrors "github.com/NVIDIA/server-builder/pkg/errors"
)

// Dialect selects placeholder syntax and driver.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS configurations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS components (
		instance_id TEXT PRIMARY KEY,
		configuration_id TEXT NOT NULL,
		category TEXT NOT NULL,
		component_id TEXT NOT NULL,
		label TEXT NOT NULL DEFAULT '',
		quantity INTEGER NOT NULL,
		slot_position INTEGER,
		added_at TEXT NOT NULL,
		seq INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS components_configuration ON components (configuration_id, seq)`,
	`CREATE TABLE IF NOT EXISTS inventory (
		id TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL DEFAULT '',
		serial TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL
	)`,
}

// SQL is a Store over database/sql.
type SQL struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// OpenSQL opens dsn with the driver of dialect and creates the tables.
// For SQLite, ":memory:" or "file:name?mode=memory" yields a private
// in-memory database.
func OpenSQL(ctx context.Context, dialect Dialect, dsn string) (*SQL, error) {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// one connection keeps in-memory databases shared and serializes writers
		db.SetMaxOpenConns(1)
	}
	s, err := NewSQL(ctx, db, dialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQL wraps an open database and creates the tables.
func NewSQL(ctx context.Context, db *sql.DB, dialect Dialect) (*SQL, error) {
	s := &SQL{db: db, dialect: dialect, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQL) migrate(ctx context.Context) error {
	for _, q := range schema {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return cberrors.Wrap(cberrors.ErrCodeInternal, "failed to migrate store schema", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders for dialects that number them.
func (s *SQL) rebind(q string) string {
	if s.dialect != DialectPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// CreateConfiguration implements ConfigurationStore.
func (s *SQL) CreateConfiguration(ctx context.Context, name string) (*Snapshot, error) {
	id := uuid.NewString()
	now := s.now().UTC()
	_, err := s.db.ExecContext(ctx,
		s.rebind(`INSERT INTO configurations (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`),
		id, name, formatTime(now), formatTime(now))
	if err != nil {
		return nil, cberrors.Wrap(cberrors.ErrCodeInternal, "failed to create configuration", err)
	}
	return &Snapshot{ID: id, Name: name, CreatedAt: now, UpdatedAt: now, Components: map[catalog.Category][]InventoryRef{}}, nil
}

// ListConfigurations implements ConfigurationStore.
func (s *SQL) ListConfigurations(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.updated_at, COALESCE(SUM(p.quantity), 0)
		FROM configurations c
		LEFT JOIN components p ON p.configuration_id = c.id
		GROUP BY c.id, c.name, c.updated_at`)
	if err != nil {
		return nil, cberrors.Wrap(cberrors.ErrCodeInternal, "failed to list configurations", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Summary
	for rows.Next() {
		var (
			sum     Summary
			updated string
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &updated, &sum.Components); err != nil {
			return nil, cberrors.Wrap(cberrors.ErrCodeInternal, "failed to scan configuration", err)
		}
		sum.UpdatedAt = parseTime(updated)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, cberrors.Wrap(cberrors.ErrCodeInternal, "failed to list configurations", err)
	}
	sortSummaries(out)
	return out, nil
}

// GetConfiguration implements ConfigurationStore.
func (s *SQL) GetConfiguration(ctx context.Context, id string) (*Snapshot, error) {
	snap := &Snapshot{ID: id, Components: map[catalog.Category][]InventoryRef{}}
	var created, updated string
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT name, created_at, updated_at FROM configurations WHERE id = ?`), id).
		Scan(&snap.Name, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, configurationNotFound(id)
	}
	if err != nil {
		return nil, cberrors.Wrap(cberrors.ErrCodeInternal, "failed to read configuration", err)
	}
	snap.CreatedAt, snap.UpdatedAt = parseTime(created), parseTime(updated)

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT category, component_id, label, quantity, slot_position, instance_id, added_at
		FROM components WHERE configuration_id = ? ORDER BY seq`), id)
	if err != nil {
		return nil, cberrors.Wrap(cberrors.ErrCodeInternal, "failed to read components", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			ref      InventoryRef
			category string
			slot     sql.NullInt64
			added    string
		)
		if err := rows.Scan(&category, &ref.ID, &ref.Label, &ref.Quantity, &slot, &ref.InstanceID, &added); err != nil {
			return nil, cberrors.Wrap(cberrors.ErrCodeInternal, "failed to scan component", err)
		}
		if slot.Valid {
			v := int(slot.Int64)
			ref.SlotPosition = &v
		}
		ref.AddedAt = parseTime(added)
		c := catalog.Category(category)
		snap.Components[c] = append(snap.Components[c], ref)
	}
	if err := rows.Err(); err != nil {
		return nil, cberrors.Wrap(cberrors.ErrCodeInternal, "failed to read components", err)
	}
	return snap, nil
}

// AddComponent implements ConfigurationStore.
func (s *SQL) AddComponent(ctx context.Context, id string, c catalog.Category, componentID string, quantity int, slotPosition *int) (Result, error) {
	if err := validateAdd(c, componentID, quantity); err != nil {
		return Result{Message: err.Error()}, err
	}
	if quantity == 0 {
		quantity = 1
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Result{Message: "store unavailable"}, cberrors.Wrap(cberrors.ErrCodeInternal, "failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.exists(ctx, tx, id); err != nil {
		return Result{Message: "configuration not found"}, err
	}

	if !catalog.InfoFor(c).Multiple {
		var n int
		if err := tx.QueryRowContext(ctx,
			s.rebind(`SELECT COUNT(*) FROM components WHERE configuration_id = ? AND category = ?`), id, string(c)).
			Scan(&n); err != nil {
			return Result{Message: "store unavailable"}, cberrors.Wrap(cberrors.ErrCodeInternal, "failed to count components", err)
		}
		if n > 0 || quantity > 1 {
			return rejected(singleInstanceMessage(c), map[string]any{"configuration": id, "category": string(c)})
		}
	}

	var label string
	err = tx.QueryRowContext(ctx, s.rebind(`SELECT serial FROM inventory WHERE id = ?`), componentID).Scan(&label)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Result{Message: "store unavailable"}, cberrors.Wrap(cberrors.ErrCodeInternal, "failed to read inventory", err)
	}

	var slot any
	if slotPosition != nil {
		slot = *slotPosition
	}
	instanceID := uuid.NewString()
	now := formatTime(s.now())
	if _, err := tx.ExecContext(ctx, s.rebind(`
		INSERT INTO components (instance_id, configuration_id, category, component_id, label, quantity, slot_position, added_at, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM components WHERE configuration_id = ?))`),
		instanceID, id, string(c), componentID, label, quantity, slot, now, id); err != nil {
		return Result{Message: "store unavailable"}, cberrors.Wrap(cberrors.ErrCodeInternal, "failed to insert component", err)
	}
	if err := s.touch(ctx, tx, id, now); err != nil {
		return Result{Message: "store unavailable"}, err
	}
	if err := tx.Commit(); err != nil {
		return Result{Message: "store unavailable"}, cberrors.Wrap(cberrors.ErrCodeInternal, "failed to commit", err)
	}
	return Result{Success: true, Message: fmt.Sprintf("%s added", catalog.InfoFor(c).Name), InstanceID: instanceID}, nil
}

// RemoveComponent implements ConfigurationStore.
func (s *SQL) RemoveComponent(ctx context.Context, id string, c catalog.Category, instanceID string) (Result, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Result{Message: "store unavailable"}, cberrors.Wrap(cberrors.ErrCodeInternal, "failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.exists(ctx, tx, id); err != nil {
		return Result{Message: "configuration not found"}, err
	}

	res, err := tx.ExecContext(ctx,
		s.rebind(`DELETE FROM components WHERE configuration_id = ? AND category = ? AND instance_id = ?`),
		id, string(c), instanceID)
	if err != nil {
		return Result{Message: "store unavailable"}, cberrors.Wrap(cberrors.ErrCodeInternal, "failed to delete component", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return rejected("Component not found in configuration",
			map[string]any{"configuration": id, "category": string(c), "instanceId": instanceID})
	}
	if err := s.touch(ctx, tx, id, formatTime(s.now())); err != nil {
		return Result{Message: "store unavailable"}, err
	}
	if err := tx.Commit(); err != nil {
		return Result{Message: "store unavailable"}, cberrors.Wrap(cberrors.ErrCodeInternal, "failed to commit", err)
	}
	return Result{Success: true, Message: fmt.Sprintf("%s removed", catalog.InfoFor(c).Name), InstanceID: instanceID}, nil
}

func (s *SQL) exists(ctx context.Context, tx *sql.Tx, id string) error {
	var one int
	err := tx.QueryRowContext(ctx, s.rebind(`SELECT 1 FROM configurations WHERE id = ?`), id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return configurationNotFound(id)
	}
	if err != nil {
		return cberrors.Wrap(cberrors.ErrCodeInternal, "failed to read configuration", err)
	}
	return nil
}

func (s *SQL) touch(ctx context.Context, tx *sql.Tx, id, now string) error {
	if _, err := tx.ExecContext(ctx, s.rebind(`UPDATE configurations SET updated_at = ? WHERE id = ?`), now, id); err != nil {
		return cberrors.Wrap(cberrors.ErrCodeInternal, "failed to update configuration", err)
	}
	return nil
}

// ListInventory implements Inventory.
func (s *SQL) ListInventory(ctx context.Context, c catalog.Category, status InventoryStatus) ([]InventoryItem, error) {
	q := `SELECT id, category, name, model, serial, status FROM inventory WHERE category = ?`
	args := []any{string(c)}
	if status != "" {
		q += ` AND status = ?`
		args = append(args, string(status))
	}
	q += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, s.rebind(q), args...)
	if err != nil {
		return nil, cberrors.Wrap(cberrors.ErrCodeInternal, "failed to list inventory", err)
	}
	defer func() { _ = rows.Close() }()

	var out []InventoryItem
	for rows.Next() {
		var (
			it               InventoryItem
			category, status string
		)
		if err := rows.Scan(&it.ID, &category, &it.Name, &it.Model, &it.Serial, &status); err != nil {
			return nil, cberrors.Wrap(cberrors.ErrCodeInternal, "failed to scan inventory", err)
		}
		it.Category, it.Status = catalog.Category(category), InventoryStatus(status)
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, cberrors.Wrap(cberrors.ErrCodeInternal, "failed to list inventory", err)
	}
	return out, nil
}

// PutInventory implements Inventory.
func (s *SQL) PutInventory(ctx context.Context, items ...InventoryItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return cberrors.Wrap(cberrors.ErrCodeInternal, "failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, it := range items {
		if it.ID == "" {
			return cberrors.New(cberrors.ErrCodeInvalidRequest, "inventory item id is required")
		}
		if it.Status == "" {
			it.Status = StatusAvailable
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM inventory WHERE id = ?`), it.ID); err != nil {
			return cberrors.Wrap(cberrors.ErrCodeInternal, "failed to replace inventory item", err)
		}
		if _, err := tx.ExecContext(ctx,
			s.rebind(`INSERT INTO inventory (id, category, name, model, serial, status) VALUES (?, ?, ?, ?, ?, ?)`),
			it.ID, string(it.Category), it.Name, it.Model, it.Serial, string(it.Status)); err != nil {
			return cberrors.Wrap(cberrors.ErrCodeInternal, "failed to insert inventory item", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return cberrors.Wrap(cberrors.ErrCodeInternal, "failed to commit", err)
	}
	return nil
}

// ClaimInventory implements Inventory.
func (s *SQL) ClaimInventory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		s.rebind(`UPDATE inventory SET status = ? WHERE id = ? AND status = ?`),
		string(StatusInUse), id, string(StatusAvailable))
	if err != nil {
		return cberrors.Wrap(cberrors.ErrCodeInternal, "failed to claim inventory item", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	var status string
	err = s.db.QueryRowContext(ctx, s.rebind(`SELECT status FROM inventory WHERE id = ?`), id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return cberrors.NewWithContext(cberrors.ErrCodeNotFound, "inventory item not found", map[string]any{"id": id})
	}
	if err != nil {
		return cberrors.Wrap(cberrors.ErrCodeInternal, "failed to read inventory item", err)
	}
	_, rerr := rejected("inventory item is not available", map[string]any{"id": id, "status": status})
	return rerr
}

// Close implements Store.
func (s *SQL) Close() error {
	return s.db.Close()
}
