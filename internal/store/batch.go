package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Batch represents a generated label sheet stored in the database.
type Batch struct {
	ID          string
	Name        string
	PageSize    string
	SerialCount int
	CreatedAt   time.Time
}

// BatchRepository provides CRUD operations for label batches.
type BatchRepository struct {
	db *sql.DB
}

// Batches returns the batch repository for this store.
func (s *Store) Batches() *BatchRepository {
	return &BatchRepository{db: s.db}
}

// Create inserts a batch and its serials in a single transaction. The
// serials keep their sheet order. A missing ID is assigned a fresh UUID.
func (r *BatchRepository) Create(b *Batch, serials []string) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.PageSize == "" {
		b.PageSize = "A4"
	}
	b.SerialCount = len(serials)
	b.CreatedAt = time.Now()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO batches (id, name, page_size, serial_count, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.PageSize, b.SerialCount, b.CreatedAt,
	)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO batch_serials (batch_id, position, serial) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, serial := range serials {
		if _, err := stmt.Exec(b.ID, i, serial); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByID retrieves a batch by its ID.
func (r *BatchRepository) GetByID(id string) (*Batch, error) {
	b := &Batch{}

	err := r.db.QueryRow(
		`SELECT id, name, page_size, serial_count, created_at
		 FROM batches WHERE id = ?`,
		id,
	).Scan(&b.ID, &b.Name, &b.PageSize, &b.SerialCount, &b.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return b, nil
}

// List retrieves all batches from the database, newest first.
func (r *BatchRepository) List() ([]*Batch, error) {
	rows, err := r.db.Query(
		`SELECT id, name, page_size, serial_count, created_at
		 FROM batches ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []*Batch
	for rows.Next() {
		b := &Batch{}

		err := rows.Scan(&b.ID, &b.Name, &b.PageSize, &b.SerialCount, &b.CreatedAt)
		if err != nil {
			return nil, err
		}

		batches = append(batches, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return batches, nil
}

// Serials retrieves a batch's serials in sheet order.
func (r *BatchRepository) Serials(batchID string) ([]string, error) {
	if _, err := r.GetByID(batchID); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(
		`SELECT serial FROM batch_serials WHERE batch_id = ? ORDER BY position`,
		batchID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var serials []string
	for rows.Next() {
		var serial string
		if err := rows.Scan(&serial); err != nil {
			return nil, err
		}
		serials = append(serials, serial)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return serials, nil
}

// Delete removes a batch and its serials by batch ID.
func (r *BatchRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM batches WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
