package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tkorkmaz/portfolio-tracker-backend/internal/apperrors"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/model"
)

// PortfolioRepository provides data access for the portfolio table. Each row
// maps a unique portfolio name to its versioned container, stored as one
// JSON document. A put is a plain read-modify-write with no conflict
// detection; concurrent saves to the same name race and the last write wins.
type PortfolioRepository struct {
	db *sql.DB
}

// NewPortfolioRepository creates a new PortfolioRepository with the provided
// database connection.
func NewPortfolioRepository(db *sql.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// GetAll retrieves the id and name of every stored portfolio, ordered by name.
func (r *PortfolioRepository) GetAll() ([]model.PortfolioRecord, error) {
	rows, err := r.db.Query(`SELECT id, name FROM portfolio ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio table: %w", err)
	}
	defer rows.Close()

	records := []model.PortfolioRecord{}
	for rows.Next() {
		var rec model.PortfolioRecord
		if err := rows.Scan(&rec.ID, &rec.Name); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio table: %w", err)
	}

	return records, nil
}

// GetByName retrieves the versioned container for a portfolio name.
// Returns apperrors.ErrPortfolioNotFound when no row exists.
func (r *PortfolioRepository) GetByName(name string) (model.VersionContainer, error) {
	var (
		id   string
		data []byte
	)
	err := r.db.QueryRow(`SELECT id, data FROM portfolio WHERE name = ?`, name).Scan(&id, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return model.VersionContainer{}, apperrors.ErrPortfolioNotFound
	}
	if err != nil {
		return model.VersionContainer{}, fmt.Errorf("failed to query portfolio: %w", err)
	}

	var container model.VersionContainer
	if err := json.Unmarshal(data, &container); err != nil {
		return model.VersionContainer{}, fmt.Errorf("failed to decode portfolio container: %w", err)
	}
	container.ID = id
	container.Name = name

	return container, nil
}

// Put stores the container under its name, inserting a new row for a new
// name and replacing the document otherwise. On insert a fresh UUID is
// assigned and written back to the container.
func (r *PortfolioRepository) Put(container *model.VersionContainer) error {
	data, err := json.Marshal(container)
	if err != nil {
		return fmt.Errorf("failed to encode portfolio container: %w", err)
	}

	now := time.Now().UTC()

	if container.ID == "" {
		container.ID = uuid.New().String()
		_, err = r.db.Exec(
			`INSERT INTO portfolio (id, name, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			container.ID, container.Name, data, now, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert portfolio: %w", err)
		}
		return nil
	}

	res, err := r.db.Exec(
		`UPDATE portfolio SET data = ?, updated_at = ? WHERE id = ?`,
		data, now, container.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update portfolio: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrPortfolioNotFound
	}

	return nil
}

// Delete removes the container for a portfolio name.
// Returns apperrors.ErrPortfolioNotFound when no row exists.
func (r *PortfolioRepository) Delete(name string) error {
	res, err := r.db.Exec(`DELETE FROM portfolio WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrPortfolioNotFound
	}

	return nil
}
