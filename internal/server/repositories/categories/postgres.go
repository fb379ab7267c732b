package categories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/partsinventory/internal/common"
	"github.com/dmitrijs2005/partsinventory/internal/dbx"
	"github.com/dmitrijs2005/partsinventory/internal/server/models"
	"github.com/google/uuid"
)

const categoryColumns = `id, name, description, parent_id, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCategory(s scanner) (*models.PartCategory, error) {
	c := &models.PartCategory{}
	var parent sql.NullString
	if err := s.Scan(&c.ID, &c.Name, &c.Description, &parent, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if parent.Valid {
		c.ParentID = &parent.String
	}
	return c, nil
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.PartCategory) (*models.PartCategory, error) {
	var parent sql.NullString
	if c.ParentID != nil {
		if _, err := uuid.Parse(*c.ParentID); err != nil {
			return nil, fmt.Errorf("%w: parent_id is not a valid id", common.ErrorValidation)
		}
		parent = sql.NullString{String: *c.ParentID, Valid: true}
	}

	query := `
		INSERT INTO part_categories (name, description, parent_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, c.Name, c.Description, parent).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		switch {
		case dbx.IsUniqueViolation(err):
			return nil, common.ErrorAlreadyExists
		case dbx.IsForeignKeyViolation(err):
			return nil, fmt.Errorf("%w: parent category does not exist", common.ErrorValidation)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.PartCategory, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}
	query := `SELECT ` + categoryColumns + ` FROM part_categories WHERE id = $1`
	c, err := scanCategory(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.PartCategory, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM part_categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.PartCategory
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrorNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM part_categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
