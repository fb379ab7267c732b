// Package categories persists part categories.
package categories

import (
	"context"

	"github.com/dmitrijs2005/partsinventory/internal/server/models"
)

// Repository stores part categories. Absent ids return common.ErrorNotFound,
// duplicate names common.ErrorAlreadyExists.
type Repository interface {
	Create(ctx context.Context, c *models.PartCategory) (*models.PartCategory, error)
	FindByID(ctx context.Context, id string) (*models.PartCategory, error)
	List(ctx context.Context) ([]*models.PartCategory, error)
	Delete(ctx context.Context, id string) error
}
