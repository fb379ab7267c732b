package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/partsinventory/internal/logging"
	"github.com/dmitrijs2005/partsinventory/internal/server/auth"
	"github.com/dmitrijs2005/partsinventory/internal/server/models"
	"github.com/dmitrijs2005/partsinventory/internal/server/repositories/repomanager"
)

// CategoryInput is a new part category.
type CategoryInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ParentID    *string `json:"parent_id"`
}

type CategoryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewCategoryService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *CategoryService {
	return &CategoryService{db: db, repomanager: m, log: log}
}

func (s *CategoryService) List(ctx context.Context) ([]*models.PartCategory, error) {
	list, err := s.repomanager.Categories(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing categories: %w", err)
	}
	return list, nil
}

func (s *CategoryService) Get(ctx context.Context, id string) (*models.PartCategory, error) {
	c, err := s.repomanager.Categories(s.db).FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error loading category: %w", err)
	}
	return c, nil
}

// Create adds a category. Any authenticated user may create one.
func (s *CategoryService) Create(ctx context.Context, requester *models.Identity, in CategoryInput) (*models.PartCategory, error) {
	if err := auth.RequireAuthenticated(requester); err != nil {
		return nil, err
	}

	v := &validator{}
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		v.fail("name", "Name is required")
	case len(name) > maxCategoryName:
		v.fail("name", fmt.Sprintf("Name must be at most %d characters", maxCategoryName))
	}
	if in.ParentID != nil && strings.TrimSpace(*in.ParentID) == "" {
		in.ParentID = nil
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	c, err := s.repomanager.Categories(s.db).Create(ctx, &models.PartCategory{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		ParentID:    in.ParentID,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating category: %w", err)
	}
	s.log.Info(ctx, "category created", "category_id", c.ID, "user_id", requester.UserID)
	return c, nil
}

// Delete removes a category. Only admins may delete categories.
func (s *CategoryService) Delete(ctx context.Context, requester *models.Identity, id string) error {
	if err := auth.RequireRole(requester, models.RoleAdmin); err != nil {
		return err
	}
	if err := s.repomanager.Categories(s.db).Delete(ctx, id); err != nil {
		return fmt.Errorf("error deleting category: %w", err)
	}
	return nil
}
