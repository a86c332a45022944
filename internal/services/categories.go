package services

import (
	"context"

	"github.com/example/chefdesk/internal/client"
	"github.com/example/chefdesk/internal/models"
)

// CategoryService fetches food categories for the filter picker.
type CategoryService struct {
	gw     *client.Gateway
	tokens TokenProvider
}

// NewCategoryService constructs CategoryService.
func NewCategoryService(gw *client.Gateway, tokens TokenProvider) *CategoryService {
	return &CategoryService{gw: gw, tokens: tokens}
}

// FetchCategories returns all food categories.
func (s *CategoryService) FetchCategories(ctx context.Context) ([]models.Category, error) {
	res, err := s.gw.Get(ctx, categoriesPath, nil, s.tokens.Token())
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, serverError(res)
	}

	var categories []models.Category
	if err := res.Decode(&categories); err != nil {
		return nil, err
	}
	return categories, nil
}
