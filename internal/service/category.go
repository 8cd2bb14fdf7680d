package service

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nexly/go-shop-api/internal/dto"
	"github.com/nexly/go-shop-api/internal/model"
	"github.com/nexly/go-shop-api/internal/repository"
)

type CategoryService struct {
	categories repository.CategoryRepository
}

func NewCategoryService(categories repository.CategoryRepository) *CategoryService {
	return &CategoryService{categories: categories}
}

func (s *CategoryService) Create(ctx context.Context, req dto.CreateCategoryRequest) (*model.Category, error) {
	category := &model.Category{
		Name:        req.Name,
		Slug:        slugify(req.Name),
		Description: req.Description,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

func (s *CategoryService) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}

func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *CategoryService) Update(ctx context.Context, id primitive.ObjectID, req dto.UpdateCategoryRequest) (*model.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}

	if req.Name != nil {
		category.Name = *req.Name
		category.Slug = slugify(*req.Name)
	}
	if req.Description != nil {
		category.Description = *req.Description
	}

	if err := s.categories.Update(ctx, category); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return category, nil
}

func (s *CategoryService) Delete(ctx context.Context, id primitive.ObjectID) error {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get category: %w", err)
	}
	if category == nil {
		return ErrCategoryNotFound
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
