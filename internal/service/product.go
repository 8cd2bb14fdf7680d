package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nexly/go-shop-api/internal/apperror"
	"github.com/nexly/go-shop-api/internal/cache"
	"github.com/nexly/go-shop-api/internal/dto"
	"github.com/nexly/go-shop-api/internal/model"
	"github.com/nexly/go-shop-api/internal/repository"
	"github.com/nexly/go-shop-api/internal/storage"
)

var (
	ErrProductNotFound  = apperror.NotFound("product not found")
	ErrCategoryNotFound = apperror.NotFound("category does not exist")
)

const (
	productCacheTTL     = time.Hour
	productListCacheKey = "products:list"
)

type ProductService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	cache      cache.Cache
	images     storage.ImageStore
	folder     string
	log        *slog.Logger
}

func NewProductService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	c cache.Cache,
	images storage.ImageStore,
	folder string,
	log *slog.Logger,
) *ProductService {
	return &ProductService{
		products:   products,
		categories: categories,
		cache:      c,
		images:     images,
		folder:     folder,
		log:        log,
	}
}

func (s *ProductService) Create(ctx context.Context, req dto.CreateProductRequest) (*model.Product, error) {
	categoryID, err := parseID(req.CategoryID)
	if err != nil {
		return nil, apperror.Validation("invalid category id")
	}
	category, err := s.categories.GetByID(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}

	product := &model.Product{
		Name:        req.Name,
		Slug:        slugify(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		CategoryID:  categoryID,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.invalidateList(ctx)
	return product, nil
}

// GetByID reads through the cache; cache failures fall back to the
// database and are only logged.
func (s *ProductService) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	key := productCacheKey(id)

	if cached, err := s.cache.Get(ctx, key); err == nil {
		product := &model.Product{}
		if json.Unmarshal([]byte(cached), product) == nil {
			return product, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn("cache get", "key", key, "error", err)
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	s.cacheJSON(ctx, key, product)
	return product, nil
}

func (s *ProductService) List(ctx context.Context) ([]model.Product, error) {
	if cached, err := s.cache.Get(ctx, productListCacheKey); err == nil {
		var products []model.Product
		if json.Unmarshal([]byte(cached), &products) == nil {
			return products, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn("cache get", "key", productListCacheKey, "error", err)
	}

	products, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	s.cacheJSON(ctx, productListCacheKey, products)
	return products, nil
}

func (s *ProductService) ListByCategory(ctx context.Context, categoryID primitive.ObjectID) ([]model.Product, error) {
	category, err := s.categories.GetByID(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	products, err := s.products.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *ProductService) Update(ctx context.Context, id primitive.ObjectID, req dto.UpdateProductRequest) (*model.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if req.Name != nil {
		product.Name = *req.Name
		product.Slug = slugify(*req.Name)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.CategoryID != nil {
		categoryID, err := parseID(*req.CategoryID)
		if err != nil {
			return nil, apperror.Validation("invalid category id")
		}
		category, err := s.categories.GetByID(ctx, categoryID)
		if err != nil {
			return nil, fmt.Errorf("get category: %w", err)
		}
		if category == nil {
			return nil, ErrCategoryNotFound
		}
		product.CategoryID = categoryID
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.invalidate(ctx, id)
	return product, nil
}

func (s *ProductService) Delete(ctx context.Context, id primitive.ObjectID) error {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return ErrProductNotFound
	}

	if err := s.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if product.ImagePublicID != "" {
		if err := s.images.Destroy(ctx, product.ImagePublicID); err != nil {
			s.log.Warn("destroy product image", "public_id", product.ImagePublicID, "error", err)
		}
	}

	s.invalidate(ctx, id)
	return nil
}

// UploadImage replaces the product image, destroying the previous asset
// best-effort.
func (s *ProductService) UploadImage(ctx context.Context, id primitive.ObjectID, file io.Reader) (*model.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	result, err := s.images.Upload(ctx, file, s.folder)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}

	if product.ImagePublicID != "" {
		if err := s.images.Destroy(ctx, product.ImagePublicID); err != nil {
			s.log.Warn("destroy old product image", "public_id", product.ImagePublicID, "error", err)
		}
	}

	product.Image = result.URL
	product.ImagePublicID = result.PublicID
	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.invalidate(ctx, id)
	return product, nil
}

func (s *ProductService) cacheJSON(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(data), productCacheTTL); err != nil {
		s.log.Warn("cache set", "key", key, "error", err)
	}
}

func (s *ProductService) invalidate(ctx context.Context, id primitive.ObjectID) {
	if err := s.cache.Delete(ctx, productCacheKey(id)); err != nil {
		s.log.Warn("cache delete", "key", productCacheKey(id), "error", err)
	}
	s.invalidateList(ctx)
}

func (s *ProductService) invalidateList(ctx context.Context) {
	if err := s.cache.Delete(ctx, productListCacheKey); err != nil {
		s.log.Warn("cache delete", "key", productListCacheKey, "error", err)
	}
}

func productCacheKey(id primitive.ObjectID) string {
	return "product:" + id.Hex()
}

func slugify(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "-"))
}

func parseID(hex string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(hex)
}
