package service

import (
	"context"
	"encoding/json"
	"errors"

	"shopapi/internal/model"
	"shopapi/internal/repository"
	"shopapi/pkg/apperr"
	slugpkg "shopapi/pkg/slug"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateProductRequest struct {
	Name        string           `json:"name" binding:"required"`
	Slug        string           `json:"slug"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price" binding:"required"`
	SalePrice   *decimal.Decimal `json:"sale_price"`
	Stock       int              `json:"stock" binding:"gte=0"`
	Images      []string         `json:"images"`
	IsActive    *bool            `json:"is_active"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Slug        *string          `json:"slug"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	SalePrice   *decimal.Decimal `json:"sale_price"`
	Stock       *int             `json:"stock" binding:"omitempty,gte=0"`
	Images      []string         `json:"images"`
	IsActive    *bool            `json:"is_active"`
}

// --- Interface ---

type ProductService interface {
	ListProducts(ctx context.Context, page, limit int, search string) ([]ProductResponse, int64, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductResponse, error)
	CreateProduct(ctx context.Context, req CreateProductRequest) (*ProductResponse, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type productService struct {
	productRepo repository.ProductRepository
}

func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

// --- Implementation ---

func (s *productService) ListProducts(ctx context.Context, page, limit int, search string) ([]ProductResponse, int64, error) {
	products, total, err := s.productRepo.List(ctx, page, limit, search)
	if err != nil {
		return nil, 0, err
	}

	res := make([]ProductResponse, 0, len(products))
	for i := range products {
		res = append(res, toProductResponse(&products[i]))
	}
	return res, total, nil
}

func (s *productService) GetProduct(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Product not found")
		}
		return nil, err
	}
	resp := toProductResponse(product)
	return &resp, nil
}

func (s *productService) CreateProduct(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	productSlug := req.Slug
	if productSlug == "" {
		productSlug = slugpkg.Make(req.Name)
	}

	taken, err := s.productRepo.SlugTaken(ctx, productSlug, nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Validation(map[string]string{"slug": "The slug has already been taken"})
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	product := model.Product{
		Name:        req.Name,
		Slug:        productSlug,
		Description: req.Description,
		Price:       req.Price,
		SalePrice:   req.SalePrice,
		Stock:       req.Stock,
		IsActive:    isActive,
	}
	if req.Images != nil {
		images, err := marshalImages(req.Images)
		if err != nil {
			return nil, err
		}
		product.Images = images
	}

	if err := s.productRepo.Create(ctx, &product); err != nil {
		return nil, err
	}

	resp := toProductResponse(&product)
	return &resp, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Product not found")
		}
		return nil, err
	}

	productSlug := product.Slug
	if req.Slug != nil {
		productSlug = *req.Slug
	} else if req.Name != nil {
		productSlug = slugpkg.Make(*req.Name)
	}

	if productSlug != product.Slug {
		taken, err := s.productRepo.SlugTaken(ctx, productSlug, &product.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperr.Validation(map[string]string{"slug": "The slug has already been taken"})
		}
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	product.Slug = productSlug
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.SalePrice != nil {
		product.SalePrice = req.SalePrice
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.Images != nil {
		images, err := marshalImages(req.Images)
		if err != nil {
			return nil, err
		}
		product.Images = images
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	resp := toProductResponse(product)
	return &resp, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if _, err := s.productRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Product not found")
		}
		return err
	}
	return s.productRepo.Delete(ctx, id)
}

func marshalImages(images []string) (datatypes.JSON, error) {
	raw, err := json.Marshal(images)
	if err != nil {
		return nil, apperr.Internal("failed to encode images", err)
	}
	return datatypes.JSON(raw), nil
}
