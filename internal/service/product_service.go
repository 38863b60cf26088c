package service

import (
	"context"

	"rentalhub/internal/database"
	"rentalhub/internal/domain"
	"rentalhub/internal/models"
)

type CreateProductInput struct {
	Name        string               `json:"name" validate:"required,max=200"`
	Category    string               `json:"category" validate:"required,max=100"`
	Description string               `json:"description" validate:"max=2000"`
	Price       float64              `json:"price" validate:"gte=0"`
	PriceType   models.PriceType     `json:"price_type" validate:"omitempty,oneof=hour day week month"`
	Deposit     float64              `json:"deposit" validate:"gte=0"`
	Status      models.ProductStatus `json:"status" validate:"omitempty,oneof=available rented coming_soon"`
	ImageURL    string               `json:"image_url" validate:"max=500"`
	Features    []string             `json:"features" validate:"max=20,dive,max=200"`
}

// UpdateProductInput carries the fields to change; nil fields are kept.
type UpdateProductInput struct {
	Name        *string               `json:"name" validate:"omitempty,min=1,max=200"`
	Category    *string               `json:"category" validate:"omitempty,min=1,max=100"`
	Description *string               `json:"description" validate:"omitempty,max=2000"`
	Price       *float64              `json:"price" validate:"omitempty,gte=0"`
	PriceType   *models.PriceType     `json:"price_type" validate:"omitempty,oneof=hour day week month"`
	Deposit     *float64              `json:"deposit" validate:"omitempty,gte=0"`
	Status      *models.ProductStatus `json:"status" validate:"omitempty,oneof=available rented coming_soon"`
	ImageURL    *string               `json:"image_url" validate:"omitempty,max=500"`
	Features    *[]string             `json:"features" validate:"omitempty,max=20,dive,max=200"`
}

func (in UpdateProductInput) fields() database.Record {
	fields := database.Record{}
	if in.Name != nil {
		fields["name"] = *in.Name
	}
	if in.Category != nil {
		fields["category"] = *in.Category
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Price != nil {
		fields["price"] = *in.Price
	}
	if in.PriceType != nil {
		fields["price_type"] = *in.PriceType
	}
	if in.Deposit != nil {
		fields["deposit"] = *in.Deposit
	}
	if in.Status != nil {
		fields["status"] = *in.Status
	}
	if in.ImageURL != nil {
		fields["image_url"] = *in.ImageURL
	}
	if in.Features != nil {
		fields["features"] = *in.Features
	}
	return fields
}

type ProductService struct {
	base
	products domain.Collection[models.Product]
}

func NewProductService(products domain.Collection[models.Product], opts Options) *ProductService {
	return &ProductService{
		base:     newBase(opts, "products"),
		products: products,
	}
}

func (s *ProductService) GetAll(ctx context.Context) ([]models.Product, error) {
	done, err := s.enter(ctx, "products.get_all")
	if err != nil {
		return nil, err
	}
	defer done()

	return s.products.All(ctx)
}

func (s *ProductService) GetByID(ctx context.Context, id models.ProductID) (*models.Product, error) {
	done, err := s.enter(ctx, "products.get_by_id")
	if err != nil {
		return nil, err
	}
	defer done()

	product, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.NotFound("product", id)
	}
	return product, nil
}

// GetForRental returns the products that can be booked right now.
func (s *ProductService) GetForRental(ctx context.Context) ([]models.Product, error) {
	done, err := s.enter(ctx, "products.get_for_rental")
	if err != nil {
		return nil, err
	}
	defer done()

	return s.products.Filter(ctx, func(p *models.Product) bool { return p.IsAvailable() })
}

func (s *ProductService) Create(ctx context.Context, in CreateProductInput) (*models.Product, error) {
	done, err := s.enter(ctx, "products.create")
	if err != nil {
		return nil, err
	}
	defer done()

	if err := validateInput(in); err != nil {
		return nil, err
	}

	product := models.Product{
		Name:        in.Name,
		Category:    in.Category,
		Description: in.Description,
		Price:       in.Price,
		PriceType:   in.PriceType,
		Deposit:     in.Deposit,
		Status:      in.Status,
		ImageURL:    in.ImageURL,
		Features:    in.Features,
		CreatedAt:   models.NewTimestamp(s.now()),
	}
	if product.PriceType == "" {
		product.PriceType = models.PricePerDay
	}
	if product.Status == "" {
		product.Status = models.ProductAvailable
	}
	if product.Features == nil {
		product.Features = []string{}
	}

	created, err := s.products.Add(ctx, product)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("product_id", created.ID.Int64()).Str("name", created.Name).Msg("Product created")
	return created, nil
}

func (s *ProductService) Update(ctx context.Context, id models.ProductID, in UpdateProductInput) (*models.Product, error) {
	done, err := s.enter(ctx, "products.update")
	if err != nil {
		return nil, err
	}
	defer done()

	if err := validateInput(in); err != nil {
		return nil, err
	}

	updated, err := s.products.Update(ctx, id, in.fields())
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, domain.NotFound("product", id)
	}
	return updated, nil
}

// Delete removes the product. Bookings and reviews that reference it are
// kept and show it as unknown.
func (s *ProductService) Delete(ctx context.Context, id models.ProductID) error {
	done, err := s.enter(ctx, "products.delete")
	if err != nil {
		return err
	}
	defer done()

	deleted, err := s.products.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.NotFound("product", id)
	}
	s.logger.Info().Int64("product_id", id.Int64()).Msg("Product deleted")
	return nil
}
