package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"bakehouse/internal/config"
	"bakehouse/internal/models"
	"bakehouse/internal/pricing"
	"bakehouse/internal/repositories/interfaces"
	"bakehouse/internal/utils"
	"bakehouse/internal/validators"
	"bakehouse/pkg/logger"
	"bakehouse/pkg/storage"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CatalogService interface {
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, id primitive.ObjectID, product *models.Product) (*models.Product, error)
	GetProduct(ctx context.Context, id primitive.ObjectID, includeInactive bool) (*models.Product, error)
	ListProducts(ctx context.Context, filter models.ProductFilter, params *utils.PaginationParams) ([]*models.Product, int64, error)
	DeleteProduct(ctx context.Context, id primitive.ObjectID) error

	AddVariant(ctx context.Context, productID primitive.ObjectID, variant *models.ProductVariant) (*models.Product, error)
	UpdateVariant(ctx context.Context, productID, variantID primitive.ObjectID, variant *models.ProductVariant) (*models.Product, error)
	RemoveVariant(ctx context.Context, productID, variantID primitive.ObjectID) (*models.Product, error)

	UploadProductImage(ctx context.Context, productID primitive.ObjectID, filename string, r io.Reader) (*models.Product, error)
	QuoteProduct(ctx context.Context, productID primitive.ObjectID, request *models.ProductQuoteRequest) (*models.ProductQuote, error)
}

type catalogService struct {
	productRepo interfaces.ProductRepository
	storage     storage.StorageProvider
	store       *config.StoreConfig
	logger      *logger.Logger
}

func NewCatalogService(
	productRepo interfaces.ProductRepository,
	storageProvider storage.StorageProvider,
	store *config.StoreConfig,
	log *logger.Logger,
) CatalogService {
	return &catalogService{
		productRepo: productRepo,
		storage:     storageProvider,
		store:       store,
		logger:      log.WithField("service", "catalog"),
	}
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(name string) string {
	return strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

func (s *catalogService) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if errs := validators.ValidateProduct(product); len(errs) > 0 {
		return nil, &ValidationError{Details: errs.Details()}
	}

	product.Slug = slugify(product.Name)
	if _, err := s.productRepo.GetBySlug(ctx, product.Slug); err == nil {
		product.Slug = product.Slug + "-" + primitive.NewObjectID().Hex()[18:]
	} else if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, interfaces.ErrDuplicate) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"product_id": product.ID.Hex(),
		"slug":       product.Slug,
	}).Info("Product created")
	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id primitive.ObjectID, update *models.Product) (*models.Product, error) {
	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	existing.Name = update.Name
	existing.Description = update.Description
	existing.Category = update.Category
	existing.BasePrice = update.BasePrice
	existing.IsActive = update.IsActive
	if update.Variants != nil {
		existing.Variants = assignVariantIDs(update.Variants)
	}

	if errs := validators.ValidateProduct(existing); len(errs) > 0 {
		return nil, &ValidationError{Details: errs.Details()}
	}

	if err := s.productRepo.Update(ctx, existing); err != nil {
		return nil, s.mapRepoError(err)
	}
	return existing, nil
}

// assignVariantIDs keeps ids supplied by the caller and mints new ones for
// variants that have none.
func assignVariantIDs(incoming []models.ProductVariant) []models.ProductVariant {
	for i := range incoming {
		if incoming[i].ID.IsZero() {
			incoming[i].ID = primitive.NewObjectID()
		}
	}
	return incoming
}

func (s *catalogService) GetProduct(ctx context.Context, id primitive.ObjectID, includeInactive bool) (*models.Product, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive && !includeInactive {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func (s *catalogService) ListProducts(ctx context.Context, filter models.ProductFilter, params *utils.PaginationParams) ([]*models.Product, int64, error) {
	return s.productRepo.List(ctx, filter, params)
}

// DeleteProduct hides the product; orders keep referencing it.
func (s *catalogService) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	if err := s.productRepo.SetActive(ctx, id, false); err != nil {
		return s.mapRepoError(err)
	}
	s.logger.WithField("product_id", id.Hex()).Info("Product deactivated")
	return nil
}

func (s *catalogService) AddVariant(ctx context.Context, productID primitive.ObjectID, variant *models.ProductVariant) (*models.Product, error) {
	product, err := s.load(ctx, productID)
	if err != nil {
		return nil, err
	}

	variant.ID = primitive.NewObjectID()
	product.Variants = append(product.Variants, *variant)
	return s.saveWithVariants(ctx, product)
}

func (s *catalogService) UpdateVariant(ctx context.Context, productID, variantID primitive.ObjectID, variant *models.ProductVariant) (*models.Product, error) {
	product, err := s.load(ctx, productID)
	if err != nil {
		return nil, err
	}

	existing := product.Variant(variantID)
	if existing == nil {
		return nil, ErrVariantNotFound
	}
	variant.ID = variantID
	*existing = *variant
	return s.saveWithVariants(ctx, product)
}

func (s *catalogService) RemoveVariant(ctx context.Context, productID, variantID primitive.ObjectID) (*models.Product, error) {
	product, err := s.load(ctx, productID)
	if err != nil {
		return nil, err
	}

	kept := product.Variants[:0]
	found := false
	for _, v := range product.Variants {
		if v.ID == variantID {
			found = true
			continue
		}
		kept = append(kept, v)
	}
	if !found {
		return nil, ErrVariantNotFound
	}
	product.Variants = kept
	return s.saveWithVariants(ctx, product)
}

func (s *catalogService) saveWithVariants(ctx context.Context, product *models.Product) (*models.Product, error) {
	if errs := validators.ValidateProduct(product); len(errs) > 0 {
		return nil, &ValidationError{Details: errs.Details()}
	}
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, s.mapRepoError(err)
	}
	return product, nil
}

func (s *catalogService) UploadProductImage(ctx context.Context, productID primitive.ObjectID, filename string, r io.Reader) (*models.Product, error) {
	product, err := s.load(ctx, productID)
	if err != nil {
		return nil, err
	}

	if !utils.IsValidImageFormat(filename) {
		return nil, ErrInvalidImage
	}

	data, err := io.ReadAll(io.LimitReader(r, s.store.MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > s.store.MaxImageSize {
		return nil, ErrImageTooLarge
	}

	img, format, err := utils.DecodeImage(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidImage
	}

	dir := "products/" + productID.Hex()
	original, err := s.storage.Upload(ctx, &storage.UploadRequest{
		Key:          utils.ObjectKey(dir, utils.ImageExtension(format)),
		Reader:       bytes.NewReader(data),
		ContentType:  utils.ImageContentType(format),
		Size:         int64(len(data)),
		CacheControl: "public, max-age=31536000",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	thumbData, err := utils.EncodeImage(utils.Thumbnail(img, uint(s.store.ThumbnailWidth)), "jpeg", 85)
	if err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	thumb, err := s.storage.Upload(ctx, &storage.UploadRequest{
		Key:          utils.ObjectKey(dir+"/thumbs", ".jpg"),
		Reader:       bytes.NewReader(thumbData),
		ContentType:  "image/jpeg",
		Size:         int64(len(thumbData)),
		CacheControl: "public, max-age=31536000",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload thumbnail: %w", err)
	}

	product.ImageURL = original.URL
	product.ThumbnailURL = thumb.URL
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, s.mapRepoError(err)
	}

	s.logger.WithFields(map[string]interface{}{
		"product_id": productID.Hex(),
		"image_key":  original.Key,
		"size":       len(data),
	}).Info("Product image uploaded")
	return product, nil
}

func (s *catalogService) QuoteProduct(ctx context.Context, productID primitive.ObjectID, request *models.ProductQuoteRequest) (*models.ProductQuote, error) {
	product, err := s.GetProduct(ctx, productID, false)
	if err != nil {
		return nil, err
	}

	ids, err := validators.ParseObjectIDs(request.VariantIDs)
	if err != nil {
		return nil, ErrVariantNotFound
	}
	variants, err := selectVariants(product, ids)
	if err != nil {
		return nil, err
	}

	qty := request.Quantity
	if qty <= 0 {
		qty = 1
	}

	unit := pricing.AccumulatePrice(product.BasePrice, variants)
	return &models.ProductQuote{
		ProductID: product.ID,
		UnitPrice: unit,
		Quantity:  qty,
		LineTotal: pricing.RoundMoney(unit.Mul(decimal.NewFromInt(int64(qty)))),
	}, nil
}

// selectVariants resolves ids against the product, keeping the caller's
// order since later overrides win.
func selectVariants(product *models.Product, ids []primitive.ObjectID) ([]pricing.Variant, error) {
	variants := make([]pricing.Variant, 0, len(ids))
	for _, id := range ids {
		v := product.Variant(id)
		if v == nil {
			return nil, fmt.Errorf("%w: %s", ErrVariantNotFound, id.Hex())
		}
		variants = append(variants, v.Pricing())
	}
	return variants, nil
}

func (s *catalogService) load(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err)
	}
	return product, nil
}

func (s *catalogService) mapRepoError(err error) error {
	if errors.Is(err, interfaces.ErrNotFound) {
		return ErrProductNotFound
	}
	return err
}
