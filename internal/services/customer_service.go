package services

import (
	"context"
	"errors"

	"bakehouse/internal/models"
	"bakehouse/internal/repositories/interfaces"
	"bakehouse/internal/utils"
	"bakehouse/internal/validators"
	"bakehouse/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CustomerService interface {
	GetProfile(ctx context.Context, customerID primitive.ObjectID) (*models.Customer, error)
	UpdateProfile(ctx context.Context, customerID primitive.ObjectID, request *models.UpdateProfileRequest) (*models.Customer, error)

	ListAddresses(ctx context.Context, customerID primitive.ObjectID) ([]*models.Address, error)
	AddAddress(ctx context.Context, customerID primitive.ObjectID, address *models.Address) (*models.Address, error)
	UpdateAddress(ctx context.Context, customerID, addressID primitive.ObjectID, address *models.Address) (*models.Address, error)
	DeleteAddress(ctx context.Context, customerID, addressID primitive.ObjectID) error

	CreateReview(ctx context.Context, customerID, productID primitive.ObjectID, review *models.Review) (*models.Review, error)
	ListProductReviews(ctx context.Context, productID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Review, int64, error)
	ListPendingReviews(ctx context.Context, params *utils.PaginationParams) ([]*models.Review, int64, error)
	ApproveReview(ctx context.Context, reviewID primitive.ObjectID) error
	DeleteReview(ctx context.Context, reviewID primitive.ObjectID) error
}

type customerService struct {
	customerRepo interfaces.CustomerRepository
	addressRepo  interfaces.AddressRepository
	reviewRepo   interfaces.ReviewRepository
	productRepo  interfaces.ProductRepository
	logger       *logger.Logger
}

func NewCustomerService(
	customerRepo interfaces.CustomerRepository,
	addressRepo interfaces.AddressRepository,
	reviewRepo interfaces.ReviewRepository,
	productRepo interfaces.ProductRepository,
	log *logger.Logger,
) CustomerService {
	return &customerService{
		customerRepo: customerRepo,
		addressRepo:  addressRepo,
		reviewRepo:   reviewRepo,
		productRepo:  productRepo,
		logger:       log.WithField("service", "customer"),
	}
}

func (s *customerService) GetProfile(ctx context.Context, customerID primitive.ObjectID) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, customerID)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, ErrCustomerNotFound
	}
	return customer, err
}

func (s *customerService) UpdateProfile(ctx context.Context, customerID primitive.ObjectID, request *models.UpdateProfileRequest) (*models.Customer, error) {
	customer, err := s.GetProfile(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if request.Name != "" {
		customer.Name = validators.SanitizeInput(request.Name)
	}
	if request.Email != "" {
		customer.Email = request.Email
	}

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *customerService) ListAddresses(ctx context.Context, customerID primitive.ObjectID) ([]*models.Address, error) {
	return s.addressRepo.ListByCustomer(ctx, customerID)
}

// AddAddress stores a new address. The first address becomes the default.
func (s *customerService) AddAddress(ctx context.Context, customerID primitive.ObjectID, address *models.Address) (*models.Address, error) {
	existing, err := s.addressRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	address.CustomerID = customerID
	if len(existing) == 0 {
		address.IsDefault = true
	}
	sanitizeAddress(address)

	if err := s.addressRepo.Create(ctx, address); err != nil {
		return nil, err
	}
	if address.IsDefault {
		if err := s.addressRepo.ClearDefault(ctx, customerID, address.ID); err != nil {
			return nil, err
		}
	}
	return address, nil
}

func (s *customerService) UpdateAddress(ctx context.Context, customerID, addressID primitive.ObjectID, update *models.Address) (*models.Address, error) {
	address, err := s.addressRepo.GetByID(ctx, customerID, addressID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}

	address.Label = update.Label
	address.Line1 = update.Line1
	address.Line2 = update.Line2
	address.City = update.City
	address.PostalCode = update.PostalCode
	address.Phone = update.Phone
	if update.IsDefault {
		address.IsDefault = true
	}
	sanitizeAddress(address)

	if err := s.addressRepo.Update(ctx, address); err != nil {
		return nil, err
	}
	if address.IsDefault {
		if err := s.addressRepo.ClearDefault(ctx, customerID, address.ID); err != nil {
			return nil, err
		}
	}
	return address, nil
}

// DeleteAddress removes an address and promotes the oldest remaining one
// when the default was deleted.
func (s *customerService) DeleteAddress(ctx context.Context, customerID, addressID primitive.ObjectID) error {
	address, err := s.addressRepo.GetByID(ctx, customerID, addressID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return ErrAddressNotFound
		}
		return err
	}

	if err := s.addressRepo.Delete(ctx, customerID, addressID); err != nil {
		return err
	}
	if !address.IsDefault {
		return nil
	}

	remaining, err := s.addressRepo.ListByCustomer(ctx, customerID)
	if err != nil || len(remaining) == 0 {
		return err
	}
	next := remaining[0]
	next.IsDefault = true
	return s.addressRepo.Update(ctx, next)
}

func sanitizeAddress(a *models.Address) {
	a.Label = validators.SanitizeInput(a.Label)
	a.Line1 = validators.SanitizeInput(a.Line1)
	a.Line2 = validators.SanitizeInput(a.Line2)
	a.City = validators.SanitizeInput(a.City)
	a.PostalCode = validators.SanitizeInput(a.PostalCode)
}

func (s *customerService) CreateReview(ctx context.Context, customerID, productID primitive.ObjectID, review *models.Review) (*models.Review, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if !product.IsActive {
		return nil, ErrProductNotFound
	}

	customer, err := s.GetProfile(ctx, customerID)
	if err != nil {
		return nil, err
	}

	review.ProductID = productID
	review.CustomerID = customerID
	review.AuthorName = customer.Name
	review.Comment = validators.SanitizeInput(review.Comment)
	review.IsApproved = false

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if errors.Is(err, interfaces.ErrDuplicate) {
			return nil, ErrAlreadyReviewed
		}
		return nil, err
	}
	return review, nil
}

func (s *customerService) ListProductReviews(ctx context.Context, productID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Review, int64, error) {
	return s.reviewRepo.ListByProduct(ctx, productID, true, params)
}

func (s *customerService) ListPendingReviews(ctx context.Context, params *utils.PaginationParams) ([]*models.Review, int64, error) {
	return s.reviewRepo.ListPending(ctx, params)
}

func (s *customerService) ApproveReview(ctx context.Context, reviewID primitive.ObjectID) error {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return ErrReviewNotFound
		}
		return err
	}

	if err := s.reviewRepo.Approve(ctx, reviewID); err != nil {
		return err
	}
	return s.refreshRating(ctx, review.ProductID)
}

func (s *customerService) DeleteReview(ctx context.Context, reviewID primitive.ObjectID) error {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return ErrReviewNotFound
		}
		return err
	}

	if err := s.reviewRepo.Delete(ctx, reviewID); err != nil {
		return err
	}
	if !review.IsApproved {
		return nil
	}
	return s.refreshRating(ctx, review.ProductID)
}

func (s *customerService) refreshRating(ctx context.Context, productID primitive.ObjectID) error {
	avg, count, err := s.reviewRepo.RatingSummary(ctx, productID)
	if err != nil {
		return err
	}
	if err := s.productRepo.UpdateRating(ctx, productID, avg, count); err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return err
	}
	s.logger.WithFields(map[string]interface{}{
		"product_id":   productID.Hex(),
		"rating_avg":   avg,
		"rating_count": count,
	}).Debug("Product rating refreshed")
	return nil
}
