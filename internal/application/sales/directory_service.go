package sales

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	domainsales "github.com/realtyerp/backend/internal/domain/sales"
	"github.com/realtyerp/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DirectoryService manages the sales directory: customers, flats and
// bookings. The payment workflow core only reads these records; this
// service owns their creation and lookup.
type DirectoryService struct {
	customerRepo domainsales.CustomerRepository
	flatRepo     domainsales.FlatRepository
	bookingRepo  domainsales.BookingRepository
	logger       *zap.Logger
}

// NewDirectoryService creates a new DirectoryService
func NewDirectoryService(
	customerRepo domainsales.CustomerRepository,
	flatRepo domainsales.FlatRepository,
	bookingRepo domainsales.BookingRepository,
	logger *zap.Logger,
) *DirectoryService {
	return &DirectoryService{
		customerRepo: customerRepo,
		flatRepo:     flatRepo,
		bookingRepo:  bookingRepo,
		logger:       logger,
	}
}

// CreateCustomer creates a customer directory record
func (s *DirectoryService) CreateCustomer(ctx context.Context, name, email, phone, address string) (*domainsales.Customer, error) {
	c, err := domainsales.NewCustomer(name, email, phone, address)
	if err != nil {
		return nil, err
	}
	if err := s.customerRepo.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save customer: %w", err)
	}
	return c, nil
}

// GetCustomer returns a customer by ID
func (s *DirectoryService) GetCustomer(ctx context.Context, id uuid.UUID) (*domainsales.Customer, error) {
	return s.customerRepo.FindByID(ctx, id)
}

// CreateFlat registers a flat in the directory
func (s *DirectoryService) CreateFlat(ctx context.Context, number, tower string, floor int, salePrice decimal.Decimal) (*domainsales.Flat, error) {
	f, err := domainsales.NewFlat(number, tower, floor, salePrice)
	if err != nil {
		return nil, err
	}
	if err := s.flatRepo.Save(ctx, f); err != nil {
		return nil, fmt.Errorf("failed to save flat: %w", err)
	}
	return f, nil
}

// GetFlat returns a flat by ID
func (s *DirectoryService) GetFlat(ctx context.Context, id uuid.UUID) (*domainsales.Flat, error) {
	return s.flatRepo.FindByID(ctx, id)
}

// CreateBooking books a flat for a customer. A flat carries at most one
// active booking; the flat record is linked to the booking in the same
// operation.
func (s *DirectoryService) CreateBooking(ctx context.Context, flatID, customerID uuid.UUID, totalAmount decimal.Decimal) (*domainsales.Booking, error) {
	flat, err := s.flatRepo.FindByID(ctx, flatID)
	if err != nil {
		return nil, err
	}
	if flat.IsSold() {
		return nil, shared.NewDomainError("FLAT_ALREADY_BOOKED", "Flat already has an active booking")
	}

	if _, err := s.customerRepo.FindByID(ctx, customerID); err != nil {
		return nil, err
	}

	bookingNumber, err := s.bookingRepo.GenerateBookingNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate booking number: %w", err)
	}

	b, err := domainsales.NewBooking(bookingNumber, flatID, customerID, totalAmount)
	if err != nil {
		return nil, err
	}
	if err := s.bookingRepo.Save(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	flat.AssignBooking(b.ID, customerID)
	if err := s.flatRepo.Save(ctx, flat); err != nil {
		return nil, fmt.Errorf("failed to link booking to flat: %w", err)
	}

	s.logger.Info("booking created",
		zap.String("booking_id", b.ID.String()),
		zap.String("booking_number", b.BookingNumber),
		zap.String("flat_id", flatID.String()),
		zap.String("customer_id", customerID.String()),
	)
	return b, nil
}

// GetBooking returns a booking by ID
func (s *DirectoryService) GetBooking(ctx context.Context, id uuid.UUID) (*domainsales.Booking, error) {
	return s.bookingRepo.FindByID(ctx, id)
}

// GetBookingForFlat returns the booking recorded against a flat
func (s *DirectoryService) GetBookingForFlat(ctx context.Context, flatID uuid.UUID) (*domainsales.Booking, error) {
	return s.bookingRepo.FindByFlat(ctx, flatID)
}
