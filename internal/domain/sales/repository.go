package sales

import (
	"context"

	"github.com/google/uuid"
)

// FlatRepository defines the interface for flat persistence
type FlatRepository interface {
	// FindByID finds a flat by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Flat, error)

	// Save creates or updates a flat
	Save(ctx context.Context, f *Flat) error
}

// BookingRepository defines the interface for booking persistence
type BookingRepository interface {
	// FindByID finds a booking by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByFlat finds the booking for a flat
	FindByFlat(ctx context.Context, flatID uuid.UUID) (*Booking, error)

	// Save creates or updates a booking
	Save(ctx context.Context, b *Booking) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, b *Booking) error

	// GenerateBookingNumber generates a unique booking number
	GenerateBookingNumber(ctx context.Context) (string, error)
}

// CustomerRepository defines the interface for customer lookups
type CustomerRepository interface {
	// FindByID finds a customer by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// Save creates or updates a customer
	Save(ctx context.Context, c *Customer) error
}

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	// FindByID finds a payment by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindByBooking finds all payments recorded against a booking
	FindByBooking(ctx context.Context, bookingID uuid.UUID) ([]Payment, error)

	// Save creates or updates a payment
	Save(ctx context.Context, p *Payment) error
}
