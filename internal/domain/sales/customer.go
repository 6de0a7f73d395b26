package sales

import (
	"github.com/realtyerp/backend/internal/domain/shared"
)

// Customer is the buyer directory record. The workflow core only reads it
// to compose demand drafts; its CRUD surface lives outside this core.
type Customer struct {
	shared.BaseEntity
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// NewCustomer creates a customer directory record
func NewCustomer(name, email, phone, address string) (*Customer, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}
	return &Customer{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Email:      email,
		Phone:      phone,
		Address:    address,
	}, nil
}
