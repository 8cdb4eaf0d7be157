package interfaces

import (
	"context"

	"dealtrail/internal/models"
)

// VendorRepository is the consumed slice of the vendor directory.
type VendorRepository interface {
	GetAllVendors(ctx context.Context) ([]*models.Vendor, error)
	GetByID(ctx context.Context, id string) (*models.Vendor, error)
}
