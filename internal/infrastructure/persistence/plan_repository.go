package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/realtyerp/backend/internal/domain/plan"
	"github.com/realtyerp/backend/internal/domain/shared"
	"github.com/realtyerp/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPlanRepository implements plan.Repository using GORM
type GormPlanRepository struct {
	db *gorm.DB
}

// NewGormPlanRepository creates a new GormPlanRepository
func NewGormPlanRepository(db *gorm.DB) *GormPlanRepository {
	return &GormPlanRepository{db: db}
}

// FindByID finds a plan by its ID
func (r *GormPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*plan.FlatPaymentPlan, error) {
	var model models.FlatPaymentPlanModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByFlat finds the ACTIVE plan for a flat
func (r *GormPlanRepository) FindActiveByFlat(ctx context.Context, flatID uuid.UUID) (*plan.FlatPaymentPlan, error) {
	var model models.FlatPaymentPlanModel
	if err := r.db.WithContext(ctx).
		Where("flat_id = ? AND status = ?", flatID, plan.StatusActive).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByFlatAndBooking finds the plan for a (flat, booking) pair
func (r *GormPlanRepository) FindByFlatAndBooking(ctx context.Context, flatID, bookingID uuid.UUID) (*plan.FlatPaymentPlan, error) {
	var model models.FlatPaymentPlanModel
	if err := r.db.WithContext(ctx).
		Where("flat_id = ? AND booking_id = ?", flatID, bookingID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllActive finds every ACTIVE plan for the portfolio sweep
func (r *GormPlanRepository) FindAllActive(ctx context.Context) ([]plan.FlatPaymentPlan, error) {
	var planModels []models.FlatPaymentPlanModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", plan.StatusActive).
		Order("created_at ASC").
		Find(&planModels).Error; err != nil {
		return nil, err
	}
	plans := make([]plan.FlatPaymentPlan, len(planModels))
	for i, model := range planModels {
		plans[i] = *model.ToDomain()
	}
	return plans, nil
}

// FindAll finds plans matching the filter
func (r *GormPlanRepository) FindAll(ctx context.Context, filter plan.Filter) ([]plan.FlatPaymentPlan, error) {
	var planModels []models.FlatPaymentPlanModel
	query := r.db.WithContext(ctx).Model(&models.FlatPaymentPlanModel{})
	query = r.applyFilter(query, filter)

	if err := query.Find(&planModels).Error; err != nil {
		return nil, err
	}
	plans := make([]plan.FlatPaymentPlan, len(planModels))
	for i, model := range planModels {
		plans[i] = *model.ToDomain()
	}
	return plans, nil
}

// ExistsForBooking checks whether a plan already exists for the (flat, booking) pair
func (r *GormPlanRepository) ExistsForBooking(ctx context.Context, flatID, bookingID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.FlatPaymentPlanModel{}).
		Where("flat_id = ? AND booking_id = ?", flatID, bookingID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a plan, rewriting the full milestone list
func (r *GormPlanRepository) Save(ctx context.Context, p *plan.FlatPaymentPlan) error {
	model := models.FlatPaymentPlanModelFromDomain(p)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking
func (r *GormPlanRepository) SaveWithLock(ctx context.Context, p *plan.FlatPaymentPlan) error {
	model := models.FlatPaymentPlanModelFromDomain(p)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", p.ID, p.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The record has been modified by another transaction")
	}
	return nil
}

// Count counts plans matching the filter
func (r *GormPlanRepository) Count(ctx context.Context, filter plan.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.FlatPaymentPlanModel{})
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GeneratePlanNumber generates a unique plan number
func (r *GormPlanRepository) GeneratePlanNumber(ctx context.Context) (string, error) {
	return generateSequentialNumber(ctx, r.db, &models.FlatPaymentPlanModel{}, "plan_number", "PP")
}

// applyFilter applies filter options to the query
func (r *GormPlanRepository) applyFilter(query *gorm.DB, filter plan.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.Limit())
	}

	if filter.OrderBy != "" {
		orderBy := ValidateSortField(filter.OrderBy, PlanSortFields, "created_at")
		query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormPlanRepository) applyFilterWithoutPagination(query *gorm.DB, filter plan.Filter) *gorm.DB {
	if filter.FlatID != nil {
		query = query.Where("flat_id = ?", *filter.FlatID)
	}
	if filter.BookingID != nil {
		query = query.Where("booking_id = ?", *filter.BookingID)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	return query
}

// generateSequentialNumber builds the next document number for today,
// format: <prefix>-YYYYMMDD-XXXXX
func generateSequentialNumber(ctx context.Context, db *gorm.DB, model interface{}, column, prefix string) (string, error) {
	date := time.Now().Format("20060102")
	fullPrefix := fmt.Sprintf("%s-%s-", prefix, date)

	var maxNumber string
	if err := db.WithContext(ctx).
		Model(model).
		Select(column).
		Where(column+" LIKE ?", fullPrefix+"%").
		Order(column + " DESC").
		Limit(1).
		Pluck(column, &maxNumber).Error; err != nil {
		return "", err
	}

	var nextNum int
	if maxNumber != "" {
		parts := strings.Split(maxNumber, "-")
		if len(parts) == 3 {
			fmt.Sscanf(parts[2], "%d", &nextNum)
		}
	}
	nextNum++

	return fmt.Sprintf("%s%05d", fullPrefix, nextNum), nil
}

// Ensure GormPlanRepository implements plan.Repository
var _ plan.Repository = (*GormPlanRepository)(nil)
