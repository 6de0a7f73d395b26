package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realtyerp/backend/internal/domain/plan"
	"github.com/realtyerp/backend/internal/domain/shared"
)

func TestPlanRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewGormPlanRepository(newTestDB(t))

	p := testPlan(t, "PP-20260101-00001")
	require.NoError(t, repo.Save(ctx, p))

	t.Run("FindByID roundtrips the aggregate with milestones", func(t *testing.T) {
		stored, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)

		assert.Equal(t, p.PlanNumber, stored.PlanNumber)
		assert.Equal(t, plan.StatusActive, stored.Status)
		assert.True(t, stored.TotalAmount.Equal(p.TotalAmount))
		require.Len(t, stored.Milestones, 3)
		assert.Equal(t, "Token", stored.Milestones[0].Name)
		assert.True(t, stored.Milestones[1].Amount.Equal(decimal.NewFromInt(300000)))
		assert.Equal(t, plan.MilestonePending, stored.Milestones[2].Status)
	})

	t.Run("FindActiveByFlat sees only ACTIVE plans", func(t *testing.T) {
		stored, err := repo.FindActiveByFlat(ctx, p.FlatID)
		require.NoError(t, err)
		assert.Equal(t, p.ID, stored.ID)

		require.NoError(t, stored.Cancel())
		require.NoError(t, repo.Save(ctx, stored))

		_, err = repo.FindActiveByFlat(ctx, p.FlatID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		// Restore for the sibling subtests.
		require.NoError(t, repo.Save(ctx, p))
	})

	t.Run("ExistsForBooking matches the exact pair", func(t *testing.T) {
		exists, err := repo.ExistsForBooking(ctx, p.FlatID, p.BookingID)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsForBooking(ctx, p.FlatID, uuid.New())
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestPlanRepository_SaveWithLock(t *testing.T) {
	ctx := context.Background()
	repo := NewGormPlanRepository(newTestDB(t))

	p := testPlan(t, "PP-20260101-00001")
	require.NoError(t, repo.Save(ctx, p))

	// A fresh domain mutation bumps the version, so the optimistic update
	// matches the stored row.
	_, err := p.TriggerMilestone(1)
	require.NoError(t, err)
	require.NoError(t, repo.SaveWithLock(ctx, p))

	stored, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.MilestoneTriggered, stored.Milestones[0].Status)
	assert.Equal(t, p.Version, stored.Version)

	// Replaying the same write without a new version is a lost update.
	err = repo.SaveWithLock(ctx, p)
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "OPTIMISTIC_LOCK_ERROR", derr.Code)
}

func TestPlanRepository_FindAll(t *testing.T) {
	ctx := context.Background()
	repo := NewGormPlanRepository(newTestDB(t))

	first := testPlan(t, "PP-20260101-00001")
	second := testPlan(t, "PP-20260101-00002")
	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))
	require.NoError(t, second.Cancel())
	require.NoError(t, repo.Save(ctx, second))

	t.Run("status filter narrows the result", func(t *testing.T) {
		status := plan.StatusActive
		plans, err := repo.FindAll(ctx, plan.Filter{Status: &status})
		require.NoError(t, err)
		require.Len(t, plans, 1)
		assert.Equal(t, first.ID, plans[0].ID)

		count, err := repo.Count(ctx, plan.Filter{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("flat filter matches a single plan", func(t *testing.T) {
		plans, err := repo.FindAll(ctx, plan.Filter{FlatID: &second.FlatID})
		require.NoError(t, err)
		require.Len(t, plans, 1)
		assert.Equal(t, second.ID, plans[0].ID)
	})

	t.Run("FindAllActive skips cancelled plans", func(t *testing.T) {
		plans, err := repo.FindAllActive(ctx)
		require.NoError(t, err)
		require.Len(t, plans, 1)
		assert.Equal(t, first.ID, plans[0].ID)
	})
}

func TestPlanRepository_GeneratePlanNumber(t *testing.T) {
	ctx := context.Background()
	repo := NewGormPlanRepository(newTestDB(t))

	first, err := repo.GeneratePlanNumber(ctx)
	require.NoError(t, err)
	assert.Regexp(t, `^PP-\d{8}-00001$`, first)

	p := testPlan(t, first)
	require.NoError(t, repo.Save(ctx, p))

	second, err := repo.GeneratePlanNumber(ctx)
	require.NoError(t, err)
	assert.Regexp(t, `^PP-\d{8}-00002$`, second)
}
