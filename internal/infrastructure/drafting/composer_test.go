package drafting

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appplan "github.com/realtyerp/backend/internal/application/plan"
	"github.com/realtyerp/backend/internal/domain/construction"
	"github.com/realtyerp/backend/internal/domain/plan"
	"github.com/realtyerp/backend/internal/domain/sales"
	"github.com/realtyerp/backend/internal/domain/shared/valueobject"
)

func draftData(t *testing.T) appplan.DraftData {
	t.Helper()

	customer, err := sales.NewCustomer("Asha Verma", "asha@example.com", "+91 98000 11223", "14 MG Road, Pune")
	require.NoError(t, err)

	flat, err := sales.NewFlat("A-1204", "A", 12, decimal.NewFromInt(8000000))
	require.NoError(t, err)

	tpl, err := plan.NewTemplate("Standard 20-80", "", plan.MilestoneBlueprints{
		{Sequence: 1, Name: "Booking", Percentage: decimal.NewFromInt(20)},
		{Sequence: 2, Name: "Possession", Percentage: decimal.NewFromInt(80), ConstructionPhase: phasePtr(construction.PhaseFinishing)},
	})
	require.NoError(t, err)

	p, err := plan.NewFlatPaymentPlan("PP-20260831-00001", flat.ID, uuid.New(), customer.ID, tpl,
		valueobject.NewMoneyINR(decimal.NewFromInt(8000000)))
	require.NoError(t, err)

	return appplan.DraftData{
		DraftNumber: "DD-20260831-00001",
		Customer:    customer,
		Flat:        flat,
		Plan:        p,
		Milestone:   &p.Milestones[1],
	}
}

func phasePtr(p construction.Phase) *construction.Phase {
	return &p
}

func TestTemplateComposer_Compose(t *testing.T) {
	composer, err := NewTemplateComposer("")
	require.NoError(t, err)

	content, err := composer.Compose(context.Background(), draftData(t))
	require.NoError(t, err)

	assert.Contains(t, content, "DD-20260831-00001")
	assert.Contains(t, content, "Asha Verma")
	assert.Contains(t, content, "A-1204")
	assert.Contains(t, content, "Possession")
	// Indian digit grouping for the 64L instalment
	assert.Contains(t, content, "64,00,000")
}

func TestTemplateComposer_Compose_PhaselessMilestone(t *testing.T) {
	composer, err := NewTemplateComposer("")
	require.NoError(t, err)

	data := draftData(t)
	data.Milestone = &data.Plan.Milestones[0] // Booking has no construction phase

	content, err := composer.Compose(context.Background(), data)
	require.NoError(t, err)

	assert.Contains(t, content, "Booking")
	assert.Contains(t, content, "As per the schedule")
}

func TestTemplateComposer_MissingTemplateFile(t *testing.T) {
	_, err := NewTemplateComposer("/nonexistent/template.html")
	assert.Error(t, err)
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "₹12,34,567.89", formatMoney(decimal.RequireFromString("1234567.89")))
	assert.Equal(t, "₹100.00", formatMoney(decimal.NewFromInt(100)))
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "05 Mar 2026", formatDate(d))
}
