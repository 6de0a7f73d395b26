// Package drafting renders the customer-facing demand draft documents.
// The composer produces the HTML letter stored with the draft aggregate;
// the PDF renderer turns a stored draft into a downloadable document.
package drafting

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	appplan "github.com/realtyerp/backend/internal/application/plan"
	domainplan "github.com/realtyerp/backend/internal/domain/plan"
)

// inr groups digits the Indian way (1,00,00,000)
var inr = message.NewPrinter(language.MustParse("en-IN"))

// TemplateComposer renders demand draft letters from an HTML template.
// It uses Go's html/template package with formatting helpers.
type TemplateComposer struct {
	tmpl *template.Template
}

// NewTemplateComposer creates a composer using the built-in letter
// template. templatePath, when non-empty, overrides it with a template
// loaded from disk.
func NewTemplateComposer(templatePath string) (*TemplateComposer, error) {
	source := defaultDraftTemplate
	if templatePath != "" {
		raw, err := os.ReadFile(templatePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read draft template %s: %w", templatePath, err)
		}
		source = string(raw)
	}

	tmpl, err := template.New("demand_draft").Funcs(composerFuncs()).Parse(source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse draft template: %w", err)
	}
	return &TemplateComposer{tmpl: tmpl}, nil
}

func composerFuncs() template.FuncMap {
	return template.FuncMap{
		"formatMoney":   formatMoney,
		"formatDate":    formatDate,
		"formatPercent": formatPercent,
	}
}

// Compose renders the letter for the given draft snapshot
func (c *TemplateComposer) Compose(ctx context.Context, data appplan.DraftData) (string, error) {
	milestone := data.Milestone
	plan := data.Plan
	flat := data.Flat

	dueDate := data.DueDate
	if dueDate.IsZero() {
		dueDate = time.Now().Add(domainplan.DueDateOffset)
	}

	view := map[string]any{
		"DraftNumber":   data.DraftNumber,
		"IssueDate":     time.Now(),
		"DueDate":       dueDate,
		"CustomerName":  data.Customer.Name,
		"CustomerPhone": data.Customer.Phone,
		"CustomerEmail": data.Customer.Email,
		"Address":       data.Customer.Address,
		"FlatNumber":    flat.Number,
		"Tower":         flat.Tower,
		"Floor":         flat.Floor,
		"PlanNumber":    plan.PlanNumber,
		"Milestone":     milestone.Name,
		"Description":   milestone.Description,
		"Sequence":      milestone.Sequence,
		"Amount":        milestone.Amount,
		"TotalAmount":   plan.TotalAmount,
		"PaidAmount":    plan.PaidAmount,
		"BalanceAmount": plan.BalanceAmount,
	}
	if milestone.ConstructionPhase != nil {
		view["Phase"] = string(*milestone.ConstructionPhase)
		view["Threshold"] = milestone.Threshold()
	}

	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render draft content: %w", err)
	}
	return buf.String(), nil
}

// formatMoney renders a decimal amount as Indian rupees
func formatMoney(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return inr.Sprintf("₹%v", number.Decimal(f,
		number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

func formatDate(t time.Time) string {
	return t.Format("02 Jan 2006")
}

func formatPercent(d decimal.Decimal) string {
	return d.Round(2).String() + "%"
}

var _ appplan.ContentComposer = (*TemplateComposer)(nil)
