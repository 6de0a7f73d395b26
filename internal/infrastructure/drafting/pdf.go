package drafting

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/realtyerp/backend/internal/domain/plan"
	"github.com/realtyerp/backend/internal/domain/sales"
)

// PDFRenderer produces a printable demand draft document. The HTML
// content stored on the draft remains the canonical letter; the PDF is a
// layout built from the same aggregate fields.
type PDFRenderer struct {
	builderName string
}

// NewPDFRenderer creates a PDF renderer. builderName appears in the
// letterhead (the selling entity).
func NewPDFRenderer(builderName string) *PDFRenderer {
	if builderName == "" {
		builderName = "RealtyERP"
	}
	return &PDFRenderer{builderName: builderName}
}

// Render produces the PDF bytes for a demand draft
func (r *PDFRenderer) Render(draft *plan.DemandDraft, customer *sales.Customer, flat *sales.Flat) ([]byte, error) {
	if draft == nil {
		return nil, fmt.Errorf("draft is required")
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Demand for Payment", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	m.AddRow(8,
		text.NewCol(12, r.builderName, props.Text{Size: 11}),
	)

	m.AddRow(22,
		col.New(6).Add(
			text.New("Draft number: "+draft.DraftNumber, props.Text{Top: 0}),
			text.New("Date of issue: "+formatDate(draft.CreatedAt), props.Text{Top: 5}),
			text.New("Date due: "+formatDate(draft.DueDate), props.Text{Top: 10}),
		),
		col.New(6).Add(
			text.New("Status: "+string(draft.Status), props.Text{Top: 0, Align: align.Right}),
		),
	)

	m.AddRow(30,
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold}),
			text.New(customerName(customer), props.Text{Top: 5}),
			text.New(customerAddress(customer), props.Text{Top: 10}),
		),
		col.New(6).Add(
			text.New("Property", props.Text{Style: fontstyle.Bold}),
			text.New(flatLabel(flat), props.Text{Top: 5}),
		),
	)

	m.AddRow(10,
		text.NewCol(8, "Milestone", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(4, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(12,
		text.NewCol(8, fmt.Sprintf("%d. %s", draft.MilestoneSequence, draft.MilestoneName), props.Text{Size: 9}),
		text.NewCol(4, formatMoney(draft.Amount), props.Text{Size: 9, Align: align.Right}),
	)

	m.AddRow(12,
		col.New(8),
		text.NewCol(4, "Amount due: "+formatMoney(draft.Amount), props.Text{
			Style: fontstyle.Bold,
			Size:  11,
			Align: align.Right,
		}),
	)

	m.AddRow(15,
		text.NewCol(12, "Please quote the draft number with your payment.", props.Text{Size: 8, Top: 5}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate draft pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func customerName(c *sales.Customer) string {
	if c == nil {
		return "-"
	}
	return c.Name
}

func customerAddress(c *sales.Customer) string {
	if c == nil {
		return ""
	}
	return c.Address
}

func flatLabel(f *sales.Flat) string {
	if f == nil {
		return "-"
	}
	return fmt.Sprintf("Flat %s, Tower %s, Floor %d", f.Number, f.Tower, f.Floor)
}
