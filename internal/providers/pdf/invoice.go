package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// InvoiceDocument is everything the renderer needs, already formatted.
// Amount strings carry the currency-formatted values; the renderer does no
// arithmetic of its own.
type InvoiceDocument struct {
	HeaderLines []string
	FooterLines []string

	Number      string
	Status      string
	IssueDate   string
	DueDate     string
	Currency    string

	BillToName    string
	BillToAddress string
	BillToEmail   string
	BillToVAT     string

	Lines []InvoiceLine

	NetTotal       string
	DiscountAmount string
	TaxableAmount  string
	VATTotal       string
	GrandTotal     string

	TotalCredits  string
	TotalPayments string
	Balance       string
}

type InvoiceLine struct {
	Description string
	Quantity    string
	UnitPrice   string
	VATRate     string
	Amount      string
}

type MarotoProvider struct{}

func New() Provider {
	return &MarotoProvider{}
}

func (p *MarotoProvider) RenderInvoice(ctx context.Context, doc InvoiceDocument) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	for _, line := range doc.HeaderLines {
		m.AddRow(6,
			text.NewCol(12, line, props.Text{Size: 9}),
		)
	}

	m.AddRow(12,
		text.NewCol(12, "Invoice "+doc.Number, props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(18,
		col.New(6).Add(
			text.New("Date of issue: "+doc.IssueDate, props.Text{Top: 0}),
			text.New("Date due: "+doc.DueDate, props.Text{Top: 4}),
			text.New("Currency: "+doc.Currency, props.Text{Top: 8}),
			text.New("Status: "+doc.Status, props.Text{Top: 12}),
		),
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold}),
			text.New(doc.BillToName, props.Text{Top: 5}),
			text.New(doc.BillToAddress, props.Text{Top: 9}),
			text.New(doc.BillToEmail, props.Text{Top: 13}),
			text.New(doc.BillToVAT, props.Text{Top: 17}),
		),
	)

	m.AddRow(10,
		text.NewCol(5, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(1, "VAT", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, line := range doc.Lines {
		m.AddRow(8,
			text.NewCol(5, line.Description, props.Text{Size: 9}),
			text.NewCol(2, line.Quantity, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, line.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(1, line.VATRate, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, line.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(8,
		col.New(7),
		text.NewCol(3, "Net total", props.Text{Size: 9}),
		text.NewCol(2, doc.NetTotal, props.Text{Size: 9, Align: align.Right}),
	)
	if doc.DiscountAmount != "" {
		m.AddRow(8,
			col.New(7),
			text.NewCol(3, "Discount", props.Text{Size: 9}),
			text.NewCol(2, "-"+doc.DiscountAmount, props.Text{Size: 9, Align: align.Right}),
		)
		m.AddRow(8,
			col.New(7),
			text.NewCol(3, "Taxable amount", props.Text{Size: 9}),
			text.NewCol(2, doc.TaxableAmount, props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(8,
		col.New(7),
		text.NewCol(3, "VAT", props.Text{Size: 9}),
		text.NewCol(2, doc.VATTotal, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(7),
		text.NewCol(3, "Total", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(2, doc.GrandTotal, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	)

	if doc.TotalCredits != "" {
		m.AddRow(8,
			col.New(7),
			text.NewCol(3, "Credit notes", props.Text{Size: 9}),
			text.NewCol(2, "-"+doc.TotalCredits, props.Text{Size: 9, Align: align.Right}),
		)
	}
	if doc.TotalPayments != "" {
		m.AddRow(8,
			col.New(7),
			text.NewCol(3, "Payments received", props.Text{Size: 9}),
			text.NewCol(2, "-"+doc.TotalPayments, props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(10,
		col.New(7),
		text.NewCol(3, "Balance due", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(2, doc.Balance, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	)

	for _, line := range doc.FooterLines {
		m.AddRow(6,
			text.NewCol(12, line, props.Text{Size: 8}),
		)
	}

	generated, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(generated.GetBytes()), nil
}
