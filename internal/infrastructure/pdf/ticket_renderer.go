// Package pdf génère les reçus de caisse au format ticket 80 mm.
//
// Mise en page:
//
//	┌──────────────────────────────┐
//	│  Boutique + adresse           │
//	│  N° ticket + date             │
//	│  ──────────────────────────   │
//	│  Qté | Article | P.U. | Total │
//	│  ──────────────────────────   │
//	│  TOTAL / Reçu / Rendu         │
//	│  QR du numéro de ticket       │
//	└──────────────────────────────┘
package pdf

import (
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/boulangerie-api/internal/application/sales"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
)

var (
	colorPrimary = &props.Color{Red: 120, Green: 72, Blue: 24}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// largeur du rouleau et hauteur fixe hors lignes d'articles, en mm
const (
	ticketWidth      = 80.0
	ticketBaseHeight = 130.0
	ticketLineHeight = 6.0
	maxNameLength    = 22
)

var _ sales.TicketRenderer = (*MarotoTicketRenderer)(nil)

// MarotoTicketRenderer implémente sales.TicketRenderer avec Maroto v2.
type MarotoTicketRenderer struct{}

// NewMarotoTicketRenderer construit le générateur.
func NewMarotoTicketRenderer() *MarotoTicketRenderer { return &MarotoTicketRenderer{} }

// RenderTicket génère le reçu et renvoie ses octets.
func (g *MarotoTicketRenderer) RenderTicket(sale *entity.Sale, shop sales.ShopInfo) ([]byte, error) {
	if sale == nil {
		return nil, fmt.Errorf("pdf: vente absente")
	}
	height := ticketBaseHeight + float64(len(sale.Lines))*ticketLineHeight
	cfg := config.NewBuilder().
		WithDimensions(ticketWidth, height).
		WithLeftMargin(4).WithRightMargin(4).
		WithTopMargin(4).WithBottomMargin(4).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle("Ticket "+sale.TicketNumber, true).
		WithAuthor(shop.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRows(sale, shop)...)
	m.AddRows(line.NewRow(2, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(tableHeaderRow())
	m.AddRows(lineRows(sale.Lines)...)
	m.AddRows(line.NewRow(2, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRows(sale, shop.Currency)...)
	m.AddRows(footerRows(sale)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: générer le ticket: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRows(sale *entity.Sale, shop sales.ShopInfo) []core.Row {
	rows := []core.Row{
		row.New(8).Add(col.New(12).Add(
			text.New(nonEmpty(shop.Name, "Boulangerie"), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Center, Color: colorPrimary,
			}),
		)),
	}
	if shop.Address != "" {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New(shop.Address, props.Text{Size: 7, Align: align.Center, Color: colorGray}),
		)))
	}
	status := ""
	if sale.Status == entity.SaleCancelled {
		status = "  (ANNULÉ)"
	}
	rows = append(rows,
		row.New(5).Add(col.New(12).Add(
			text.New("Ticket "+sale.TicketNumber+status, props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Center, Top: 1}),
		)),
		row.New(5).Add(col.New(12).Add(
			text.New(sale.CreatedAt.Format("02/01/2006 15:04"), props.Text{Size: 7, Align: align.Center, Color: colorGray}),
		)),
	)
	return rows
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{Style: fontstyle.Bold, Size: 7, Align: a}))
	}
	return row.New(5).Add(
		h("Qté", 2, align.Left),
		h("Article", 5, align.Left),
		h("P.U.", 2, align.Right),
		h("Total", 3, align.Right),
	)
}

func lineRows(lines []entity.SaleLine) []core.Row {
	out := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		out = append(out, row.New(ticketLineHeight).Add(
			col.New(2).Add(text.New(l.Quantity.String(), props.Text{Size: 7})),
			col.New(5).Add(text.New(truncate(l.ProductName, maxNameLength), props.Text{Size: 7})),
			col.New(2).Add(text.New(formatMoney(l.UnitPrice), props.Text{Size: 7, Align: align.Right})),
			col.New(3).Add(text.New(formatMoney(l.Total), props.Text{Size: 7, Align: align.Right})),
		))
	}
	return out
}

func totalsRows(sale *entity.Sale, currency string) []core.Row {
	amount := func(label string, v decimal.Decimal, bold bool) core.Row {
		style := fontstyle.Normal
		if bold {
			style = fontstyle.Bold
		}
		return row.New(5).Add(
			col.New(6).Add(text.New(label, props.Text{Style: style, Size: 8})),
			col.New(6).Add(text.New(formatMoney(v)+" "+currency, props.Text{Style: style, Size: 8, Align: align.Right})),
		)
	}
	return []core.Row{
		amount("TOTAL", sale.Total, true),
		amount("Reçu", sale.AmountTendered, false),
		amount("Rendu", sale.Change, false),
	}
}

func footerRows(sale *entity.Sale) []core.Row {
	return []core.Row{
		row.New(3),
		row.New(30).Add(
			col.New(3),
			col.New(6).Add(code.NewQr(sale.TicketNumber, props.Rect{Percent: 95, Center: true})),
			col.New(3),
		),
		row.New(6).Add(col.New(12).Add(
			text.New("Merci de votre visite", props.Text{Size: 7, Align: align.Center, Color: colorGray, Top: 1}),
		)),
	}
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// truncate coupe un nom trop long pour la colonne (en runes).
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// formatMoney sépare les milliers par une espace et garde deux décimales si nécessaire.
// Ex: 25000 → "25 000", 1250.5 → "1 250,50"
func formatMoney(d decimal.Decimal) string {
	neg := d.IsNegative()
	d = d.Abs().Round(2)
	intPart := d.Truncate(0).String()
	frac := d.Sub(d.Truncate(0))

	n := len(intPart)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(c)
	}
	if !frac.IsZero() {
		fmt.Fprintf(&b, ",%02d", frac.Shift(2).IntPart())
	}
	return b.String()
}
