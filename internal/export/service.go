package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetspend/internal/apperr"
	"github.com/MrJamesThe3rd/fleetspend/internal/encoding"
	"github.com/MrJamesThe3rd/fleetspend/internal/invoice"
	"github.com/MrJamesThe3rd/fleetspend/internal/money"
)

//go:generate mockgen -source=service.go -destination=invoices_mock.go -package=export
type Invoices interface {
	Details(ctx context.Context, accountID, id uuid.UUID) (*invoice.Details, error)
}

// Service renders invoice statements for download.
type Service struct {
	invoices Invoices
	loc      *time.Location
}

func NewService(invoices Invoices, loc *time.Location) *Service {
	return &Service{invoices: invoices, loc: loc}
}

var statementHeader = []string{"Data", "Placa", "Posto", "Combustível", "Litros", "Preço/L", "Total"}

// Statement loads the invoice and writes its purchases as a semicolon separated CSV in
// charset. The invoice is returned so callers can name the download.
func (s *Service) Statement(ctx context.Context, accountID, id uuid.UUID, w io.Writer, charset string) (*invoice.Invoice, error) {
	details, err := s.invoices.Details(ctx, accountID, id)
	if err != nil {
		return nil, err
	}

	out, err := encoding.NewWriter(w, charset)
	if err != nil {
		return nil, apperr.Invalid("charset", "%s", err)
	}

	if err := s.WriteCSV(out, details); err != nil {
		return nil, err
	}

	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("flushing statement: %w", err)
	}

	return details.Invoice, nil
}

// WriteCSV writes one row per purchase followed by a totals row. Numbers use the BR format.
func (s *Service) WriteCSV(w io.Writer, d *invoice.Details) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(statementHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, tx := range d.Transactions {
		row := []string{
			tx.Date.In(s.loc).Format("02/01/2006 15:04"),
			tx.LicensePlate,
			tx.StationName,
			string(tx.FuelType),
			money.FormatBR(tx.Liters, money.LitersPlaces),
			money.FormatBR(tx.PricePerLiter, money.PricePlaces),
			money.FormatBR(tx.TotalAmount, money.AmountPlaces),
		}

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing transaction %s: %w", tx.ID, err)
		}
	}

	totals := []string{
		"Total", "", "", "",
		money.FormatBR(d.TotalLiters, money.LitersPlaces),
		"",
		money.FormatBR(d.Invoice.TotalAmount, money.AmountPlaces),
	}

	if err := cw.Write(totals); err != nil {
		return fmt.Errorf("writing totals: %w", err)
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	return nil
}

// Summary loads the invoice and renders its plain-text digest.
func (s *Service) Summary(ctx context.Context, accountID, id uuid.UUID) (string, error) {
	details, err := s.invoices.Details(ctx, accountID, id)
	if err != nil {
		return "", err
	}

	return s.FormatSummary(details), nil
}

// FormatSummary renders one line per purchase between a header and a totals line.
func (s *Service) FormatSummary(d *invoice.Details) string {
	var sb strings.Builder

	inv := d.Invoice

	fmt.Fprintf(&sb, "Fatura %s | %s a %s | vencimento %s | %s\n",
		inv.Number,
		inv.PeriodStart.In(s.loc).Format("02/01/2006"),
		inv.PeriodEnd.In(s.loc).AddDate(0, 0, -1).Format("02/01/2006"),
		inv.DueDate.In(s.loc).Format("02/01/2006"),
		inv.Status,
	)

	for _, tx := range d.Transactions {
		fmt.Fprintf(&sb, "* %s | %s | %s | %s L | R$ %s\n",
			tx.Date.In(s.loc).Format("02/01/2006"),
			tx.LicensePlate,
			tx.StationName,
			money.FormatBR(tx.Liters, money.LitersPlaces),
			money.FormatBR(tx.TotalAmount, money.AmountPlaces),
		)
	}

	fmt.Fprintf(&sb, "Total: %d abastecimentos | %s L | R$ %s\n",
		d.TransactionCount,
		money.FormatBR(d.TotalLiters, money.LitersPlaces),
		money.FormatBR(inv.TotalAmount, money.AmountPlaces),
	)

	return sb.String()
}

// Filename is the download name for an invoice statement.
func Filename(inv *invoice.Invoice) string {
	return inv.Number + ".csv"
}
