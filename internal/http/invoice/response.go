package invoice

import (
	"time"

	"github.com/google/uuid"

	txhttp "github.com/MrJamesThe3rd/fleetspend/internal/http/transaction"
	"github.com/MrJamesThe3rd/fleetspend/internal/invoice"
	"github.com/MrJamesThe3rd/fleetspend/internal/money"
)

type invoiceResponse struct {
	ID               uuid.UUID      `json:"id"`
	InvoiceNumber    string         `json:"invoice_number"`
	PeriodStart      time.Time      `json:"period_start"`
	PeriodEnd        time.Time      `json:"period_end"`
	TotalAmount      float64        `json:"total_amount"`
	TotalLiters      float64        `json:"total_liters"`
	DueDate          time.Time      `json:"due_date"`
	Status           invoice.Status `json:"status"`
	PaidAt           *time.Time     `json:"paid_at,omitempty"`
	TransactionCount int            `json:"transaction_count"`
	CreatedAt        time.Time      `json:"created_at"`
}

type detailsResponse struct {
	Invoice          invoiceResponse   `json:"invoice"`
	Transactions     []txhttp.Response `json:"transactions"`
	TransactionCount int               `json:"transaction_count"`
	TotalLiters      float64           `json:"total_liters"`
}

func toResponse(inv *invoice.Invoice) invoiceResponse {
	return invoiceResponse{
		ID:               inv.ID,
		InvoiceNumber:    inv.Number,
		PeriodStart:      inv.PeriodStart,
		PeriodEnd:        inv.PeriodEnd,
		TotalAmount:      money.Amount(inv.TotalAmount),
		TotalLiters:      money.Liters(inv.TotalLiters),
		DueDate:          inv.DueDate,
		Status:           inv.Status,
		PaidAt:           inv.PaidAt,
		TransactionCount: len(inv.TransactionIDs),
		CreatedAt:        inv.CreatedAt,
	}
}

func toResponseList(invs []*invoice.Invoice) []invoiceResponse {
	resp := make([]invoiceResponse, len(invs))
	for i, inv := range invs {
		resp[i] = toResponse(inv)
	}

	return resp
}

func toDetailsResponse(d *invoice.Details) detailsResponse {
	return detailsResponse{
		Invoice:          toResponse(d.Invoice),
		Transactions:     txhttp.ToResponseList(d.Transactions),
		TransactionCount: d.TransactionCount,
		TotalLiters:      money.Liters(d.TotalLiters),
	}
}
