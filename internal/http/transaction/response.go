package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fleetspend/internal/fuel"
	"github.com/MrJamesThe3rd/fleetspend/internal/money"
	"github.com/MrJamesThe3rd/fleetspend/internal/transaction"
)

type Response struct {
	ID              uuid.UUID          `json:"id"`
	VehicleID       uuid.UUID          `json:"vehicle_id"`
	LicensePlate    string             `json:"license_plate"`
	FuelType        fuel.Type          `json:"fuel_type"`
	Liters          float64            `json:"liters"`
	PricePerLiter   float64            `json:"price_per_liter"`
	TotalAmount     float64            `json:"total_amount"`
	StationID       string             `json:"station_id,omitempty"`
	StationName     string             `json:"station_name"`
	TransactionDate time.Time          `json:"transaction_date"`
	Status          transaction.Status `json:"status"`
	InvoiceID       *uuid.UUID         `json:"invoice_id,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

func ToResponse(tx *transaction.Transaction) Response {
	return Response{
		ID:              tx.ID,
		VehicleID:       tx.VehicleID,
		LicensePlate:    tx.LicensePlate,
		FuelType:        tx.FuelType,
		Liters:          money.Liters(tx.Liters),
		PricePerLiter:   tx.PricePerLiter.InexactFloat64(),
		TotalAmount:     money.Amount(tx.TotalAmount),
		StationID:       tx.StationID,
		StationName:     tx.StationName,
		TransactionDate: tx.Date,
		Status:          tx.Status,
		InvoiceID:       tx.InvoiceID,
		CreatedAt:       tx.CreatedAt,
	}
}

func ToResponseList(txs []*transaction.Transaction) []Response {
	resp := make([]Response, len(txs))
	for i, tx := range txs {
		resp[i] = ToResponse(tx)
	}

	return resp
}

// ParamsDTO is a purchase as a client submits it. Amounts travel as decimal strings so rows
// echoed back for confirmation keep their exact value.
type ParamsDTO struct {
	VehicleID       *uuid.UUID      `json:"vehicle_id,omitempty"`
	LicensePlate    string          `json:"license_plate,omitempty"`
	FuelType        *string         `json:"fuel_type,omitempty"`
	Liters          decimal.Decimal `json:"liters"`
	PricePerLiter   decimal.Decimal `json:"price_per_liter"`
	StationID       string          `json:"station_id,omitempty"`
	StationName     string          `json:"station_name"`
	TransactionDate time.Time       `json:"transaction_date"`
	Status          string          `json:"status,omitempty"`
}

func (p ParamsDTO) ToParams() (transaction.CreateParams, error) {
	fuelType, err := fuel.ParseOptional(p.FuelType)
	if err != nil {
		return transaction.CreateParams{}, err
	}

	var status transaction.Status
	if p.Status != "" {
		if status, err = transaction.ParseStatus(p.Status); err != nil {
			return transaction.CreateParams{}, err
		}
	}

	return transaction.CreateParams{
		VehicleID:     p.VehicleID,
		LicensePlate:  p.LicensePlate,
		FuelType:      fuelType,
		Liters:        p.Liters,
		PricePerLiter: p.PricePerLiter,
		StationID:     p.StationID,
		StationName:   p.StationName,
		Date:          p.TransactionDate,
		Status:        status,
	}, nil
}

func ToParamsDTO(p transaction.CreateParams) ParamsDTO {
	dto := ParamsDTO{
		VehicleID:       p.VehicleID,
		LicensePlate:    p.LicensePlate,
		Liters:          p.Liters,
		PricePerLiter:   p.PricePerLiter,
		StationID:       p.StationID,
		StationName:     p.StationName,
		TransactionDate: p.Date,
		Status:          string(p.Status),
	}

	if p.FuelType != nil {
		dto.FuelType = new(string(*p.FuelType))
	}

	return dto
}
