package stationfeed

// Profile describes the column layout of a station feed export.
// Adding a new format is just adding a new Profile to the profiles slice.
type Profile struct {
	Name         string
	DateCol      string
	TimeCol      string // optional, empty when the date cell carries the time
	PlateCol     string
	StationCol   string
	StationIDCol string // optional
	ProductCol   string // optional, the vehicle's fuel type is used when absent
	LitersCol    string
	PriceCol     string
}

// requiredCols returns the column names that must be present for this profile to match.
func (p Profile) requiredCols() []string {
	cols := []string{p.DateCol, p.PlateCol, p.StationCol, p.LitersCol, p.PriceCol}

	if p.TimeCol != "" {
		cols = append(cols, p.TimeCol)
	}

	if p.ProductCol != "" {
		cols = append(cols, p.ProductCol)
	}

	return cols
}

// profiles is the ordered list of feed formats to try during auto-detection.
// More specific profiles come first so the minimal layout never shadows them.
var profiles = []Profile{
	{
		Name:         "rede",
		DateCol:      "Data",
		TimeCol:      "Hora",
		PlateCol:     "Placa",
		StationCol:   "Posto",
		StationIDCol: "CNPJ Posto",
		ProductCol:   "Combustível",
		LitersCol:    "Litros",
		PriceCol:     "Preço/L",
	},
	{
		Name:         "cartão frota",
		DateCol:      "Data/Hora",
		PlateCol:     "Placa",
		StationCol:   "Estabelecimento",
		StationIDCol: "CNPJ Estabelecimento",
		ProductCol:   "Produto",
		LitersCol:    "Quantidade",
		PriceCol:     "Valor Unitário",
	},
	{
		Name:       "simples",
		DateCol:    "Data",
		PlateCol:   "Placa",
		StationCol: "Posto",
		LitersCol:  "Litros",
		PriceCol:   "Preço",
	},
}
