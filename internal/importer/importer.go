package importer

import (
	"io"

	"github.com/MrJamesThe3rd/fleetspend/internal/transaction"
)

// Source names the system a purchase file was exported from.
type Source string

const (
	SourceStationFeed Source = "station_feed"
)

type Importer interface {
	Parse(r io.Reader) ([]transaction.CreateParams, error)
}
