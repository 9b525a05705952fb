package importer

import (
	"io"
	"time"

	"github.com/MrJamesThe3rd/fleetspend/internal/apperr"
	"github.com/MrJamesThe3rd/fleetspend/internal/importer/stationfeed"
	"github.com/MrJamesThe3rd/fleetspend/internal/transaction"
)

type Service struct {
	importers map[Source]Importer
}

// NewService registers the known parsers. Feed timestamps without an offset are read in loc.
func NewService(loc *time.Location) *Service {
	return &Service{
		importers: map[Source]Importer{
			SourceStationFeed: stationfeed.NewParser(loc),
		},
	}
}

// Import parses r with the importer registered for source. An empty source means a station feed.
func (s *Service) Import(source Source, r io.Reader) ([]transaction.CreateParams, error) {
	if source == "" {
		source = SourceStationFeed
	}

	imp, ok := s.importers[source]
	if !ok {
		return nil, apperr.Invalid("source", "unknown source %q", source)
	}

	params, err := imp.Parse(r)
	if err != nil {
		return nil, apperr.Invalid("file", "%s", err)
	}

	return params, nil
}
