package importer_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/fleetspend/internal/apperr"
	"github.com/MrJamesThe3rd/fleetspend/internal/importer"
)

func TestService_Import(t *testing.T) {
	feed := "Data;Placa;Posto;Litros;Preço\n01/03/2026;ABC1D23;POSTO;10,000;5,0000\n"

	tests := []struct {
		name      string
		source    importer.Source
		input     string
		wantCount int
		wantErr   bool
	}{
		{name: "StationFeed", source: importer.SourceStationFeed, input: feed, wantCount: 1},
		{name: "DefaultSource", source: "", input: feed, wantCount: 1},
		{name: "UnknownSource", source: "bank", input: feed, wantErr: true},
		{name: "UnrecognisedFile", source: importer.SourceStationFeed, input: "a;b;c\n1;2;3\n", wantErr: true},
	}

	svc := importer.NewService(time.UTC)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := svc.Import(tt.source, strings.NewReader(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperr.IsValidation(err))

				return
			}

			require.NoError(t, err)
			assert.Len(t, params, tt.wantCount)
		})
	}
}
