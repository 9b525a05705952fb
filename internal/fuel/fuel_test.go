package fuel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/fleetspend/internal/apperr"
	"github.com/MrJamesThe3rd/fleetspend/internal/fuel"
)

func TestParse(t *testing.T) {
	got, err := fuel.Parse(" Diesel ")
	require.NoError(t, err)
	assert.Equal(t, fuel.Diesel, got)

	_, err = fuel.Parse("kerosene")
	assert.True(t, apperr.IsValidation(err))
}

func TestParseOptional(t *testing.T) {
	for _, in := range []*string{nil, new(""), new("all")} {
		got, err := fuel.ParseOptional(in)
		require.NoError(t, err)
		assert.Nil(t, got)
	}

	got, err := fuel.ParseOptional(new("ethanol"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, fuel.Ethanol, *got)
}

func TestFromProductName(t *testing.T) {
	tests := map[string]fuel.Type{
		"Diesel S10":     fuel.Diesel,
		"GASOLINA COMUM": fuel.Gasoline,
		"Etanol":         fuel.Ethanol,
		"Álcool Hidrat.": fuel.Ethanol,
	}

	for name, want := range tests {
		got, ok := fuel.FromProductName(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	_, ok := fuel.FromProductName("Arla 32")
	assert.False(t, ok)
}
