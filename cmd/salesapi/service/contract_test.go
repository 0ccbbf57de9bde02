package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helcity/homesales/cmd/salesapi/models"
)

func TestTextContractGenerator_Render(t *testing.T) {
	gen := NewTextContractGenerator()

	unit := &UnitInfo{
		UnitUUID:      uuid.New(),
		Title:         "A 101",
		OwnershipType: "Haso",
	}
	res := &models.Reservation{
		ID:            7,
		UnitUUID:      unit.UnitUUID,
		State:         models.StateOfferAccepted,
		QueuePosition: 0,
	}

	filename, data, err := gen.Render(res, unit)
	require.NoError(t, err)
	assert.Equal(t, "haso_contract_a_101", filename)
	assert.Contains(t, string(data), "Reservation: 7")
	assert.Contains(t, string(data), unit.UnitUUID.String())
}

func TestTextContractGenerator_RequiresOwnershipType(t *testing.T) {
	gen := NewTextContractGenerator()

	_, _, err := gen.Render(&models.Reservation{ID: 1}, &UnitInfo{UnitUUID: uuid.New()})
	assert.Error(t, err)
}
