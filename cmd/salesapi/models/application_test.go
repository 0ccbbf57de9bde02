package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/helcity/homesales/common/apperr"
)

func TestApplicationRegime_Known(t *testing.T) {
	assert.True(t, RegimePriorityOrdered.Known())
	assert.True(t, RegimeLotteryPoolA.Known())
	assert.True(t, RegimeLotteryPoolB.Known())
	assert.False(t, ApplicationRegime("COOPERATIVE").Known())
	assert.False(t, ApplicationRegime("").Known())
}

func TestApplicationRegime_Lottery(t *testing.T) {
	assert.False(t, RegimePriorityOrdered.Lottery())
	assert.True(t, RegimeLotteryPoolA.Lottery())
	assert.True(t, RegimeLotteryPoolB.Lottery())
}

func TestApplicationValidate(t *testing.T) {
	base := func() *Application {
		return &Application{
			ApplicationUUID: uuid.New(),
			Regime:          RegimePriorityOrdered,
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("unknown regime", func(t *testing.T) {
		app := base()
		app.Regime = ApplicationRegime("COOPERATIVE")
		assert.ErrorIs(t, app.Validate(), apperr.ErrValidation)
	})

	t.Run("approved and rejected", func(t *testing.T) {
		app := base()
		app.IsApproved = true
		app.IsRejected = true
		assert.ErrorIs(t, app.Validate(), apperr.ErrValidation)
	})

	t.Run("offer accepted without approval", func(t *testing.T) {
		app := base()
		app.HasAcceptedOffer = true
		assert.ErrorIs(t, app.Validate(), apperr.ErrValidation)
	})

	t.Run("offer accepted with approval", func(t *testing.T) {
		app := base()
		app.IsApproved = true
		app.HasAcceptedOffer = true
		assert.NoError(t, app.Validate())
	})
}
