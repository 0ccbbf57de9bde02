package service

import (
	"fmt"
	"strings"

	"github.com/helcity/homesales/cmd/salesapi/models"
)

// ContractGenerator renders a contract artifact from a finalized
// reservation and its unit. It is a pure function of its inputs; the real
// PDF renderer plugs in behind this interface.
type ContractGenerator interface {
	Render(res *models.Reservation, unit *UnitInfo) (filename string, data []byte, err error)
}

// TextContractGenerator is the built-in plain-text renderer used until a
// PDF backend is wired in.
type TextContractGenerator struct{}

// NewTextContractGenerator creates the plain-text contract renderer
func NewTextContractGenerator() *TextContractGenerator {
	return &TextContractGenerator{}
}

// Render produces the contract artifact for the reservation
func (g *TextContractGenerator) Render(res *models.Reservation, unit *UnitInfo) (string, []byte, error) {
	ownership := strings.ToLower(unit.OwnershipType)
	if ownership == "" {
		return "", nil, fmt.Errorf("unit %s has no ownership type", unit.UnitUUID)
	}

	title := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(unit.Title)), " ", "_")
	filename := fmt.Sprintf("%s_contract", ownership)
	if title != "" {
		filename = fmt.Sprintf("%s_contract_%s", ownership, title)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "RESERVATION CONTRACT (%s)\n", strings.ToUpper(ownership))
	fmt.Fprintf(&b, "Reservation: %d\n", res.ID)
	fmt.Fprintf(&b, "Unit: %s\n", unit.UnitUUID)
	fmt.Fprintf(&b, "Unit title: %s\n", unit.Title)
	fmt.Fprintf(&b, "State: %s\n", res.State)
	fmt.Fprintf(&b, "Queue position: %d\n", res.QueuePosition)

	return filename, []byte(b.String()), nil
}
