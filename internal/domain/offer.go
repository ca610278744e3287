package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Offer is one priced itinerary returned for a request. All four prices share
// Currency. Flights are ordered slice by slice, segment by segment, leg by leg.
type Offer struct {
	ID                uuid.UUID
	RequestID         uuid.UUID
	Currency          string
	BasePrice         decimal.Decimal
	SalePrice         decimal.Decimal
	TaxPrice          decimal.Decimal
	TotalPrice        decimal.Decimal
	LatestTicketingAt Instant
	Refundable        bool
	Flights           []Flight
}

// Flight is a single leg of an offer. Seat, Carrier and Number come from the
// enclosing segment and are repeated on every leg of that segment.
type Flight struct {
	ID          uuid.UUID
	OfferID     uuid.UUID
	Origin      string
	Destination string
	DepartsAt   Instant
	ArrivesAt   Instant
	Duration    int // minutes
	Mileage     int
	Seat        string
	Aircraft    string
	Carrier     string
	Number      string
}

// Skipped records a trip option the normalizer dropped and why.
type Skipped struct {
	Index    int
	OptionID string
	Err      error
}

// Dictionary resolves the codes used in a response to display names.
// Missing maps or keys are fine; callers fall back to the code.
type Dictionary struct {
	Airports map[string]string
	Carriers map[string]string
	Aircraft map[string]string
}

// Airport returns the airport name for code, or code itself.
func (d Dictionary) Airport(code string) string {
	return lookup(d.Airports, code)
}

// Carrier returns the carrier name for code, or code itself.
func (d Dictionary) Carrier(code string) string {
	return lookup(d.Carriers, code)
}

func lookup(m map[string]string, code string) string {
	if name, ok := m[code]; ok && name != "" {
		return name
	}
	return code
}
