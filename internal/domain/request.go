package domain

import (
	"time"

	"github.com/google/uuid"
)

// Leg is one slice of a search: a single origin/destination on a given date.
type Leg struct {
	Origin      string
	Destination string
	Date        string
	MaxStops    int
}

// Passengers is the passenger composition sent with every search.
type Passengers struct {
	Adults  int
	Child   int
	Infants int
	Seniors int
}

// OneAdult is the only composition the watcher searches for.
var OneAdult = Passengers{Adults: 1}

// SearchRequest is one outbound call to the pricing API. It is built by the
// planner, dispatched once and then discarded; only the persisted Request row
// outlives it.
type SearchRequest struct {
	Name        string
	SaleCountry string
	Passengers  Passengers
	Slices      []Leg
}

// Request is the persisted trace of a dispatched SearchRequest. Its ID links
// the offers found for it.
type Request struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}
