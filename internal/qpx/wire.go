package qpx

import "github.com/lipanski/flycheap/internal/domain"

const (
	passengerCountsKind = "qpxexpress#passengerCounts"
	sliceInputKind      = "qpxexpress#sliceInput"
)

// searchBody is the JSON document POSTed to the search endpoint.
type searchBody struct {
	Request searchRequest `json:"request"`
}

type searchRequest struct {
	Passengers  passengers   `json:"passengers"`
	Slice       []sliceInput `json:"slice"`
	MaxPrice    *string      `json:"maxPrice,omitempty"`
	SaleCountry string       `json:"saleCountry,omitempty"`
	Refundable  *bool        `json:"refundable,omitempty"`
	Solutions   *int         `json:"solutions,omitempty"`
}

type passengers struct {
	Kind             string `json:"kind"`
	AdultCount       int    `json:"adultCount"`
	ChildCount       int    `json:"childCount"`
	InfantInLapCount int    `json:"infantInLapCount"`
	SeniorCount      int    `json:"seniorCount"`
}

type sliceInput struct {
	Kind                  string  `json:"kind"`
	Origin                string  `json:"origin"`
	Destination           string  `json:"destination"`
	Date                  string  `json:"date"`
	MaxStops              int     `json:"maxStops"`
	MaxConnectionDuration *int    `json:"maxConnectionDuration,omitempty"`
	PreferredCabin        *string `json:"preferredCabin,omitempty"`
}

// newSearchBody maps a planned request onto the wire format.
func newSearchBody(req domain.SearchRequest) searchBody {
	slices := make([]sliceInput, len(req.Slices))
	for i, leg := range req.Slices {
		slices[i] = sliceInput{
			Kind:        sliceInputKind,
			Origin:      leg.Origin,
			Destination: leg.Destination,
			Date:        leg.Date,
			MaxStops:    leg.MaxStops,
		}
	}

	return searchBody{Request: searchRequest{
		Passengers: passengers{
			Kind:             passengerCountsKind,
			AdultCount:       req.Passengers.Adults,
			ChildCount:       req.Passengers.Child,
			InfantInLapCount: req.Passengers.Infants,
			SeniorCount:      req.Passengers.Seniors,
		},
		Slice:       slices,
		SaleCountry: req.SaleCountry,
	}}
}

// SearchResponse is the decoded body of a successful search. Every field the
// API may leave out is a slice or pointer so a partial document still decodes;
// the normalizer decides what is usable.
type SearchResponse struct {
	Kind  string `json:"kind"`
	Trips Trips  `json:"trips"`
}

type Trips struct {
	RequestID  string       `json:"requestId"`
	Data       Data         `json:"data"`
	TripOption []TripOption `json:"tripOption"`
}

// Data holds the code dictionaries shipped with every response.
type Data struct {
	Airport  []Airport  `json:"airport"`
	City     []City     `json:"city"`
	Aircraft []Aircraft `json:"aircraft"`
	Tax      []Tax      `json:"tax"`
	Carrier  []Carrier  `json:"carrier"`
}

type Airport struct {
	Code string `json:"code"`
	City string `json:"city"`
	Name string `json:"name"`
}

type City struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type Aircraft struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type Tax struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Carrier struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type TripOption struct {
	ID        string    `json:"id"`
	SaleTotal string    `json:"saleTotal"`
	Slice     []Slice   `json:"slice"`
	Pricing   []Pricing `json:"pricing"`
}

type Slice struct {
	Duration int       `json:"duration"`
	Segment  []Segment `json:"segment"`
}

type Segment struct {
	ID                  string `json:"id"`
	Duration            int    `json:"duration"`
	Flight              Flight `json:"flight"`
	Cabin               string `json:"cabin"`
	BookingCode         string `json:"bookingCode"`
	BookingCodeCount    int    `json:"bookingCodeCount"`
	MarriedSegmentGroup string `json:"marriedSegmentGroup"`
	Leg                 []Leg  `json:"leg"`
	ConnectionDuration  *int   `json:"connectionDuration,omitempty"`
}

type Flight struct {
	Carrier string `json:"carrier"`
	Number  string `json:"number"`
}

type Leg struct {
	ID                  string  `json:"id"`
	Aircraft            string  `json:"aircraft"`
	ArrivalTime         string  `json:"arrivalTime"`
	DepartureTime       string  `json:"departureTime"`
	Origin              string  `json:"origin"`
	Destination         string  `json:"destination"`
	OriginTerminal      string  `json:"originTerminal,omitempty"`
	DestinationTerminal string  `json:"destinationTerminal,omitempty"`
	Duration            int     `json:"duration"`
	Mileage             int     `json:"mileage"`
	Meal                *string `json:"meal,omitempty"`
}

type Pricing struct {
	BaseFareTotal       string `json:"baseFareTotal"`
	SaleFareTotal       string `json:"saleFareTotal"`
	SaleTaxTotal        string `json:"saleTaxTotal"`
	SaleTotal           string `json:"saleTotal"`
	FareCalculation     string `json:"fareCalculation"`
	LatestTicketingTime string `json:"latestTicketingTime"`
	Ptc                 string `json:"ptc"`
	Refundable          *bool  `json:"refundable,omitempty"`
}

// Dictionary collects the response's airport, carrier and aircraft names.
func (d Data) Dictionary() domain.Dictionary {
	dict := domain.Dictionary{
		Airports: make(map[string]string, len(d.Airport)),
		Carriers: make(map[string]string, len(d.Carrier)),
		Aircraft: make(map[string]string, len(d.Aircraft)),
	}
	for _, a := range d.Airport {
		dict.Airports[a.Code] = a.Name
	}
	for _, c := range d.Carrier {
		dict.Carriers[c.Code] = c.Name
	}
	for _, a := range d.Aircraft {
		dict.Aircraft[a.Code] = a.Name
	}
	return dict
}
