// Package service contains the request-planning, scheduling and
// normalization logic of flycheap, plus the Watcher that drives rounds.
// No SQL and no HTTP live here. The Watcher depends on repo interfaces and
// on a Searcher it is handed at construction.
package service

import "github.com/lipanski/flycheap/internal/domain"

// TotalRequests is the number of requests one round needs: the product of
// every trip's date count. No trips means no requests, and so does any trip
// without dates.
func TotalRequests(trips []domain.TripSpec) int {
	if len(trips) == 0 {
		return 0
	}
	total := 1
	for _, trip := range trips {
		total *= len(trip.Dates)
	}
	return total
}

// Plan expands trips into one search request per date combination.
//
// Every request gets exactly one leg per trip, in trip order. Each trip's dates
// cycle independently (dates[i % len(dates)]), so shorter date lists repeat.
// Legs search the return direction of the configured trip: a trip from OTP to
// TXL produces a TXL→OTP leg. Only direct flights are searched.
func Plan(trips []domain.TripSpec, name, saleCountry string) []domain.SearchRequest {
	total := TotalRequests(trips)
	requests := make([]domain.SearchRequest, total)
	for i := range requests {
		requests[i] = domain.SearchRequest{
			Name:        name,
			SaleCountry: saleCountry,
			Passengers:  domain.OneAdult,
			Slices:      make([]domain.Leg, 0, len(trips)),
		}
	}

	for _, trip := range trips {
		for i := range requests {
			requests[i].Slices = append(requests[i].Slices, domain.Leg{
				Origin:      trip.To,
				Destination: trip.From,
				Date:        trip.Dates[i%len(trip.Dates)],
				MaxStops:    0,
			})
		}
	}
	return requests
}
