package service

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lipanski/flycheap/internal/domain"
	"github.com/lipanski/flycheap/internal/qpx"
)

// Normalize turns every usable trip option of resp into an Offer linked to
// requestID. Options without pricing, or with any field that fails to parse,
// are left out and reported in the second return value; the rest still come
// through. A response where nothing is usable yields an empty, non-nil slice.
func Normalize(resp qpx.SearchResponse, requestID uuid.UUID) ([]domain.Offer, []domain.Skipped) {
	offers := make([]domain.Offer, 0, len(resp.Trips.TripOption))
	var skipped []domain.Skipped

	for i, option := range resp.Trips.TripOption {
		offer, err := normalizeOption(option)
		if err != nil {
			skipped = append(skipped, domain.Skipped{Index: i, OptionID: option.ID, Err: err})
			continue
		}
		offer.RequestID = requestID
		offers = append(offers, offer)
	}
	return offers, skipped
}

// normalizeOption builds one Offer. Only the first pricing entry counts;
// pricing for further passenger types is ignored.
func normalizeOption(option qpx.TripOption) (domain.Offer, error) {
	if len(option.Pricing) == 0 {
		return domain.Offer{}, domain.ErrNoPricing
	}
	pricing := option.Pricing[0]

	total, err := domain.ParseMoney(pricing.SaleTotal)
	if err != nil {
		return domain.Offer{}, err
	}

	offer := domain.Offer{
		Currency:   total.Currency,
		TotalPrice: total.Amount,
		Refundable: pricing.Refundable != nil && *pricing.Refundable,
	}
	if offer.BasePrice, err = amountIn(pricing.BaseFareTotal, total.Currency); err != nil {
		return domain.Offer{}, err
	}
	if offer.SalePrice, err = amountIn(pricing.SaleFareTotal, total.Currency); err != nil {
		return domain.Offer{}, err
	}
	if offer.TaxPrice, err = amountIn(pricing.SaleTaxTotal, total.Currency); err != nil {
		return domain.Offer{}, err
	}

	if offer.LatestTicketingAt, err = domain.ParseInstant(pricing.LatestTicketingTime); err != nil {
		return domain.Offer{}, err
	}

	if offer.Flights, err = flattenFlights(option.Slice); err != nil {
		return domain.Offer{}, err
	}
	return offer, nil
}

// amountIn parses raw and insists it is in currency.
func amountIn(raw, currency string) (decimal.Decimal, error) {
	m, err := domain.ParseMoney(raw)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if m.Currency != currency {
		return decimal.Decimal{}, fmt.Errorf("currency %s does not match sale total %s: %w",
			m.Currency, currency, &domain.ParseError{Kind: domain.KindMoney, Input: raw})
	}
	return m.Amount, nil
}

// flattenFlights lists every leg of every segment of every slice, in order.
// Carrier, number and cabin live on the segment and are copied to each leg.
func flattenFlights(slices []qpx.Slice) ([]domain.Flight, error) {
	var flights []domain.Flight
	for _, slice := range slices {
		for _, segment := range slice.Segment {
			for _, leg := range segment.Leg {
				departs, err := domain.ParseInstant(leg.DepartureTime)
				if err != nil {
					return nil, err
				}
				arrives, err := domain.ParseInstant(leg.ArrivalTime)
				if err != nil {
					return nil, err
				}

				flights = append(flights, domain.Flight{
					Origin:      leg.Origin,
					Destination: leg.Destination,
					DepartsAt:   departs,
					ArrivesAt:   arrives,
					Duration:    leg.Duration,
					Mileage:     leg.Mileage,
					Seat:        segment.Cabin,
					Aircraft:    leg.Aircraft,
					Carrier:     segment.Flight.Carrier,
					Number:      segment.Flight.Number,
				})
			}
		}
	}
	return flights, nil
}
