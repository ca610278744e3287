package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/lipanski/flycheap/internal/domain"
)

// OfferRepo persists offers and their flights.
type OfferRepo interface {
	// Persist writes every offer and its flights for requestID in a single
	// transaction. Either all rows become visible or none do. On success the
	// generated ids, RequestID and OfferID are written back into offers.
	Persist(ctx context.Context, requestID uuid.UUID, offers []domain.Offer) error

	// ListByRequestID returns the offers of a request with their flights,
	// both in the order they were persisted.
	ListByRequestID(ctx context.Context, requestID uuid.UUID) ([]domain.Offer, error)
}

type pgOfferRepo struct {
	db db
}

// NewOfferRepo constructs an OfferRepo backed by the provided db connection.
func NewOfferRepo(db db) OfferRepo {
	return &pgOfferRepo{db: db}
}

const insertOfferSQL = `
	INSERT INTO offers (request_id, position, currency, base_price, sale_price, tax_price,
	                    total_price, latest_ticketing_at, latest_ticketing_at_offset, refundable)
	VALUES (@request_id, @position, @currency, @base_price, @sale_price, @tax_price,
	        @total_price, @latest_ticketing_at, @latest_ticketing_at_offset, @refundable)
	RETURNING id`

const insertFlightSQL = `
	INSERT INTO flights (offer_id, position, origin, destination, departs_at, departs_at_offset,
	                     arrives_at, arrives_at_offset, duration, mileage, seat, aircraft, carrier, number)
	VALUES (@offer_id, @position, @origin, @destination, @departs_at, @departs_at_offset,
	        @arrives_at, @arrives_at_offset, @duration, @mileage, @seat, @aircraft, @carrier, @number)
	RETURNING id`

func (r *pgOfferRepo) Persist(ctx context.Context, requestID uuid.UUID, offers []domain.Offer) error {
	if len(offers) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo.OfferRepo.Persist: begin: %w", err)
	}
	// Rollback after a successful Commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	offerIDs := make([]uuid.UUID, len(offers))
	flightIDs := make([][]uuid.UUID, len(offers))

	for i, offer := range offers {
		offerID, err := insertID(ctx, tx, insertOfferSQL, pgx.NamedArgs{
			"request_id":                 requestID,
			"position":                   i,
			"currency":                   offer.Currency,
			"base_price":                 numeric(offer.BasePrice),
			"sale_price":                 numeric(offer.SalePrice),
			"tax_price":                  numeric(offer.TaxPrice),
			"total_price":                numeric(offer.TotalPrice),
			"latest_ticketing_at":        offer.LatestTicketingAt.Unix(),
			"latest_ticketing_at_offset": offer.LatestTicketingAt.Offset,
			"refundable":                 offer.Refundable,
		})
		if err != nil {
			return fmt.Errorf("repo.OfferRepo.Persist: offer %d: %w", i, err)
		}
		offerIDs[i] = offerID

		flightIDs[i] = make([]uuid.UUID, len(offer.Flights))
		for j, f := range offer.Flights {
			flightID, err := insertID(ctx, tx, insertFlightSQL, pgx.NamedArgs{
				"offer_id":          offerID,
				"position":          j,
				"origin":            f.Origin,
				"destination":       f.Destination,
				"departs_at":        f.DepartsAt.Unix(),
				"departs_at_offset": f.DepartsAt.Offset,
				"arrives_at":        f.ArrivesAt.Unix(),
				"arrives_at_offset": f.ArrivesAt.Offset,
				"duration":          f.Duration,
				"mileage":           f.Mileage,
				"seat":              f.Seat,
				"aircraft":          f.Aircraft,
				"carrier":           f.Carrier,
				"number":            f.Number,
			})
			if err != nil {
				return fmt.Errorf("repo.OfferRepo.Persist: offer %d flight %d: %w", i, j, err)
			}
			flightIDs[i][j] = flightID
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.OfferRepo.Persist: commit: %w", err)
	}

	// Only now are the ids real; hand them back to the caller.
	for i := range offers {
		offers[i].ID = offerIDs[i]
		offers[i].RequestID = requestID
		for j := range offers[i].Flights {
			offers[i].Flights[j].ID = flightIDs[i][j]
			offers[i].Flights[j].OfferID = offerIDs[i]
		}
	}
	return nil
}

func (r *pgOfferRepo) ListByRequestID(ctx context.Context, requestID uuid.UUID) ([]domain.Offer, error) {
	const q = `
		SELECT id, request_id, currency, base_price::text, sale_price::text, tax_price::text,
		       total_price::text, latest_ticketing_at, latest_ticketing_at_offset, refundable
		FROM offers
		WHERE request_id = @request_id
		ORDER BY position`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"request_id": requestID})
	if err != nil {
		return nil, fmt.Errorf("repo.OfferRepo.ListByRequestID: %w", err)
	}
	defer rows.Close()

	offers := []domain.Offer{}
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.OfferRepo.ListByRequestID: scan: %w", err)
		}
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.OfferRepo.ListByRequestID: rows: %w", err)
	}
	rows.Close()

	for i := range offers {
		flights, err := r.listFlights(ctx, offers[i].ID)
		if err != nil {
			return nil, fmt.Errorf("repo.OfferRepo.ListByRequestID: %w", err)
		}
		offers[i].Flights = flights
	}
	return offers, nil
}

func (r *pgOfferRepo) listFlights(ctx context.Context, offerID uuid.UUID) ([]domain.Flight, error) {
	const q = `
		SELECT id, offer_id, origin, destination, departs_at, departs_at_offset,
		       arrives_at, arrives_at_offset, duration, mileage, seat, aircraft, carrier, number
		FROM flights
		WHERE offer_id = @offer_id
		ORDER BY position`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"offer_id": offerID})
	if err != nil {
		return nil, fmt.Errorf("flights: %w", err)
	}
	defer rows.Close()

	flights := []domain.Flight{}
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, fmt.Errorf("flights: scan: %w", err)
		}
		flights = append(flights, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("flights: rows: %w", err)
	}
	return flights, nil
}

// insertID runs an INSERT ... RETURNING id and returns the generated UUID.
func insertID(ctx context.Context, tx pgx.Tx, q string, args pgx.NamedArgs) (uuid.UUID, error) {
	var id pgtype.UUID
	if err := tx.QueryRow(ctx, q, args).Scan(&id); err != nil {
		return uuid.Nil, err
	}
	return uuid.UUID(id.Bytes), nil
}

// numeric renders d for a NUMERIC column without dropping the scale it was
// received with ("72.00" stays "72.00").
func numeric(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}

func scanOffer(s scanner) (domain.Offer, error) {
	var (
		o                      domain.Offer
		id, requestID          pgtype.UUID
		base, sale, tax, total string
		latestAt               int64
		latestOffset           int
	)
	err := s.Scan(&id, &requestID, &o.Currency, &base, &sale, &tax, &total, &latestAt, &latestOffset, &o.Refundable)
	if err != nil {
		return domain.Offer{}, err
	}

	o.ID = uuid.UUID(id.Bytes)
	o.RequestID = uuid.UUID(requestID.Bytes)
	for _, p := range []struct {
		dst *decimal.Decimal
		raw string
	}{{&o.BasePrice, base}, {&o.SalePrice, sale}, {&o.TaxPrice, tax}, {&o.TotalPrice, total}} {
		if *p.dst, err = decimal.NewFromString(p.raw); err != nil {
			return domain.Offer{}, err
		}
	}
	o.LatestTicketingAt = domain.InstantFromUnix(latestAt, latestOffset)
	return o, nil
}

func scanFlight(s scanner) (domain.Flight, error) {
	var (
		f                           domain.Flight
		id, offerID                 pgtype.UUID
		departsAt, arrivesAt        int64
		departsOffset, arriveOffset int
	)
	err := s.Scan(&id, &offerID, &f.Origin, &f.Destination, &departsAt, &departsOffset,
		&arrivesAt, &arriveOffset, &f.Duration, &f.Mileage, &f.Seat, &f.Aircraft, &f.Carrier, &f.Number)
	if err != nil {
		return domain.Flight{}, err
	}

	f.ID = uuid.UUID(id.Bytes)
	f.OfferID = uuid.UUID(offerID.Bytes)
	f.DepartsAt = domain.InstantFromUnix(departsAt, departsOffset)
	f.ArrivesAt = domain.InstantFromUnix(arrivesAt, arriveOffset)
	return f, nil
}
