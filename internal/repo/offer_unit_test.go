package repo_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lipanski/flycheap/internal/domain"
	"github.com/lipanski/flycheap/internal/repo"
)

// fakeTx is a hand-written stand-in for pgx.Tx. The embedded interface is
// nil; only the methods OfferRepo.Persist calls are implemented.
type fakeTx struct {
	pgx.Tx

	// fail, when set, decides per statement whether the insert errors.
	// n counts statements of the same table, starting at 1.
	fail func(table string, n int) error

	counts     map[string]int
	args       []pgx.NamedArgs
	committed  bool
	rolledBack bool
	commitErr  error
}

func (f *fakeTx) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	table := "offers"
	if strings.Contains(sql, "INSERT INTO flights") {
		table = "flights"
	}
	if f.counts == nil {
		f.counts = map[string]int{}
	}
	f.counts[table]++
	if len(args) == 1 {
		if named, ok := args[0].(pgx.NamedArgs); ok {
			f.args = append(f.args, named)
		}
	}

	if f.fail != nil {
		if err := f.fail(table, f.counts[table]); err != nil {
			return fakeRow{err: err}
		}
	}
	return fakeRow{id: uuid.New()}
}

func (f *fakeTx) Commit(context.Context) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	if !f.committed {
		f.rolledBack = true
	}
	return nil
}

type fakeRow struct {
	id  uuid.UUID
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*pgtype.UUID) = pgtype.UUID{Bytes: r.id, Valid: true}
	return nil
}

// fakeDB hands out a single fakeTx from Begin. The non-transactional
// methods are never reached by Persist.
type fakeDB struct {
	tx       *fakeTx
	beginErr error
	began    bool
}

func (d *fakeDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("fakeDB: unexpected Exec")
}
func (d *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("fakeDB: unexpected Query")
}
func (d *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return fakeRow{err: errors.New("fakeDB: unexpected QueryRow")}
}
func (d *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	d.began = true
	if d.beginErr != nil {
		return nil, d.beginErr
	}
	return d.tx, nil
}

// ---- helpers ---------------------------------------------------------------

func mustInstant(t *testing.T, s string) domain.Instant {
	t.Helper()
	i, err := domain.ParseInstant(s)
	require.NoError(t, err)
	return i
}

func offerFixture(t *testing.T) domain.Offer {
	t.Helper()
	return domain.Offer{
		Currency:          "EUR",
		BasePrice:         decimal.RequireFromString("72.00"),
		SalePrice:         decimal.RequireFromString("72.00"),
		TaxPrice:          decimal.RequireFromString("122.56"),
		TotalPrice:        decimal.RequireFromString("194.56"),
		LatestTicketingAt: mustInstant(t, "2016-01-20T17:48-0500"),
		Flights: []domain.Flight{
			{
				Origin: "TXL", Destination: "OTP",
				DepartsAt: mustInstant(t, "2016-03-28T21:35+0200"),
				ArrivesAt: mustInstant(t, "2016-03-29T00:45+0300"),
				Duration:  130, Mileage: 806,
				Seat: "COACH", Aircraft: "319", Carrier: "AB", Number: "8272",
			},
			{
				Origin: "OTP", Destination: "TXL",
				DepartsAt: mustInstant(t, "2016-04-03T06:30+0300"),
				ArrivesAt: mustInstant(t, "2016-04-03T07:35+0200"),
				Duration:  125, Mileage: 806,
				Seat: "COACH", Aircraft: "319", Carrier: "AB", Number: "8273",
			},
		},
	}
}

// ---- Persist ---------------------------------------------------------------

func TestOfferRepo_Persist_WritesIDsBack(t *testing.T) {
	tx := &fakeTx{}
	r := repo.NewOfferRepo(&fakeDB{tx: tx})
	requestID := uuid.New()
	offers := []domain.Offer{offerFixture(t), offerFixture(t)}

	err := r.Persist(context.Background(), requestID, offers)

	require.NoError(t, err)
	assert.True(t, tx.committed)
	assert.Equal(t, 2, tx.counts["offers"])
	assert.Equal(t, 4, tx.counts["flights"])

	for _, o := range offers {
		assert.NotEqual(t, uuid.Nil, o.ID)
		assert.Equal(t, requestID, o.RequestID)
		for _, f := range o.Flights {
			assert.NotEqual(t, uuid.Nil, f.ID)
			assert.Equal(t, o.ID, f.OfferID, "flight must link to its own offer")
		}
	}
	assert.NotEqual(t, offers[0].ID, offers[1].ID)
}

func TestOfferRepo_Persist_BindsValues(t *testing.T) {
	tx := &fakeTx{}
	r := repo.NewOfferRepo(&fakeDB{tx: tx})
	requestID := uuid.New()

	err := r.Persist(context.Background(), requestID, []domain.Offer{offerFixture(t)})

	require.NoError(t, err)
	require.Len(t, tx.args, 3)

	offerArgs := tx.args[0]
	assert.Equal(t, requestID, offerArgs["request_id"])
	assert.Equal(t, "72.00", offerArgs["base_price"], "scale must survive")
	assert.Equal(t, "194.56", offerArgs["total_price"])
	assert.Equal(t, int64(1453330080), offerArgs["latest_ticketing_at"])
	assert.Equal(t, -5*60*60, offerArgs["latest_ticketing_at_offset"])
	assert.Equal(t, false, offerArgs["refundable"])

	flightArgs := tx.args[1]
	assert.Equal(t, 0, flightArgs["position"])
	assert.Equal(t, int64(1459193700), flightArgs["departs_at"])
	assert.Equal(t, 2*60*60, flightArgs["departs_at_offset"])
	assert.Equal(t, 3*60*60, flightArgs["arrives_at_offset"])
	assert.Equal(t, "8272", flightArgs["number"])
	assert.Equal(t, 1, tx.args[2]["position"])
}

func TestOfferRepo_Persist_SecondFlightFailureRollsBack(t *testing.T) {
	tx := &fakeTx{
		fail: func(table string, n int) error {
			if table == "flights" && n == 2 {
				return errors.New("value too long for type character varying(3)")
			}
			return nil
		},
	}
	r := repo.NewOfferRepo(&fakeDB{tx: tx})
	offers := []domain.Offer{offerFixture(t)}

	err := r.Persist(context.Background(), uuid.New(), offers)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "offer 0 flight 1")
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)

	// Nothing was committed, so nothing is handed back.
	assert.Equal(t, uuid.Nil, offers[0].ID)
	assert.Equal(t, uuid.Nil, offers[0].RequestID)
	for _, f := range offers[0].Flights {
		assert.Equal(t, uuid.Nil, f.ID)
		assert.Equal(t, uuid.Nil, f.OfferID)
	}
}

func TestOfferRepo_Persist_LaterOfferFailureRollsBackEarlierOffers(t *testing.T) {
	tx := &fakeTx{
		fail: func(table string, n int) error {
			if table == "offers" && n == 2 {
				return errors.New("boom")
			}
			return nil
		},
	}
	r := repo.NewOfferRepo(&fakeDB{tx: tx})
	offers := []domain.Offer{offerFixture(t), offerFixture(t)}

	err := r.Persist(context.Background(), uuid.New(), offers)

	require.Error(t, err)
	assert.True(t, tx.rolledBack)
	assert.Equal(t, uuid.Nil, offers[0].ID, "first offer must not look persisted")
}

func TestOfferRepo_Persist_CommitFailure(t *testing.T) {
	tx := &fakeTx{commitErr: errors.New("connection reset")}
	r := repo.NewOfferRepo(&fakeDB{tx: tx})
	offers := []domain.Offer{offerFixture(t)}

	err := r.Persist(context.Background(), uuid.New(), offers)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit")
	assert.True(t, tx.rolledBack)
	assert.Equal(t, uuid.Nil, offers[0].ID)
}

func TestOfferRepo_Persist_BeginFailure(t *testing.T) {
	r := repo.NewOfferRepo(&fakeDB{beginErr: errors.New("pool closed")})

	err := r.Persist(context.Background(), uuid.New(), []domain.Offer{offerFixture(t)})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin")
}

func TestOfferRepo_Persist_NoOffersIsNoop(t *testing.T) {
	db := &fakeDB{}
	r := repo.NewOfferRepo(db)

	err := r.Persist(context.Background(), uuid.New(), nil)

	require.NoError(t, err)
	assert.False(t, db.began, "no transaction for an empty batch")
}
