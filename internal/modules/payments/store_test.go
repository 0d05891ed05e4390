package payments

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"stakdcards.com/app/internal/modules/email"
	"stakdcards.com/app/internal/modules/orders"
)

func newMockStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	return NewGormStore(db), mock
}

func persistInput(withOutbox bool) PersistInput {
	now := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	in := PersistInput{
		Event: ProviderEvent{
			ID: "pe-1", Provider: "stripe", EventID: "evt_1", EventType: EventCheckoutCompleted,
			PayloadJSON: datatypes.JSON(`{}`), ReceivedAt: now,
		},
		Order: orders.Order{
			ID: "o-new", CheckoutSessionID: "cs_test_abc", Email: "geralt@rivia.example",
			Subtotal: decimal.RequireFromString("64"), Total: decimal.RequireFromString("69.12"),
			Status: orders.StatusPending, CreatedAt: now, UpdatedAt: now,
		},
		Items: []orders.OrderItem{{
			ID: "oi-1", OrderID: "o-new", ProductID: "vg-geralt", Name: "Geralt Stack",
			Quantity: 2, PriceAtTime: decimal.RequireFromString("32"), CreatedAt: now,
		}},
	}
	if withOutbox {
		orderID := in.Order.ID
		msg := email.NewOutboxMessage(email.Outgoing{
			To: []string{"geralt@rivia.example"}, Subject: "Order confirmed", HTML: "<p>hi</p>",
			Type: email.TypeOrderConfirmation, OrderID: &orderID,
		}, now)
		in.Outbox = &msg
	}
	return in
}

const (
	insertEvent     = `INSERT INTO "provider_events"`
	insertOrder     = `INSERT INTO "orders"`
	insertItems     = `INSERT INTO "order_items"`
	insertOutbox    = `INSERT INTO "email_outbox"`
	markProcessedQ  = `UPDATE "provider_events" SET`
	orderForSession = `SELECT "id" FROM "orders" WHERE checkout_session_id = $1`
)

func TestGormStore_PersistCheckout_WritesEverything(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertEvent)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertOrder)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertItems)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertOutbox)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(markProcessedQ)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := store.PersistCheckout(context.Background(), persistInput(true))
	require.NoError(t, err)
	assert.Equal(t, PersistResult{OrderID: "o-new"}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_PersistCheckout_DuplicateEvent(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertEvent)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(orderForSession)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("o-existing"))
	mock.ExpectCommit()

	res, err := store.PersistCheckout(context.Background(), persistInput(true))
	require.NoError(t, err)
	assert.Equal(t, PersistResult{OrderID: "o-existing", Duplicate: true}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_PersistCheckout_DuplicateSession(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertEvent)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertOrder)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(orderForSession)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("o-existing"))
	mock.ExpectExec(regexp.QuoteMeta(markProcessedQ)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := store.PersistCheckout(context.Background(), persistInput(true))
	require.NoError(t, err)
	assert.Equal(t, PersistResult{OrderID: "o-existing", Duplicate: true}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_PersistCheckout_ItemsFailureRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertEvent)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertOrder)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertItems)).WillReturnError(errors.New("value too long"))
	mock.ExpectRollback()

	_, err := store.PersistCheckout(context.Background(), persistInput(false))
	var pe *PersistError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, StageItems, pe.Stage)
	assert.Equal(t, "items_insert_failed", pe.Code())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_PersistCheckout_OutboxFailureRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertEvent)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertOrder)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertItems)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertOutbox)).WillReturnError(errors.New("relation does not exist"))
	mock.ExpectRollback()

	_, err := store.PersistCheckout(context.Background(), persistInput(true))
	var pe *PersistError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "outbox_insert_failed", pe.Code())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_ExistingOrder(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(orderForSession)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("o-existing"))
	id, seen, err := store.ExistingOrder(ctx, "stripe", "evt_1", "cs_test_abc")
	require.NoError(t, err)
	assert.True(t, seen)
	assert.Equal(t, "o-existing", id)

	mock.ExpectQuery(regexp.QuoteMeta(orderForSession)).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "provider_events" WHERE provider = $1 AND event_id = $2`)).
		WithArgs("stripe", "evt_2").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	_, seen, err = store.ExistingOrder(ctx, "stripe", "evt_2", "cs_test_new")
	require.NoError(t, err)
	assert.False(t, seen)

	assert.NoError(t, mock.ExpectationsWereMet())
}
