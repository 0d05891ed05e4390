package catalog

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockRepo(t *testing.T) (*Repo, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	return NewRepo(db), mock
}

func TestGetMany_KeysByID(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"id", "name", "price", "image_url", "active"}).
		AddRow("vg-geralt", "Geralt Stack", "32.00", "", true).
		AddRow("vg-ciri", "Ciri Stack", "28.50", "https://cdn/ciri.png", true)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" WHERE id IN ($1,$2,$3) AND active = $4`)).
		WithArgs("vg-geralt", "vg-ciri", "gone", true).
		WillReturnRows(rows)

	got, err := repo.GetMany(context.Background(), []string{"vg-geralt", "vg-ciri", "gone"})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.True(t, got["vg-geralt"].Price.Equal(decimal.RequireFromString("32")))
	assert.Equal(t, "Ciri Stack", got["vg-ciri"].Name)
	_, ok := got["gone"]
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMany_EmptyInputSkipsQuery(t *testing.T) {
	repo, mock := newMockRepo(t)

	got, err := repo.GetMany(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
