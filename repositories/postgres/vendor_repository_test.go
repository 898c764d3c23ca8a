package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestVendorRepository_IsNewVendor(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewVendorRepository(db, zap.NewNop())

	orgID := uuid.New()

	t.Run("unknown merchant is new, lookup lowercased", func(t *testing.T) {
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(orgID, "figma inc.").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		isNew, err := repo.IsNewVendor(context.Background(), orgID, "Figma Inc.")
		require.NoError(t, err)
		assert.True(t, isNew)
	})

	t.Run("recorded merchant is not new", func(t *testing.T) {
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(orgID, "aws").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		isNew, err := repo.IsNewVendor(context.Background(), orgID, "AWS")
		require.NoError(t, err)
		assert.False(t, isNew)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVendorRepository_RecordMerchant(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewVendorRepository(db, zap.NewNop())

	orgID := uuid.New()

	mock.ExpectExec("INSERT INTO org_vendors").
		WithArgs(orgID, "figma inc.").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.RecordMerchant(context.Background(), orgID, "Figma Inc."))
	assert.NoError(t, mock.ExpectationsWereMet())
}
