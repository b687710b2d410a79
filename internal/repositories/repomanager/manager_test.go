package repomanager

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophcal/internal/dbx"
	"github.com/dmitrijs2005/gophcal/internal/models"
	"github.com/dmitrijs2005/gophcal/internal/repositories/metadata"
	"github.com/dmitrijs2005/gophcal/internal/repositories/schedules"
	"github.com/dmitrijs2005/gophcal/internal/repositories/users"
	"github.com/dmitrijs2005/gophcal/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var m RepositoryManager = NewSQLRepositoryManager(dbx.DialectPostgres)

	assert.IsType(t, &users.SQLRepository{}, m.Users(db))
	assert.IsType(t, &schedules.SQLRepository{}, m.Schedules(db))
	assert.IsType(t, &metadata.SQLRepository{}, m.Metadata(db))
	assert.Equal(t, dbx.DialectPostgres, NewSQLRepositoryManager(dbx.DialectPostgres).Dialect())
}

func TestClockIsPropagated(t *testing.T) {
	db, d, err := storage.Open(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	stamp := time.Date(2024, 3, 15, 9, 30, 0, 0, time.Local)
	m := NewSQLRepositoryManager(d).WithClock(func() time.Time { return stamp })

	u, err := m.Users(db).Create(context.Background(), &models.User{Username: "alice", Email: "a@x.com", PasswordHash: "h"})
	require.NoError(t, err)
	assert.True(t, stamp.Equal(u.CreatedAt))
}

func TestTransactionBoundRepos(t *testing.T) {
	db, d, err := storage.Open(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	m := NewSQLRepositoryManager(d)
	ctx := context.Background()

	err = dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := m.Users(tx).Create(ctx, &models.User{Username: "alice", Email: "a@x.com", PasswordHash: "h"}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	_, err = m.Users(db).GetByUsername(ctx, "alice")
	assert.Error(t, err)
}
