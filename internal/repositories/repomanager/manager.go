// Package repomanager vends repository implementations bound to either the
// shared database handle or a transaction, so services can run several
// repository calls atomically.
package repomanager

import (
	"time"

	"github.com/dmitrijs2005/gophcal/internal/dbx"
	"github.com/dmitrijs2005/gophcal/internal/repositories/metadata"
	"github.com/dmitrijs2005/gophcal/internal/repositories/schedules"
	"github.com/dmitrijs2005/gophcal/internal/repositories/users"
)

type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Schedules(db dbx.DBTX) schedules.Repository
	Metadata(db dbx.DBTX) metadata.Repository
}

// SQLRepositoryManager builds the SQL repositories for one dialect.
type SQLRepositoryManager struct {
	dialect dbx.Dialect
	now     func() time.Time
}

func NewSQLRepositoryManager(d dbx.Dialect) *SQLRepositoryManager {
	return &SQLRepositoryManager{dialect: d, now: time.Now}
}

// WithClock sets the clock handed to repositories that stamp rows.
func (m *SQLRepositoryManager) WithClock(now func() time.Time) *SQLRepositoryManager {
	m.now = now
	return m
}

func (m *SQLRepositoryManager) Dialect() dbx.Dialect {
	return m.dialect
}

func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db, m.dialect).WithClock(m.now)
}

func (m *SQLRepositoryManager) Schedules(db dbx.DBTX) schedules.Repository {
	return schedules.NewSQLRepository(db, m.dialect).WithClock(m.now)
}

func (m *SQLRepositoryManager) Metadata(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLRepository(db, m.dialect)
}
