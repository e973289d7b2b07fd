package postgres

import (
	"github.com/jmoiron/sqlx"

	"volguard/internal/domain/alert"
	"volguard/internal/domain/deviation"
	"volguard/internal/domain/risk"
)

// Repos builds transaction-scoped repositories. Services use it to
// commit a computation result and its derived alerts atomically.
type Repos struct{}

func (Repos) Snapshots(tx *sqlx.Tx) risk.Repository {
	return NewSnapshotRepository(tx)
}

func (Repos) Alerts(tx *sqlx.Tx) alert.Repository {
	return NewAlertRepository(tx)
}

func (Repos) Deviations(tx *sqlx.Tx) deviation.Repository {
	return NewDeviationRepository(tx)
}
