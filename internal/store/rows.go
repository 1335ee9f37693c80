package store

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/stratevo/intel-cli/internal/model"
)

type scannable interface {
	Scan(dest ...any) error
}

// scanRun reads a runs row from either backend. Both database/sql and pgx
// rows satisfy scannable; their no-rows sentinels differ.
func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var params, summary sql.NullString

	err := row.Scan(&r.ID, &r.TenantID, &r.Kind, &r.Status, &params, &summary, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "scan run")
	}

	if params.Valid {
		r.Params = []byte(params.String)
	}
	if summary.Valid {
		r.Summary = []byte(summary.String)
	}
	return &r, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows)
}
