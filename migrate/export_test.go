package migrate

import (
	"context"

	"github.com/ostcar/pgclone/transfer"
)

// SetCopyTable replaces the function that copies one table.
func (m *Migrator) SetCopyTable(fn func(ctx context.Context, src transfer.CopyToer, dst transfer.CopyFromer, schema, table string) (transfer.Result, error)) {
	m.copyTable = fn
}
