package repomanager

import (
	"context"
	"database/sql"

	"github.com/sku-codemong/codemong-Backend-02/internal/dbx"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/repositories/friends"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/repositories/refreshtokens"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can run
// the same repository against a plain connection or inside dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Friends(db dbx.DBTX) friends.Repository
}
