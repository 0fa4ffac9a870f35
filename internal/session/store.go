package session

import (
	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/postgresstore"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
)

// StoreFor returns the scs store backed by the application DB for driver:
// "mysql", "postgres", or "sqlite3" (default).
func StoreFor(db *sqlx.DB, driver string) scs.Store {
	switch driver {
	case "mysql":
		return mysqlstore.New(db.DB)
	case "postgres":
		return postgresstore.New(db.DB)
	default: // sqlite3
		return sqlite3store.New(db.DB)
	}
}
