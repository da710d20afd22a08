package dataset

// database/sql drivers available to the "driver:" config keys.
import (
	_ "github.com/go-sql-driver/mysql" // mysql
	_ "github.com/jackc/pgx/v5/stdlib" // pgx
	_ "github.com/lib/pq"              // postgres
	_ "github.com/mattn/go-sqlite3"    // sqlite3 (cgo)
	_ "modernc.org/sqlite"             // sqlite (pure go)
)
