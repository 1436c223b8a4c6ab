package sqlstore

import (
	"fmt"
	"strconv"
)

// Dialect captures the SQL differences between supported engines.
type Dialect struct {
	Name string
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
	// Contains renders a predicate that is true when column contains the
	// bound parameter, ignoring case. Wildcard characters in the parameter
	// are matched literally.
	Contains func(column, param string) string
}

// LowerFunc names the Unicode lower-casing SQL function the sqlite package
// registers; SQLite's built-in lower() folds ASCII only.
const LowerFunc = "nsdb_lower"

// SQLite is the dialect for modernc.org/sqlite.
var SQLite = Dialect{
	Name:        "sqlite",
	Placeholder: func(int) string { return "?" },
	Contains: func(column, param string) string {
		return fmt.Sprintf("instr(%[1]s(%[2]s), %[1]s(%[3]s)) > 0", LowerFunc, column, param)
	},
}

// Postgres is the dialect for the pgx database/sql driver.
var Postgres = Dialect{
	Name:        "postgres",
	Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	Contains: func(column, param string) string {
		return fmt.Sprintf("strpos(lower(%s), lower(%s)) > 0", column, param)
	},
}

func (d Dialect) placeholders(n int) string {
	out := ""
	for i := 1; i <= n; i++ {
		if i > 1 {
			out += ", "
		}
		out += d.Placeholder(i)
	}
	return out
}
