package sqlite

import (
	"database/sql/driver"
	"fmt"

	sqlitedriver "modernc.org/sqlite"

	"github.com/vidshelfapp/vidshelf-core/internal/normalize"
)

// fold(x) is the SQL side of normalize.Fold. SQLite's own LIKE and NOCASE
// only fold ASCII, so text matching in queries goes through it instead.
func init() {
	sqlitedriver.MustRegisterDeterministicScalarFunction("fold", 1, foldSQL)
}

func foldSQL(_ *sqlitedriver.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return normalize.Fold(v), nil
	case []byte:
		return normalize.Fold(string(v)), nil
	default:
		return nil, fmt.Errorf("fold: unsupported argument type %T", v)
	}
}
