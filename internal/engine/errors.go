package engine

import "errors"

// ErrNoCurrentDatabase is returned by any operation that is not itself
// CREATE/DROP/USE/SHOW DATABASE when no database has been selected (§4.9).
var ErrNoCurrentDatabase = errors.New("engine: no current database selected")
