// Package all registers every storage backend with the factory.
//
// Import it for side effects from binaries that select the backend at
// runtime via config:
//
//	import _ "salesetl/internal/storage/all"
package all

import (
	_ "salesetl/internal/storage/mssql"
	_ "salesetl/internal/storage/postgres"
	_ "salesetl/internal/storage/sqlite"
)
