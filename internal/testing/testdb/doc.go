// Package testdb provides SurrealDB-backed test environments.
//
// Each TestDB gets its own namespace with the embedded migrations applied,
// so tests run real SurrealQL (unique indexes, conditional updates) against a
// real server. Tests are skipped unless TEST_DB_HOST is set.
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t)
//	    repo := repository.NewAccountRepository(tdb.DB)
//	    ...
//	}
//
// Connection settings: TEST_DB_HOST, TEST_DB_PORT (8000), TEST_DB_USER (root),
// TEST_DB_PASSWORD (root).
package testdb
