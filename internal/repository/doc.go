// Package repository implements the data access layer for accounts.
//
// AccountRepository owns every SurrealQL statement touching the account
// table. Each write names exactly the fields it changes: the secret hash is
// written only by UpdateSecretHash and the refresh token only by
// SetRefreshToken, SwapRefreshToken and ClearRefreshToken.
//
// # Query Patterns
//
//   - Parameterized queries with $variable syntax
//   - type::record() for safe ID handling
//   - time::now() for automatic timestamps
//   - UPDATE ... WHERE for compare-and-swap on the stored refresh token
//
// Lookups return nil, nil when nothing matches; callers decide whether that
// is an error.
package repository
