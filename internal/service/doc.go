// Package service implements account and session logic.
//
// Services receive their collaborators through a config struct and depend
// on small interfaces declared here (AccountRepository, SecretHasher,
// TokenIssuer) so tests can swap in the in-memory fixtures.
//
// # Sessions
//
// AuthService owns the token lifecycle. Each account holds at most one
// live refresh token; Login overwrites it, Refresh replaces it through a
// compare-and-swap on the stored value, and Logout clears it. A refresh
// token that verifies but no longer matches the stored value is stale.
//
// # Errors
//
// Failures are sentinel errors or *ValidationError. Handlers translate
// them with errors.Is and never inspect messages:
//
//	pair, err := auth.Refresh(ctx, token)
//	if errors.Is(err, service.ErrRefreshTokenStale) {
//	    // client must log in again
//	}
package service
