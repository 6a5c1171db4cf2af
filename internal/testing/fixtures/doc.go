// Package fixtures provides test doubles and data factories.
//
// Accounts is an in-memory account store usable wherever the services expect
// an account repository. CreateAccount seeds it with a hashed secret:
//
//	store := fixtures.NewAccounts()
//	ana := fixtures.CreateAccount(t, store, fixtures.WithHandle("ana"))
//
// Failures forces a method to return an error:
//
//	store.Failures["SetRefreshToken"] = errors.New("db down")
package fixtures
