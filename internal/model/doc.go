// Package model defines domain entities and API error shapes.
//
// # Accounts
//
// Account is the single persisted entity. Credential material (SecretHash,
// RefreshToken) is tagged json:"-" and is also dropped by Account.Public,
// which is what handlers and the session gate hand out.
//
// Handles and contact addresses are stored trimmed and lower-cased; use
// NormalizeHandle and NormalizeContactAddress before any lookup.
//
// # Error Types
//
// RFC 9457 Problem Details errors are defined in errors.go:
//
//	type ProblemDetails struct {
//	    Type    string    `json:"type"`
//	    Title   string    `json:"title"`
//	    Status  int       `json:"status"`
//	    Detail  string    `json:"detail"`
//	}
package model
