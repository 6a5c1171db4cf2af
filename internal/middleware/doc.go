// Package middleware provides HTTP middleware for the vidshare API.
//
// # Session Gate
//
// Auth admits a request only when it carries a valid access token. The
// token is read from the accessToken cookie first and from an
// "Authorization: Bearer" header otherwise. The resolved account, without
// its credential fields, is attached to the request context:
//
//	account := middleware.GetAccount(r.Context())
//
// Every rejection gets the same 401 body. The reason (missing, expired,
// invalid, unknown_account) is only written to the log.
//
// # Request Processing
//
//   - RequestID: assigns or propagates X-Request-ID
//   - Logger: one structured log line per request
//   - Recovery: converts panics into a 500 problem response
//   - CORS: origin allow-list with credentials
//   - Compress: gzip for GET responses
package middleware
