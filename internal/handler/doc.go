// Package handler provides the HTTP endpoints of the vidshare account API.
//
// Handlers decode the request, call one service method, and write either a
// DataResponse envelope or an RFC 9457 problem. Service errors are turned
// into problems by MapServiceError only.
//
// Session endpoints run behind middleware.Auth and read the caller with
// middleware.GetAccount. Login and refresh set the accessToken and
// refreshToken cookies; logout expires them.
//
// Uploads are streamed part by part into a media.Stager, so image bytes
// never sit in memory, and the staged files are removed when the request
// finishes.
//
//	mux := http.NewServeMux()
//	handler.RegisterRoutes(mux, handler.Routes{...})
package handler
