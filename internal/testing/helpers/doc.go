// Package helpers provides HTTP test utilities.
//
// # Tokens
//
//	svc := helpers.NewTestJWTService(t)
//	token := helpers.AccessTokenFor(t, svc, account)
//
// # Requests
//
//	req := helpers.NewRequest(t, http.MethodPost, "/api/v1/users/login").
//	    WithBody(map[string]string{"handle": "ana", "secret": "p4ssW0rd!"}).
//	    Build()
//
// Cookies from a previous response can be replayed with WithCookies.
//
// # Assertions
//
//	helpers.AssertStatus(t, rec, http.StatusOK)
//	helpers.AssertProblemDetails(t, rec, http.StatusUnauthorized, model.ErrCodeUnauthorized)
package helpers
