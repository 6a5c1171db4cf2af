// Package jwt issues and verifies the signed tokens behind account sessions.
//
// Two token classes exist. Access tokens are short-lived and carry a
// snapshot of the account identity. Refresh tokens are long-lived, carry only
// the account id plus a random token id, and are exchanged for a new pair on
// rotation. Each class is signed with HS256 under its own secret, so a token
// of one class never verifies as the other.
//
// # Issuing
//
//	svc, err := jwt.NewService(jwt.Config{
//	    AccessSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
//	    AccessExpiry:  15 * time.Minute,
//	    RefreshSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
//	    RefreshExpiry: 10 * 24 * time.Hour,
//	    Issuer:        "vidshare-api",
//	})
//
//	access, err := svc.IssueAccessToken(jwt.AccessIdentity{AccountID: id, Handle: "ana"})
//	refresh, err := svc.IssueRefreshToken(id)
//
// # Verifying
//
//	claims, err := svc.VerifyAccessToken(access)
//	switch {
//	case errors.Is(err, jwt.ErrTokenExpired):
//	    // signature was good, lifetime is over
//	case err != nil:
//	    // anything else: tampered, wrong class, wrong algorithm
//	}
//
// Only HS256 is accepted; tokens declaring any other algorithm are invalid.
package jwt
