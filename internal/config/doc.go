// Package config loads vidshare API settings from environment variables.
//
// Load never fails on malformed values; it falls back to the default.
// Validate then reports every problem at once, joined with errors.Join:
//
//	cfg, _ := config.Load()
//	if err := cfg.Validate(); err != nil {
//	    // one line per failure
//	}
//
// ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET have no defaults and must
// differ. Without MEDIA_BUCKET, uploaded images are kept in memory, which
// is only useful for local runs.
package config
