// Package google provides service-account credentials for the Google
// Calendar API.
//
// Credentials are read once from a JSON key file or inline JSON. The
// returned token source signs a JWT assertion on first use and reuses the
// access token until it expires, so no network call happens at startup.
package google
