// Package client talks to the codemong backend on behalf of the CLI.
//
// HTTPClient drives the REST auth flow. It keeps the refresh cookie in a
// cookie jar, so Refresh and Logout work exactly like a browser session, and
// remembers the access token returned by Login for Bearer calls.
//
// RealtimeClient opens the Notifications stream over gRPC and sends the
// access token as "access_token" metadata, which the server's connection
// guard checks before the stream is accepted.
//
// Failures are reported as ErrUnavailable, ErrUnauthorized or *APIError.
package client
