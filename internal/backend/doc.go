// Package backend is the HTTP client of the conversation backend.
//
// Every call carries a bearer token from a TokenSource. When the backend
// answers 401 the token is invalidated and the request retried once, which
// lets the TokenSource refresh an expired access token transparently.
// Non-2xx responses become *APIError values that match ErrUnauthorized and
// ErrNotFound with errors.Is.
package backend
