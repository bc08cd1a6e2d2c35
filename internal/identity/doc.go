// Package identity is the client side of authentication.
//
// It stores the tokens obtained at login, renews expired access tokens with
// the refresh token, and resolves the current user's learning profile. The
// YOPUEDO_TOKEN environment variable bypasses the stored credentials.
package identity
