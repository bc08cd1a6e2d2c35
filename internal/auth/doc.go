// Package auth provides authentication for yopuedo-devserver.
//
// # Tokens
//
// Users log in with a username and password and receive two HS256 JWTs
// signed with the configured jwt_secret:
//
//   - access: short lived, sent as "Authorization: Bearer <token>"
//   - refresh: long lived, exchanged at /auth/refresh for a new access token
//
// The "typ" claim records which one a token is, and Verify rejects a token
// of the wrong type, so a refresh token cannot be used as a bearer token.
//
// # Passwords
//
// Passwords are stored as bcrypt hashes. CheckPassword runs a comparison
// even for unknown users.
//
// # HTTP Middleware
//
// HTTPAuthMiddleware verifies the bearer token and stores the user ID in the
// request context (UserFromContext). RequireSelf additionally pins the
// {uid} path segment to that user.
package auth
