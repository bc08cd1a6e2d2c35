// Package api implements yopuedo-devserver, a local stand-in for the
// YoPuedo360 conversation backend.
//
// # Endpoints
//
// All REST endpoints live under /api/v1:
//
//	POST   /auth/login                          {username,password} -> {access,refresh}
//	POST   /auth/refresh                        {refresh} -> {access}
//	GET    /users/me                            user + learning_profile
//	GET    /users/{uid}/ai-friends              partners, most recent first
//	DELETE /users/{uid}/ai-friends/{fid}        204
//	GET    /users/{uid}/ai-friends/{fid}/messages?limit=N
//	POST   /users/{uid}/ai-friends/{fid}/messages  -> partner reply
//	POST   /users/{uid}/conversations/{fid}/read   204
//	POST   /translate, /correct, /feedback
//
// /health and the Prometheus endpoint (metrics.path) sit at the root.
// Errors are always {"error": "..."}.
//
// # Auth and limits
//
// Everything except login and refresh needs an access token. A user may
// only touch their own /users/{uid} tree. Each user gets a token bucket of
// limits.rps requests per second with limits.burst headroom; excess
// requests get 429.
//
// # Idempotent sends
//
// A send carrying idempotency_key is processed once per user, partner and
// key within dedupe.ttl. Retries and concurrent duplicates receive the
// original reply and nothing is stored twice.
package api
