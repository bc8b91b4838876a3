// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the watchroom API.

# Route Registration

NewRouter creates a chi router with all endpoints:

	mux := router.NewRouter(db, cfg)

Every request passes through RequestID, CORS, Metrics and Authenticate.
Handlers are wrapped in WithLogging and, where needed, RequireUser or
RequirePermission.

# Endpoints

Operational:

	GET /health
	GET /metrics

Auth and users:

	POST /auth/register        - Create account, returns token
	POST /auth/login           - Returns token, marks online
	GET  /users                - Directory
	PUT  /users/{id}/mute      - Toggle chat mute (manage users)
	PUT  /users/{id}/ban       - Toggle ban (manage users)
	PUT  /users/{id}/role      - Change role (creator)
	PUT  /users/{id}/offline   - Mark offline (self or manage users)

Chat:

	GET    /chat/messages?limit=N
	POST   /chat/messages          - Signed-in, not banned
	DELETE /chat/messages          - Clear (creator)
	DELETE /chat/messages/{id}     - Delete one (creator)
	GET    /chat/settings
	PUT    /chat/settings          - Toggle chat (creator)

Video and polls:

	GET  /video/current
	PUT  /video/current            - creator, senior-admin
	GET  /polls/active
	POST /polls                    - creator, senior-admin, admin
	POST /polls/active/votes       - Signed-in, once per poll
	POST /polls/active/end         - creator, senior-admin, admin
*/
package router
