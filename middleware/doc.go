// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	r.Get("/health", middleware.WithLogging(handler))

Logs request start (method, path, remote, request_id) and completion
(status, duration_ms). Completions with 4xx are logged at warn, 5xx at error.

RequestID assigns each request an id (X-Request-ID), reusing one supplied by
the caller.

# Authentication

Authenticate turns an optional bearer token into the current user:

	r.Use(middleware.Authenticate(tokens, authHandler.LookupUser))

Handlers read the user with CurrentUser. Routes that need a caller wrap the
handler:

	middleware.RequireUser(h.SendMessage)
	middleware.RequirePermission(roles.ManagePolls, h.CreatePoll)

RequireUser answers 401 for anonymous and 403 for banned callers;
RequirePermission additionally answers 403 when the caller's role is not in
the action's allow-set.

# Metrics

Metrics counts requests and observes latency labelled by chi route pattern.
Expose them with promhttp.Handler().

# CORS Middleware

Allows methods GET, POST, PUT, DELETE, OPTIONS with headers
Content-Type, Authorization, X-Request-ID.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

	var req models.SendMessageRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
*/
package middleware
