// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package client is a typed HTTP client for the watchroom API.
//
// Requests carry the caller's context and time out after DefaultTimeout.
// Register and Login adopt the returned session token for later calls.
// Non-2xx responses become *APIError holding the server's message; use
// IsStatus to branch on the status code.
package client
