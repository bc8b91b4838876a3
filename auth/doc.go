// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides password hashing and session tokens.

# Passwords

Passwords are stored as bcrypt hashes:

	hashed, err := auth.HashPassword(plaintext)
	err = auth.CheckPassword(hashed, plaintext)

CheckPassword returns ErrInvalidCredentials for any mismatch so callers
cannot tell a wrong password from a corrupt hash. Passwords longer than
72 bytes are rejected because bcrypt would silently truncate them.

# Session Tokens

Login and registration hand out HS256 JWTs:

	issuer := auth.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL)
	token, expiresAt, err := issuer.Issue(user.ID, user.Username)

	claims, err := issuer.Parse(token)
	userID, err := claims.UserID()

Tokens only carry identity. Role, ban and mute state are read from the
database on every request so a role change or ban takes effect at once.
*/
package auth
