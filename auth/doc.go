// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides token, hashing and password utilities.

# Tokens

Opaque tokens are random 24-byte (192-bit) secrets:

	token, err := auth.GenerateToken()

They are URL-safe base64 encoded without padding and back both the
anonymous tracking cookie and CSRF tokens. Compare them with
TokensEqual, which runs in constant time and never matches an empty
value.

# Passwords

Account passwords are stored as bcrypt hashes:

	hash, err := auth.HashPassword(password)    // ErrPasswordTooShort under 8 runes
	err = auth.CheckPassword(hash, password)    // ErrPasswordMismatch on mismatch

# IP Hashing

Votes record a privacy-preserving hash of the client address:

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
