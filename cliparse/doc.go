// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# CLI Flags and Environment Variables

	-p              PORT            Server port (default 3318)
	-d              DATABASE_URL    Database URL (required)
	-t              DATABASE_TYPE   sqlite (default) or postgres
	-jwt-secret     JWT_SECRET      Session token secret (required)
	-ip-salt        IP_HASH_SALT    Vote IP hash salt (required)
	-session-ttl    SESSION_TTL     Account session lifetime (default 24h)
	-redis          REDIS_ADDR      Redis CSRF token store (optional)
	                REDIS_PASSWORD
	-badges         BADGE_CONFIG    Badge tier YAML (optional)
	-secure-cookies SECURE_COOKIES  Mark cookies Secure

CLI flags take precedence over environment variables. Before the
environment is consulted, the dotenv file named by -env (default .env)
is loaded if it exists; variables already set in the environment are
not overwritten by it.
*/
package cliparse
