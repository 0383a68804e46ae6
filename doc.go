// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Rate My Teacher API server.

Rate My Teacher lets students rate teachers from 1 to 5 with an optional
comment, either anonymously or from an account. Account voters earn
points and badges; admins moderate through fine-grained permissions.

# Starting the Server

The server reads environment variables (optionally from .env) or CLI flags:

	JWT_SECRET=... IP_HASH_SALT=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..."

# Configuration

Required settings:

  - JWT_SECRET (--jwt-secret): HMAC key for session tokens
  - IP_HASH_SALT (--ip-salt): Salt for stored voter IP hashes

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - DATABASE_URL (-d): Connection string or SQLite file
  - SESSION_TTL: Session and CSRF token lifetime (default: 24h)
  - REDIS_ADDR / REDIS_PASSWORD: Shared CSRF token store
  - BADGE_CONFIG: YAML file overriding badge tiers
  - SECURE_COOKIES: Set Secure on cookies (true behind TLS)

# Architecture

  - handlers: HTTP request handlers and service wiring
  - router: Route definitions and middleware chains
  - middleware: Logging, CORS, JSON helpers, identity and CSRF guards
  - identity: Accounts, sessions, JWT and caller resolution
  - csrf: Per-session CSRF tokens (memory or Redis)
  - capability: Admin permission catalog and grants
  - votes: Teachers, vote ledger, aggregates, voted marker cookie
  - points: Points ledger and badge evaluation
  - ratings: Vote submission pipeline
  - lockout: Time-boxed account locks
  - metrics: Prometheus collectors
  - db: Connection and schema
  - cliparse: Configuration parsing

The operator CLI lives in cmd/ratectl.
*/
package main
