// Package authkit is an embeddable authentication subsystem: it issues and
// validates signed bearer tokens, runs forgotten/reset password flows, and
// manages an optional TOTP second factor.
//
// The package is the public surface. It exposes [Engine], [Builder], [Config],
// the [UserStore] credential adapter interface, and result value types. Flow
// orchestration lives under internal/ and is never exported.
//
// # Architecture boundaries
//
// authkit owns no persistence. Callers implement [UserStore] over their user
// database; the Engine mutates user records only through that interface.
// Bearer tokens are stateless: validity is determined solely by signature and
// expiry, never by a server-side session record. Reset tokens are the one
// exception: they are additionally persisted on the user record so that
// issuing a new token, or completing a reset, invalidates every token issued
// before it.
//
// # Concurrency
//
// Engine methods are safe for concurrent use after [Builder.Build]. Signing
// secrets are loaded once at build time and never mutated. Per-record write
// ordering is delegated to the UserStore implementation.
package authkit
