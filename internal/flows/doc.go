// Package flows holds the pure flow functions behind the engine's public
// methods. Each flow receives everything it touches through a Deps struct of
// function hooks, so the orchestration logic carries no direct dependency on
// stores, crypto, Redis, or the host package's sentinel errors. The root
// engine builds the Deps once per call and delegates.
package flows
