// Package driving defines the interfaces through which external callers
// drive the retrieval engine.
//
// These are the "driving" or "primary" ports in hexagonal architecture.
// The CLI adapter (and any future caller: web UI, report generator)
// depends on these interfaces; core services implement them.
package driving
