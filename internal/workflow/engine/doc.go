// Package engine ties the registry, state machine and scheduler together
// behind a persistence-backed facade. Every action runs against the current
// task, is written through the state store, and only then becomes visible in
// memory.
package engine
