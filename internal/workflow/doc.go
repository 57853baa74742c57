// Package workflow defines the vocabulary shared by the tddflow engine: the
// review gates a component moves through, the actions that move it, the
// persisted per-component record, and the error taxonomy surfaced to the shell.
package workflow
