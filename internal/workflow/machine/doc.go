// Package machine is the gate transition table. Apply is a pure function over
// workflow.Record: it either returns the next record or an error, and never
// touches the record it was given.
package machine
