// Package scheduler picks the single component that is eligible for work. It
// walks the registry in registration order and returns the first component
// that is not complete and whose dependencies all are. Plan exposes the same
// decision for every component so callers can explain why the others wait.
package scheduler
