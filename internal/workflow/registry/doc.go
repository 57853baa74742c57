// Package registry holds the immutable component catalog: which components
// exist, in which order they are considered, and which components each one
// depends on. Construction validates the dependency graph so a registry that
// exists is always acyclic and closed over its own keys.
package registry
