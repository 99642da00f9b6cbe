// Package agent defines crew member roles and a registry factory that
// builds them by type name.
package agent
