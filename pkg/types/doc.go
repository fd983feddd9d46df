// Package types defines the shared data model and error taxonomy for the
// environment-variable engine: scopes, variables, variable sets, import
// batches, snapshot metadata, and the typed errors every layer reports.
//
// Nothing in this package touches the registry; it is pure data so that the
// accessor, validator, codecs, backup manager, and controller can agree on
// vocabulary without import cycles.
package types
