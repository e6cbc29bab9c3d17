// Package notice holds the domain types that flow through the pipeline:
// Notice rows owned by the record store and the ephemeral Lot entries
// extracted from a notice's remote document.
package notice
