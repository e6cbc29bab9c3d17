// Package extract turns a fetched notice document into lot entries.
//
// A document is read as a handful of labeled key/value tables plus at most
// one lot table. Which lot table is read, and which of its columns feed which
// Lot fields, is decided by a DocumentRule matched against the page title.
// Supporting a new document type means adding a rule, not new control flow.
package extract
