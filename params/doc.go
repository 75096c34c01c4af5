// Package params validates, compares and generates case parameters.
//
// A parameter mapping has public keys, which identify a case and must hold
// one of the allowed value types, and private keys (prefixed with "_"),
// which are passed to the test body untouched. Two mappings describe the
// same case when their public projections are structurally equal; a key
// holding nil is treated as absent.
package params
