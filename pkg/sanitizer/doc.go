// Package sanitizer normalises user supplied text before validation and storage.
//
// All functions are idempotent: applying them twice yields the same result as applying
// them once. Invalid input is returned in a form the validator will reject rather than
// being silently dropped.
package sanitizer
