// Package repository contains the MySQL data access layer: one repo per
// cached entity family plus the aggregate Store that exposes the atomic
// transaction surface the sync coordinator commits through. Sentinel errors
// let higher layers distinguish failure scenarios without string matching.
package repository

import "errors"

// ErrEventNotFound indicates a point lookup missed. Note that a cascade
// delete of an absent event is NOT an error; already-deleted is a success
// case during sync.
var ErrEventNotFound = errors.New("event not found")
