// Package types defines the entity types, the Store and Table interfaces, and
// the standard errors for the rapport relationship manager.
//
// Services in internal/ read and write entities only through a Store. Every
// Store call runs its callback inside one transaction, so a callback that
// returns an error leaves nothing behind.
package types
