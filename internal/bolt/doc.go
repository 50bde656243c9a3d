// Package bolt provides a BoltDB backend for movienight built on BoltHold.
//
// Each collection is a BoltHold type keyed by record ID. A collection save
// deletes and reinserts every record inside one bbolt transaction, so readers
// never observe a half-written collection.
package bolt
