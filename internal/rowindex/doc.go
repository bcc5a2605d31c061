// Package rowindex provides an in-memory, column-typed table with secondary
// indexes on scientific names and primary keys.
//
// # Overview
//
// [RowIndex] stores rows of [Value] cells under an ordered column catalog.
// Each column is typed [TypeText], [TypeName] or [TypePrimaryKey]. Name cells
// are indexed by their case-insensitive key and primary-key cells by their
// exact string, so [RowIndex.RowsForName] and [RowIndex.RowsForPrimaryKey]
// are map lookups.
//
// # Rows
//
// A [Row] is immutable once published. Mutations publish a new Row carrying
// the same [ksid.ID], so the ID is the identity of a row across
// [RowIndex.SetValue] and [RowIndex.CreateColumn]. Rows are never deleted.
//
// # Notifications
//
// Every mutation emits an [Event] to the functions registered with
// [RowIndex.Subscribe]. Between [RowIndex.Silence] and [RowIndex.Unsilence]
// events are queued, exact duplicates are dropped, and the queue is flushed
// in order on Unsilence.
//
// # Concurrency
//
// A table has a single writer. It is still guarded by a sync.RWMutex so that
// a table built on one goroutine can be read from another and readers never
// see a half-rebuilt row set.
package rowindex
