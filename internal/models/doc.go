// Package models defines domain entities and persistence interfaces for the tallyho to-do service.
//
// The package contains two categories of types:
//
// 1. Persistent Entities: Database-backed models with full lifecycle management
//   - [User] : An account reachable by local username or an external provider id, owning an ordered list of items
//
// 2. Value types used across layers
//   - [Provider] : The closed set of identity sources (local, Google, Facebook)
//   - [ItemList] : A read-only snapshot of a user's items for export and display
//
// All persistent entities implement the [Model] interface providing ID generation, timestamps, validation, and soft delete support.
// The [Repository] interface defines standard CRUD operations for database access.
package models
