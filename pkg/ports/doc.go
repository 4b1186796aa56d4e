/*
Package ports defines the driven ports (interfaces) used by reschema sessions.

These interfaces decouple live stores from persistence, so a session can be
backed by memory, Redis or any custom backend.

# Key Interfaces

  - SnapshotStore: persists and loads the global tree of a session.
  - DistributedLocker: serializes access to a session across replicas.
*/
package ports
