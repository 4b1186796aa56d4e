/*
Package session implements session persistence orchestration.

A Manager serializes access to each session's snapshot, locally through
reference-counted mutexes and across replicas through an optional
ports.DistributedLocker.
*/
package session
