// Package store keeps a local history of deployment steps and the last
// fetched copy of inspected mashups.
package store

import "errors"

// ErrNotFound is returned when a requested entity does not exist in the store.
var ErrNotFound = errors.New("not found")

// Store defines the persistence interface.
type Store interface {
	// Deployment history
	SaveDeployment(d *Deployment) error
	// ListDeployments returns recorded steps newest first. An empty name
	// matches every entity; limit <= 0 means no limit.
	ListDeployments(name string, limit int) ([]*Deployment, error)
	DeleteDeployments(name string) (int, error)

	// Inspection snapshots, one per mashup name
	SaveSnapshot(name string, data []byte) error
	GetSnapshot(name string) (*Snapshot, error)
	ListSnapshots() ([]*Snapshot, error)

	// Close the store
	Close() error
}
