// Package objectstore provides the bucket implementations behind
// interfaces.ObjectStore: an S3-compatible store built on minio-go and an
// in-memory store for tests and local development.
package objectstore

import "errors"

// DefaultListLimit bounds listings that do not specify a limit.
const DefaultListLimit = 100

var (
	ErrObjectNotFound = errors.New("objectstore: object not found")
	ErrObjectExists   = errors.New("objectstore: object already exists")
	ErrInvalidName    = errors.New("objectstore: object name required")
	ErrBucketRequired = errors.New("objectstore: bucket required")
)
