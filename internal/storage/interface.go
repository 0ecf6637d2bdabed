package storage

import "errors"

// ErrNotFound is returned by Retrieve when no value was stored under the key
var ErrNotFound = errors.New("key not found")

// StorageInterface defines the contract for the session key-value store
type StorageInterface interface {
	Store(key string, data []byte) error
	Retrieve(key string) ([]byte, error)
	List(prefix string) ([]string, error)
	Delete(key string) error
}
