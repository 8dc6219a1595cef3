// Package storage provides the durable key-value storage that backs the
// session snapshot and tokens across process restarts.
package storage

import "errors"

// Well-known keys
const (
	KeyAccessToken  = "auth_token"
	KeyRefreshToken = "refresh_token"
	KeySession      = "auth-storage"
)

// ErrNotFound is returned by Get when the key holds no value
var ErrNotFound = errors.New("storage: key not found")

// Storage is a durable string key-value store
type Storage interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}
