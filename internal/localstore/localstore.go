// Package localstore emulates browser local storage on the server: a flat
// key/value space per device, behind a small persistence port so the session
// store and API client can be tested without a real backend.
package localstore

import "context"

// Storage is one device's key/value space. GetItem returns (nil, nil) when the
// key is absent.
type Storage interface {
	GetItem(ctx context.Context, key string) ([]byte, error)
	SetItem(ctx context.Context, key string, value []byte) error
	RemoveItem(ctx context.Context, key string) error
}

// Backend hands out per-device Storage views over a shared store.
type Backend interface {
	Scope(namespace string) Storage
	Close() error
}

// AuthKey is the fixed key under which the session blob is persisted.
const AuthKey = "auth-storage"
