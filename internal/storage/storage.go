package storage

import (
	"github.com/homeshine/portal-front/internal/debuglog"
	"github.com/homeshine/portal-front/internal/session"
)

// Storage combines the two persistence concerns of portal-front.
//
// The session record and the debug trail are deliberately kept under
// separate keys with different consistency requirements: losing a debug
// entry under concurrency is acceptable, losing session data is not.
type Storage interface {
	session.Persistence
	debuglog.Persistence

	// Close releases backend resources.
	Close() error
}
