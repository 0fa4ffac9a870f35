// Package dataservice is the client side of the external data service that
// owns campaign and user data.
package dataservice

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrUpstream wraps failures reported by the remote data service.
var ErrUpstream = errors.New("dataservice: upstream error")

// UserLister returns the full user list as a JSON array.
type UserLister interface {
	ListUsers(ctx context.Context) (json.RawMessage, error)
}
