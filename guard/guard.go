// Package guard implements the ownership check applied before every
// single-resource read or mutation.
package guard

import (
	"github.com/jaider012/easy-reals/api"
)

// Check compares the caller against a resource's owner. A mismatch is
// FORBIDDEN regardless of the resource's state. Pure; callers resolve the
// entity first, so a missing entity surfaces as NOT_FOUND before this runs.
func Check(requesterID, ownerID uint) error {
	if requesterID != ownerID {
		return api.Forbidden("you do not have access to this resource")
	}
	return nil
}
