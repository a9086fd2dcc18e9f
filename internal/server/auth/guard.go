package auth

import "github.com/dmitrijs2005/interntrack/internal/common"

// Owned is any persisted record scoped to a single user.
type Owned interface {
	OwnerID() string
}

// AssertOwner allows access only when resource exists and belongs to
// requesterID. Existence is checked first so that a missing resource reports
// common.ErrorNotFound no matter who asks; a mismatch is common.ErrForbidden.
//
// Pass the (possibly nil) pointer returned by the lookup:
//
//	it, err := repo.GetByID(ctx, id)   // nil, ErrorNotFound when absent
//	...
//	if err := auth.AssertOwner(it, requester); err != nil { ... }
func AssertOwner[T any, P interface {
	*T
	Owned
}](resource P, requesterID string) error {
	if resource == nil {
		return common.ErrorNotFound
	}
	if requesterID == "" || resource.OwnerID() != requesterID {
		return common.ErrForbidden
	}
	return nil
}
