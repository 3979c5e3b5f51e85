package models

import (
	"github.com/zeebo/errs"
)

var (
	// ProvisioningFailure means a session's staging area or upload
	// identity could not be created or torn down.
	ProvisioningFailure = errs.Class("provisioning failure")

	// TransferFailure means a commit could not enumerate, hash, or
	// place a staged file, or could not get ids for them.
	TransferFailure = errs.Class("transfer failure")

	// PublishFailure means the catalog rejected or never received
	// the session's metadata.
	PublishFailure = errs.Class("publish failure")

	// AuthorizationFailure means the caller does not own the session.
	AuthorizationFailure = errs.Class("authorization failure")

	// ConcurrencyGuardRejection means the session is in a state that
	// does not allow the requested change.
	ConcurrencyGuardRejection = errs.Class("commit rejected")
)
