package mooring

import "errors"

// Rejection taxonomy shared across the submission pipeline. Every
// rejection surfaced to a submitter wraps exactly one of these
// sentinels, so transports can classify outcomes with errors.Is.
var (
	// ErrStructural marks bytes that cannot be decoded into a known
	// object kind, or whose encoding is not canonical.
	ErrStructural = errors.New("structural error")
	// ErrSignature marks a signature that does not verify against the
	// declared author.
	ErrSignature = errors.New("signature error")
	// ErrConsistency marks a violated domain invariant.
	ErrConsistency = errors.New("consistency error")
	// ErrAuthorization marks an action by an identity that is not
	// entitled to perform it.
	ErrAuthorization = errors.New("authorization error")
	// ErrDependencyMissing marks a referenced object absent locally.
	// Eligible for a replicator fetch before the rejection is final.
	ErrDependencyMissing = errors.New("dependency missing")
	// ErrDependencyUnavailable marks a dependency that remained absent
	// after the replicator fetch was exhausted.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	// ErrStorage marks an unavailable or failing store. The submission
	// may be retried by the caller.
	ErrStorage = errors.New("storage failure")
	// ErrConflict marks a commit race lost against a concurrent
	// submission, or an observed lineage equivocation.
	ErrConflict = errors.New("conflict")
)
