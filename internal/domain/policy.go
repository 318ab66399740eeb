package domain

// Operation identifies an action gated by the authorization policy.
type Operation string

const (
	OpViewReview     Operation = "review:view"
	OpCreateReview   Operation = "review:create"
	OpModerateReview Operation = "review:moderate"
	OpDeleteReview   Operation = "review:delete"
)

// Can is the single authorization decision point for review operations.
// It is pure: no I/O, no side effects. ownerID is the review owner's subject
// ID (empty for operations that have no target review, such as create).
//
// Admins may view and moderate any review; users may view only their own;
// any authenticated subject may create. Every service consults this function
// instead of checking roles ad hoc so the rules cannot drift between
// endpoints.
func Can(role, subjectID, ownerID string, op Operation) bool {
	switch op {
	case OpViewReview:
		if role == RoleAdmin {
			return true
		}
		return role == RoleUser && subjectID != "" && subjectID == ownerID
	case OpCreateReview:
		return subjectID != "" && IsValidRole(role)
	case OpModerateReview, OpDeleteReview:
		return role == RoleAdmin
	default:
		return false
	}
}
