package compare

import "fmt"

// MalformedIDError reports a compare path token that is not of the form
// <baseline-id>...<contender-id>. The reason distinguishes a missing
// separator from an empty side for diagnostics; callers treat all
// variants as not-found.
type MalformedIDError struct {
	Token  string
	Reason string
}

func (e *MalformedIDError) Error() string {
	return fmt.Sprintf(
		"compare IDs must be of pattern <baseline-id>...<contender-id>: %s",
		e.Reason,
	)
}

// UnitMismatchError reports two comparable results whose units differ.
type UnitMismatchError struct {
	BaselineID    string
	BaselineUnit  string
	ContenderID   string
	ContenderUnit string
}

func (e *UnitMismatchError) Error() string {
	return fmt.Sprintf(
		"benchmark units do not match: result %q has unit %q and result %q has unit %q",
		e.BaselineID, e.BaselineUnit, e.ContenderID, e.ContenderUnit,
	)
}
