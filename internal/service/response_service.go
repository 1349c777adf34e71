package service

// ParamsInput is a partial update of the boost parameters; nil fields
// keep their current value.
type ParamsInput struct {
	FrequencyKHz *int
	DurationMs   *int
}

// RequestOutcome tells the requester how its boost request was taken.
type RequestOutcome struct {
	// Accepted is false when a boost is already running; the request is
	// then ignored and cleared when that boost ends.
	Accepted bool
	// AlreadyPending is true when an earlier request had not been served yet.
	AlreadyPending bool
}

// Identity is the authenticated caller extracted from an access token.
type Identity struct {
	UserID int
	Role   string
}
