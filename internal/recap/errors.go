package recap

import (
	"errors"
	"fmt"
)

var (
	// ErrNoReport signals that there is nothing to report. It is not a
	// failure; callers must skip notification.
	ErrNoReport = errors.New("no report available")
	// ErrTeamNotFound is returned when the requested team is not in the credential's team list.
	ErrTeamNotFound = fmt.Errorf("%w: team not found", ErrNoReport)
	// ErrNoMembers is returned when an id lookup finds an empty leaderboard.
	ErrNoMembers = fmt.Errorf("%w: team has no members", ErrNoReport)
	// ErrInvalidRequest is returned for malformed build requests.
	ErrInvalidRequest = errors.New("invalid recap request")
)
