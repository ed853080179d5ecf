package playout

import (
	"errors"

	"github.com/google/uuid"
)

var ErrScreenNotFound = errors.New("screen not found")

// FallbackFlightID marks playlist items that do not come from a flight.
var FallbackFlightID = uuid.Nil.String()
