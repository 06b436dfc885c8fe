package valueobjects

import (
	"encoding/json"
	"strconv"
	"strings"

	apperrors "canvas-backend/pkg/errors"
)

// EntityID identifies an entity, normally "entity-N".
type EntityID struct {
	value string
}

// NewEntityID builds the id for sequence number n.
func NewEntityID(prefix string, n int) EntityID {
	return EntityID{value: prefix + strconv.Itoa(n)}
}

// EntityIDFromString wraps an existing id. Any non-empty string is accepted so
// that legacy ids survive a load.
func EntityIDFromString(id string) (EntityID, error) {
	if strings.TrimSpace(id) == "" {
		return EntityID{}, apperrors.NewValidationError("entity ID cannot be empty")
	}
	return EntityID{value: id}, nil
}

func (id EntityID) String() string { return id.value }

// IsZero checks if the EntityID is the zero value
func (id EntityID) IsZero() bool { return id.value == "" }

// Sequence returns the numeric suffix when the id has the form prefix+digits.
func (id EntityID) Sequence(prefix string) (int, bool) {
	return sequenceOf(id.value, prefix)
}

func (id EntityID) MarshalJSON() ([]byte, error) { return json.Marshal(id.value) }

func (id *EntityID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := EntityIDFromString(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ConnectionID identifies a connection, normally "conn-<unix millis>".
type ConnectionID struct {
	value string
}

// NewConnectionID builds the id for the given millisecond stamp.
func NewConnectionID(prefix string, millis int64) ConnectionID {
	return ConnectionID{value: prefix + strconv.FormatInt(millis, 10)}
}

// ConnectionIDFromString wraps an existing id.
func ConnectionIDFromString(id string) (ConnectionID, error) {
	if strings.TrimSpace(id) == "" {
		return ConnectionID{}, apperrors.NewValidationError("connection ID cannot be empty")
	}
	return ConnectionID{value: id}, nil
}

func (id ConnectionID) String() string { return id.value }
func (id ConnectionID) IsZero() bool   { return id.value == "" }

func (id ConnectionID) MarshalJSON() ([]byte, error) { return json.Marshal(id.value) }

func (id *ConnectionID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ConnectionIDFromString(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func sequenceOf(value, prefix string) (int, bool) {
	if prefix == "" || !strings.HasPrefix(value, prefix) {
		return 0, false
	}
	digits := value[len(prefix):]
	if digits == "" {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}
