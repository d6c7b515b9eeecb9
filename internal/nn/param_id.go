package nn

import (
	"fmt"

	"github.com/google/uuid"
)

// ParamID identifies a parameter for its whole lifetime.
//
// IDs are minted once when a parameter is created and survive device moves,
// precision conversion, mapping and serialization. ParamID is comparable and
// can key maps (optimizer state, gradients).
type ParamID uuid.UUID

// NewParamID returns a fresh random identifier.
func NewParamID() ParamID {
	return ParamID(uuid.New())
}

// ParseParamID parses the canonical string form produced by String.
func ParseParamID(s string) (ParamID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ParamID{}, fmt.Errorf("invalid param id %q: %w", s, err)
	}
	return ParamID(u), nil
}

// String returns the canonical UUID form.
func (id ParamID) String() string {
	return uuid.UUID(id).String()
}

// IsZero reports whether id is the zero value.
func (id ParamID) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}
