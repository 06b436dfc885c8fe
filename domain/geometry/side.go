package geometry

import "fmt"

// Side names one edge of a block.
type Side int

const (
	SideTop Side = iota
	SideRight
	SideBottom
	SideLeft
)

// Sides lists every side in clockwise order starting at the top.
var Sides = [...]Side{SideTop, SideRight, SideBottom, SideLeft}

func (s Side) String() string {
	switch s {
	case SideTop:
		return "top"
	case SideRight:
		return "right"
	case SideBottom:
		return "bottom"
	case SideLeft:
		return "left"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// ParseSide converts a side name back to a Side.
func ParseSide(s string) (Side, error) {
	switch s {
	case "top":
		return SideTop, nil
	case "right":
		return SideRight, nil
	case "bottom":
		return SideBottom, nil
	case "left":
		return SideLeft, nil
	}
	return 0, fmt.Errorf("unknown side %q", s)
}

// MarshalText encodes the side by name.
func (s Side) MarshalText() ([]byte, error) {
	if s < SideTop || s > SideLeft {
		return nil, fmt.Errorf("invalid side %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a side name.
func (s *Side) UnmarshalText(b []byte) error {
	v, err := ParseSide(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Horizontal reports whether the side runs left to right.
func (s Side) Horizontal() bool { return s == SideTop || s == SideBottom }
