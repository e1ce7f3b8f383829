package spur

type GrantState uint8

const (
	GrantStateUnknown GrantState = iota
	GrantStateActive
	GrantStateFullyUnlocked
	GrantStateRevoked
)

func (s GrantState) String() string {
	switch s {
	case GrantStateUnknown:
		return "unknown"
	case GrantStateActive:
		return "active"
	case GrantStateFullyUnlocked:
		return "fully_unlocked"
	case GrantStateRevoked:
		return "revoked"
	}

	return "unknown"
}
