package authz

import "strings"

// Level is an ordinal access tier. Levels form a strict total order:
// none < read < create < update < delete < manage. The effective level for
// a resource is always the maximum across all evidence sources.
type Level int

const (
	// LevelNone grants nothing and is the zero value.
	LevelNone Level = iota
	// LevelRead allows viewing a resource.
	LevelRead
	// LevelCreate allows creating new records.
	LevelCreate
	// LevelUpdate allows modifying existing records.
	LevelUpdate
	// LevelDelete allows removing records.
	LevelDelete
	// LevelManage grants full control including administration.
	LevelManage
)

var levelNames = [...]string{
	LevelNone:   "none",
	LevelRead:   "read",
	LevelCreate: "create",
	LevelUpdate: "update",
	LevelDelete: "delete",
	LevelManage: "manage",
}

// String returns the lowercase action name for the level.
func (l Level) String() string {
	if l < LevelNone || int(l) >= len(levelNames) {
		return "none"
	}
	return levelNames[l]
}

// ParseLevel maps an action name to its Level. Unknown names resolve to
// LevelNone rather than an error.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "read":
		return LevelRead
	case "create":
		return LevelCreate
	case "update":
		return LevelUpdate
	case "delete":
		return LevelDelete
	case "manage":
		return LevelManage
	default:
		return LevelNone
	}
}

// MaxLevel returns the highest level in the set, LevelNone when empty.
func MaxLevel(levels ...Level) Level {
	max := LevelNone
	for _, l := range levels {
		if l > max {
			max = l
		}
	}
	return max
}

// LevelsDescending lists the actionable levels from manage down to read.
// LevelNone is excluded; it is the fallthrough answer, not an action.
func LevelsDescending() []Level {
	return []Level{LevelManage, LevelDelete, LevelUpdate, LevelCreate, LevelRead}
}
