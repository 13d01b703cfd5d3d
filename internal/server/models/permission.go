package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/docshare/internal/common"
)

// Level is a per-document permission level.
type Level string

const (
	LevelOwner  Level = "Owner"
	LevelEditor Level = "Editor"
	LevelViewer Level = "Viewer"
)

// ParseLevel validates s against the closed set of levels.
func ParseLevel(s string) (Level, error) {
	switch l := Level(s); l {
	case LevelOwner, LevelEditor, LevelViewer:
		return l, nil
	default:
		return "", fmt.Errorf("%w: unknown permission level %q", common.ErrValidation, s)
	}
}

func (l Level) Valid() bool {
	return l == LevelOwner || l == LevelEditor || l == LevelViewer
}

// LevelSet is the set of levels an operation accepts. Levels are not
// ordered: holding Owner does not imply Editor.
type LevelSet map[Level]struct{}

func Levels(levels ...Level) LevelSet {
	s := make(LevelSet, len(levels))
	for _, l := range levels {
		s[l] = struct{}{}
	}
	return s
}

func (s LevelSet) Contains(l Level) bool {
	_, ok := s[l]
	return ok
}

// Slice returns the members in a stable order.
func (s LevelSet) Slice() []Level {
	out := make([]Level, 0, len(s))
	for l := range s {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s LevelSet) String() string {
	parts := make([]string, 0, len(s))
	for _, l := range s.Slice() {
		parts = append(parts, string(l))
	}
	return strings.Join(parts, "|")
}

// LevelSatisfies reports whether held is a member of required.
func LevelSatisfies(held Level, required LevelSet) bool {
	return required.Contains(held)
}

var (
	AnyLevel  = Levels(LevelOwner, LevelEditor, LevelViewer)
	CanShare  = Levels(LevelOwner, LevelEditor)
	CanEdit   = Levels(LevelOwner, LevelEditor)
	OwnerOnly = Levels(LevelOwner)

	// Shareable lists the levels a grant made through sharing may carry.
	Shareable = Levels(LevelEditor, LevelViewer)
)

type Permission struct {
	ID         string
	DocumentID string
	UserID     string
	Level      Level
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
