package domain

import (
	"errors"
	"fmt"
	"strings"
)

// RevisionHistory is the ordered list of UIDs of records superseded by the
// record carrying it, oldest first. It is append-only: never reordered,
// never truncated.
type RevisionHistory []string

// Appended returns a copy of the history with uid appended. The receiver is
// left untouched.
func (h RevisionHistory) Appended(uid string) RevisionHistory {
	out := make(RevisionHistory, 0, len(h)+1)
	out = append(out, h...)
	return append(out, uid)
}

// Latest returns the most recently superseded UID, or "" for an empty
// history.
func (h RevisionHistory) Latest() string {
	if len(h) == 0 {
		return ""
	}
	return h[len(h)-1]
}

func (h RevisionHistory) Contains(uid string) bool {
	for _, u := range h {
		if u == uid {
			return true
		}
	}
	return false
}

func (h RevisionHistory) Validate() error {
	seen := make(map[string]struct{}, len(h))
	for i, uid := range h {
		if strings.TrimSpace(uid) == "" {
			return fmt.Errorf("history[%d] is empty", i)
		}
		if _, ok := seen[uid]; ok {
			return fmt.Errorf("history lists uid %q twice", uid)
		}
		seen[uid] = struct{}{}
	}
	return nil
}

// EnsureHistoryExtends checks that after's history preserves before's as a
// prefix, in order. Rewriting or truncating history is never legal.
func EnsureHistoryExtends(before, after RevisionHistory) error {
	if len(after) < len(before) {
		return errors.New("history was truncated")
	}
	for i, uid := range before {
		if after[i] != uid {
			return fmt.Errorf("history entry %d changed from %q to %q", i, uid, after[i])
		}
	}
	return nil
}
