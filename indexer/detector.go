package indexer

import "time"

// Document is a scanned corpus file after extraction and hashing, before any
// store interaction.
type Document struct {
	Path        string
	Fingerprint string
	Text        string
	CreatedAt   time.Time
}

// Action classifies what the sync run must do with one path.
type Action int

const (
	ActionAdd    Action = iota // present on disk, absent from the store
	ActionUpdate               // present in both, fingerprints differ
	ActionSkip                 // present in both, fingerprints match
	ActionDelete               // absent from disk, still in the store
)

func (a Action) String() string {
	switch a {
	case ActionAdd:
		return "add"
	case ActionUpdate:
		return "update"
	case ActionSkip:
		return "skip"
	case ActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// PathAction binds one path to its classification. Doc is nil for deletes.
type PathAction struct {
	Path   string
	Action Action
	Doc    *Document
}

// Detect compares scanned documents against the stored path→fingerprint map
// and returns one action per affected path: scanned paths come first in scan
// order, then tombstones for stored paths no longer on disk, in map iteration
// order. With overwrite set, every stored path that is still on disk is
// classified UPDATE regardless of its fingerprint.
func Detect(docs []Document, stored map[string]string, overwrite bool) []PathAction {
	actions := make([]PathAction, 0, len(docs))
	seen := make(map[string]bool, len(docs))

	for i := range docs {
		doc := &docs[i]
		seen[doc.Path] = true

		storedFP, exists := stored[doc.Path]
		switch {
		case !exists:
			actions = append(actions, PathAction{Path: doc.Path, Action: ActionAdd, Doc: doc})
		case overwrite || storedFP != doc.Fingerprint:
			actions = append(actions, PathAction{Path: doc.Path, Action: ActionUpdate, Doc: doc})
		default:
			actions = append(actions, PathAction{Path: doc.Path, Action: ActionSkip, Doc: doc})
		}
	}

	for path := range stored {
		if !seen[path] {
			actions = append(actions, PathAction{Path: path, Action: ActionDelete})
		}
	}

	return actions
}
