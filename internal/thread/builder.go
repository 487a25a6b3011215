// Package thread reconstructs hierarchical comment forests from flat,
// parent-pointer-addressed comment records.
package thread

import (
	"sort"

	"github.com/google/uuid"

	"orkutbook/internal/model"
)

// Build converts a flat comment set into a rooted forest. Only root-level
// comments are returned; replies hang off their parent's Children slice.
//
// Rules:
//   - sibling groups at every depth are ordered by created_at ascending,
//     ties broken by id for determinism
//   - a comment whose parent id matches no comment in the set is kept
//     visible as a root rather than silently dropped
//   - corrupted data that parents a comment onto one of its own
//     descendants never crashes or loops; descent stops at the repeated id
//
// Build is pure: it performs no I/O and does not mutate its input.
func Build(flat []model.Comment) []model.Comment {
	ids := make(map[uuid.UUID]struct{}, len(flat))
	for _, c := range flat {
		ids[c.ID] = struct{}{}
	}

	byParent := make(map[uuid.UUID][]model.Comment)
	roots := make([]model.Comment, 0)
	for _, c := range flat {
		c.Children = nil
		switch {
		case c.ParentCommentID == nil:
			roots = append(roots, c)
		case c.ID == *c.ParentCommentID:
			// Self-parented row, keep it visible as a root.
			roots = append(roots, c)
		default:
			if _, ok := ids[*c.ParentCommentID]; !ok {
				// Orphan: fail open at the root level.
				roots = append(roots, c)
				continue
			}
			byParent[*c.ParentCommentID] = append(byParent[*c.ParentCommentID], c)
		}
	}

	sortSiblings(roots)

	path := make(map[uuid.UUID]struct{})
	for i := range roots {
		roots[i] = attach(roots[i], byParent, path)
	}
	return roots
}

// attach recursively populates node.Children from the parent partition.
// path holds the ids of the ancestors on the current descent so that a
// storage-level cycle terminates as a leaf instead of recursing forever.
func attach(node model.Comment, byParent map[uuid.UUID][]model.Comment, path map[uuid.UUID]struct{}) model.Comment {
	children := byParent[node.ID]
	if len(children) == 0 {
		return node
	}

	path[node.ID] = struct{}{}
	defer delete(path, node.ID)

	sortSiblings(children)
	built := make([]model.Comment, 0, len(children))
	for _, child := range children {
		if _, onPath := path[child.ID]; onPath {
			// Cycle: the child is one of its own ancestors. Treat as leaf.
			child.Children = nil
			built = append(built, child)
			continue
		}
		built = append(built, attach(child, byParent, path))
	}
	node.Children = built
	return node
}

func sortSiblings(siblings []model.Comment) {
	sort.SliceStable(siblings, func(i, j int) bool {
		if siblings[i].CreatedAt.Equal(siblings[j].CreatedAt) {
			return siblings[i].ID.String() < siblings[j].ID.String()
		}
		return siblings[i].CreatedAt.Before(siblings[j].CreatedAt)
	})
}
