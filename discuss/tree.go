package discuss

import "slices"

// BuildTree threads a flat comment list into a reply forest. The input is
// ordered as delivered by the backend (newest first); siblings keep that
// relative order. A comment whose parent id does not resolve within the same
// list is surfaced as a top-level comment rather than dropped.
//
// The input nodes are linked in place: any previous Replies values are
// discarded before threading.
func BuildTree(flat []*Comment) []*Comment {
	byID := make(map[string]*Comment, len(flat))

	for _, comment := range flat {
		comment.Replies = nil
		byID[comment.ID] = comment
	}

	roots := make([]*Comment, 0, len(flat))

	for _, comment := range flat {
		if comment.IsTopLevel() {
			roots = append(roots, comment)

			continue
		}

		parent, found := byID[*comment.ParentID]
		if !found {
			roots = append(roots, comment)

			continue
		}

		parent.Replies = append(parent.Replies, comment)
	}

	return roots
}

// Find locates a comment by id anywhere in the forest, depth first.
func Find(forest []*Comment, id string) *Comment {
	for _, comment := range forest {
		if comment.ID == id {
			return comment
		}

		if found := Find(comment.Replies, id); found != nil {
			return found
		}
	}

	return nil
}

// InsertReply places a freshly created comment into the forest. A nil or
// empty parent id prepends it as a new top-level comment; otherwise it is
// prepended to the parent's replies, however deep the parent sits. An
// unresolvable parent follows the same orphan policy as BuildTree.
func InsertReply(forest []*Comment, comment *Comment, parentID *string) []*Comment {
	comment.Replies = nil

	if parentID == nil || *parentID == "" {
		return append([]*Comment{comment}, forest...)
	}

	parent := Find(forest, *parentID)
	if parent == nil {
		return append([]*Comment{comment}, forest...)
	}

	parent.Replies = append([]*Comment{comment}, parent.Replies...)

	return forest
}

// RemoveComment deletes the comment with the given id together with its
// entire subtree, mirroring the backend's cascading delete. The second
// return value reports whether anything was removed.
func RemoveComment(forest []*Comment, id string) ([]*Comment, bool) {
	for i, comment := range forest {
		if comment.ID == id {
			return slices.Delete(forest, i, i+1), true
		}
	}

	for _, comment := range forest {
		replies, removed := RemoveComment(comment.Replies, id)
		if removed {
			comment.Replies = replies

			return forest, true
		}
	}

	return forest, false
}

// ToggleLike flips membership of userID in the likes set of the comment with
// the given id. Applying it twice restores the original set. It reports
// whether the comment was found.
func ToggleLike(forest []*Comment, id, userID string) bool {
	comment := Find(forest, id)
	if comment == nil {
		return false
	}

	if idx := slices.Index(comment.Likes, userID); idx >= 0 {
		comment.Likes = slices.Delete(comment.Likes, idx, idx+1)
	} else {
		comment.Likes = append(comment.Likes, userID)
	}

	return true
}

// Flatten is the inverse of BuildTree: a pre-order traversal of the forest
// with the derived Replies field stripped. Each returned node is a shallow
// copy, so flattening never mutates the tree it walks.
func Flatten(forest []*Comment) []*Comment {
	flat := make([]*Comment, 0, len(forest))

	var walk func(comments []*Comment)

	walk = func(comments []*Comment) {
		for _, comment := range comments {
			clone := *comment
			clone.Replies = nil
			flat = append(flat, &clone)

			walk(comment.Replies)
		}
	}

	walk(forest)

	return flat
}

// Count returns the number of comments in the forest, replies included.
func Count(forest []*Comment) int {
	total := 0

	for _, comment := range forest {
		total += 1 + Count(comment.Replies)
	}

	return total
}
