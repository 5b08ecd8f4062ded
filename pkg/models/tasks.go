package models

import "strings"

// TaskType is the closed vocabulary of sync-set operations. Undo variants
// share a handler with their base task; Base strips the prefix so dispatch
// can switch exhaustively over base tasks.
type TaskType string

const (
	TaskThreadPost          TaskType = "thread-post"
	TaskThreadEdit          TaskType = "thread-edit"
	TaskThreadOnlyLocal     TaskType = "thread-only_local"
	TaskThreadHourglass     TaskType = "thread-hourglass"
	TaskThreadWhenRemind    TaskType = "thread-when-remind"
	TaskThreadDelete        TaskType = "thread-delete"
	TaskThreadState         TaskType = "thread-state"
	TaskThreadRestore       TaskType = "thread-restore"
	TaskThreadDeleteForever TaskType = "thread-delete_forever"
	TaskThreadPin           TaskType = "thread-pin"
	TaskThreadTag           TaskType = "thread-tag"

	TaskCommentPost   TaskType = "comment-post"
	TaskCommentEdit   TaskType = "comment-edit"
	TaskCommentDelete TaskType = "comment-delete"

	TaskCollectionFavorite TaskType = "collection-favorite"
	TaskCollectionReact    TaskType = "collection-react"

	TaskWorkspaceTag         TaskType = "workspace-tag"
	TaskWorkspaceStateConfig TaskType = "workspace-state_config"

	TaskMemberAvatar   TaskType = "member-avatar"
	TaskMemberNickname TaskType = "member-nickname"

	TaskDraftSet   TaskType = "draft-set"
	TaskDraftClear TaskType = "draft-clear"
)

// undoPrefix marks the undo variant of a task; the handler is shared.
const undoPrefix = "undo_"

// undoableTasks are the base tasks that accept an undo_ variant.
var undoableTasks = map[TaskType]bool{
	TaskThreadHourglass:      true,
	TaskThreadWhenRemind:     true,
	TaskThreadDelete:         true,
	TaskThreadState:          true,
	TaskThreadPin:            true,
	TaskCollectionFavorite:   true,
	TaskCollectionReact:      true,
	TaskWorkspaceStateConfig: true,
}

var baseTasks = map[TaskType]bool{
	TaskThreadPost:          true,
	TaskThreadEdit:          true,
	TaskThreadOnlyLocal:     true,
	TaskThreadHourglass:     true,
	TaskThreadWhenRemind:    true,
	TaskThreadDelete:        true,
	TaskThreadState:         true,
	TaskThreadRestore:       true,
	TaskThreadDeleteForever: true,
	TaskThreadPin:           true,
	TaskThreadTag:           true,

	TaskCommentPost:   true,
	TaskCommentEdit:   true,
	TaskCommentDelete: true,

	TaskCollectionFavorite: true,
	TaskCollectionReact:    true,

	TaskWorkspaceTag:         true,
	TaskWorkspaceStateConfig: true,

	TaskMemberAvatar:   true,
	TaskMemberNickname: true,

	TaskDraftSet:   true,
	TaskDraftClear: true,
}

// Base returns the task with any undo_ prefix stripped.
func (t TaskType) Base() TaskType {
	return TaskType(strings.TrimPrefix(string(t), undoPrefix))
}

// IsUndo reports whether this is the undo variant of a task.
func (t TaskType) IsUndo() bool {
	return strings.HasPrefix(string(t), undoPrefix)
}

// Valid reports whether the task is part of the vocabulary, undo variants
// included.
func (t TaskType) Valid() bool {
	base := t.Base()
	if !baseTasks[base] {
		return false
	}
	if t.IsUndo() && !undoableTasks[base] {
		return false
	}
	return true
}

// AtomPart names the entity payload an atom must carry for its task.
type AtomPart string

const (
	PartThread     AtomPart = "thread"
	PartComment    AtomPart = "comment"
	PartDraft      AtomPart = "draft"
	PartMember     AtomPart = "member"
	PartWorkspace  AtomPart = "workspace"
	PartCollection AtomPart = "collection"
)

// RequiredPart returns the payload the task operates on.
func (t TaskType) RequiredPart() AtomPart {
	s := string(t.Base())
	switch {
	case strings.HasPrefix(s, "thread-"):
		return PartThread
	case strings.HasPrefix(s, "comment-"):
		return PartComment
	case strings.HasPrefix(s, "draft-"):
		return PartDraft
	case strings.HasPrefix(s, "member-"):
		return PartMember
	case strings.HasPrefix(s, "workspace-"):
		return PartWorkspace
	case strings.HasPrefix(s, "collection-"):
		return PartCollection
	}
	return ""
}

// HasPart reports whether the atom carries the payload its task requires.
func (a *Atom) HasPart() bool {
	switch a.TaskType.RequiredPart() {
	case PartThread:
		return a.Thread != nil
	case PartComment:
		return a.Comment != nil
	case PartDraft:
		return a.Draft != nil
	case PartMember:
		return a.Member != nil
	case PartWorkspace:
		return a.Workspace != nil
	case PartCollection:
		return a.Collection != nil
	}
	return false
}
