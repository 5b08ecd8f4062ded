// Package sync implements the write and read halves of the synchronization
// protocol: batched mutation atoms with per-field staleness guards, and
// batched read queries assembled into download parcels.
//
// A sync-set batch runs its atoms in order against a per-request cache
// ([batch]); every atom reports its own result code, and benign conflicts
// ("already applied", "a newer operation won") are codes, not errors. Reads
// and updates go through the cache so that atoms within a batch observe each
// other, and all accumulated partial updates are flushed once at the end.
// Creates insert immediately and their allocated ids are substituted into
// the client-generated ids carried by later atoms of the same batch.
package sync

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/flashnote/flashnote/pkg/models"
	"github.com/flashnote/flashnote/pkg/secrets"
	"github.com/flashnote/flashnote/pkg/store"
)

// Batch size limits per operate type.
const (
	maxGeneralAtoms = 10
	maxQueryAtoms   = 5
)

// OperateType selects how a sync-set batch is post-processed.
type OperateType string

const (
	// OperateGeneral is the ordinary batched upload.
	OperateGeneral OperateType = "general_sync"
	// OperateSingle carries exactly one atom and triggers the post hook
	// eagerly, for flows that need the new thread right away.
	OperateSingle OperateType = "single_sync"
)

// Syncer executes sync-set and sync-get requests against a Store.
type Syncer struct {
	store store.Store
	codec *secrets.Codec
	log   zerolog.Logger

	// AfterThreadPost, when set, runs once for each thread created by a
	// batch, after the batch has been flushed.
	AfterThreadPost func(id models.ContentID)
}

// New returns a Syncer backed by the given store and payload codec.
func New(st store.Store, codec *secrets.Codec, log zerolog.Logger) *Syncer {
	return &Syncer{store: st, codec: codec, log: log}
}

// ValidateAtoms checks the batch shape: the operate type, the batch size and
// that every atom carries the payload its task requires. A non-nil error
// means the whole request is malformed (E4000), before any atom runs.
func ValidateAtoms(operateType OperateType, atoms []models.Atom) error {
	max := maxGeneralAtoms
	switch operateType {
	case OperateGeneral:
	case OperateSingle:
		max = 1
	default:
		return fmt.Errorf("operateType must be general_sync or single_sync")
	}
	if len(atoms) < 1 || len(atoms) > max {
		return fmt.Errorf("atoms must carry between 1 and %d items", max)
	}
	for i := range atoms {
		a := &atoms[i]
		if !a.TaskType.Valid() {
			return fmt.Errorf("atom %d: unknown taskType %q", i, a.TaskType)
		}
		if !a.HasPart() {
			return fmt.Errorf("atom %d: %s payload is required for %s",
				i, a.TaskType.RequiredPart(), a.TaskType)
		}
	}
	return nil
}

// SyncSet runs a batch of mutation atoms for one user and returns a result
// per atom, in input order. The batch's accumulated updates are flushed
// before returning; a flush failure fails the whole call.
func (sy *Syncer) SyncSet(ctx context.Context, user *models.User, operateType OperateType, atoms []models.Atom) ([]models.AtomResult, error) {
	if err := ValidateAtoms(operateType, atoms); err != nil {
		return nil, err
	}

	b, err := sy.newBatch(ctx, user)
	if err != nil {
		return nil, err
	}

	results := make([]models.AtomResult, 0, len(atoms))
	for i := range atoms {
		a := &atoms[i]
		res := sy.runAtom(ctx, b, a)
		if res.FirstID != "" && res.NewID != "" {
			remapAtoms(atoms[i+1:], a.TaskType, res.FirstID, res.NewID)
		}
		results = append(results, res)
	}

	if err := b.flush(ctx); err != nil {
		return nil, err
	}

	sy.afterSet(operateType, atoms, results)
	return results, nil
}

func (sy *Syncer) runAtom(ctx context.Context, b *batch, a *models.Atom) models.AtomResult {
	opt := operationOpt{taskID: a.TaskID, operateStamp: a.OperateStamp}

	var res models.AtomResult
	var err error
	switch a.TaskType.Base() {
	case models.TaskThreadPost:
		res, err = b.postThread(ctx, a.Thread, opt)
	case models.TaskThreadEdit:
		res, err = b.threadEdit(ctx, a.Thread, opt)
	case models.TaskThreadOnlyLocal:
		res, err = b.threadOnlyLocal(ctx, a.Thread, opt)
	case models.TaskThreadHourglass:
		res, err = b.threadHourglass(ctx, a.Thread, opt)
	case models.TaskThreadWhenRemind:
		res, err = b.threadWhenRemind(ctx, a.Thread, opt)
	case models.TaskThreadDelete:
		newState := models.OStateRemoved
		if a.TaskType.IsUndo() {
			newState = models.OStateOK
		}
		res, err = b.contentOState(ctx, contentTarget{thread: a.Thread}, opt, newState)
	case models.TaskThreadState:
		res, err = b.threadState(ctx, a.Thread, opt)
	case models.TaskThreadRestore:
		res, err = b.contentOState(ctx, contentTarget{thread: a.Thread}, opt, models.OStateOK)
	case models.TaskThreadDeleteForever:
		res, err = b.contentOState(ctx, contentTarget{thread: a.Thread}, opt, models.OStateDeleted)
	case models.TaskThreadPin:
		res, err = b.threadPin(ctx, a.Thread, opt)
	case models.TaskThreadTag:
		res, err = b.threadTag(ctx, a.Thread, opt)
	case models.TaskCommentPost:
		res, err = b.postComment(ctx, a.Comment, opt)
	case models.TaskCommentEdit:
		res, err = b.commentEdit(ctx, a.Comment, opt)
	case models.TaskCommentDelete:
		res, err = b.commentDelete(ctx, a.Comment, opt)
	case models.TaskCollectionFavorite:
		res, err = b.collectionFavorite(ctx, a.Collection, opt)
	case models.TaskCollectionReact:
		res, err = b.collectionReact(ctx, a.Collection, opt)
	case models.TaskWorkspaceTag:
		res, err = b.workspaceTag(ctx, a.Workspace, opt)
	case models.TaskWorkspaceStateConfig:
		res, err = b.workspaceStateConfig(ctx, a.Workspace, opt)
	case models.TaskMemberAvatar:
		res, err = b.memberAvatar(ctx, a.Member, opt)
	case models.TaskMemberNickname:
		res, err = b.memberNickname(ctx, a.Member, opt)
	case models.TaskDraftSet:
		res, err = b.draftSet(ctx, a.Draft, opt)
	case models.TaskDraftClear:
		res, err = b.draftClear(ctx, a.Draft, opt)
	default:
		return errResult(models.CodeServerError, a.TaskID, "the taskType cannot match")
	}

	if err != nil {
		sy.log.Error().Err(err).
			Str("taskType", string(a.TaskType)).
			Str("taskId", a.TaskID).
			Msg("atom failed")
		return errResult(models.CodeServerError, a.TaskID, err.Error())
	}
	return res
}

// afterSet fires the thread-post hook for threads the batch created. Under
// single_sync the hook runs for the lone atom only.
func (sy *Syncer) afterSet(operateType OperateType, atoms []models.Atom, results []models.AtomResult) {
	if sy.AfterThreadPost == nil {
		return
	}
	for i := range atoms {
		if atoms[i].TaskType != models.TaskThreadPost {
			continue
		}
		res := results[i]
		if res.NewID == "" {
			continue
		}
		id, err := models.ParseContentID(res.NewID)
		if err != nil {
			continue
		}
		go sy.AfterThreadPost(id)
		if operateType == OperateSingle {
			return
		}
	}
}

// remapAtoms substitutes a freshly allocated server id for the client's
// first_id in every later atom that references it. Which references are
// rewritten depends on what kind of row was created.
func remapAtoms(rest []models.Atom, created models.TaskType, firstID, newID string) {
	isContent := created == models.TaskThreadPost || created == models.TaskCommentPost
	isDraft := created.Base() == models.TaskDraftSet
	isCollection := created.RequiredPart() == models.PartCollection

	sub := func(s *string) {
		if *s == firstID {
			*s = newID
		}
	}
	for i := range rest {
		a := &rest[i]
		if t := a.Thread; t != nil && isContent {
			sub(&t.ID)
		}
		if c := a.Comment; c != nil && isContent {
			sub(&c.ID)
			sub(&c.ParentThread)
			sub(&c.ParentComment)
			sub(&c.ReplyToComment)
		}
		if d := a.Draft; d != nil {
			if isDraft {
				sub(&d.ID)
			}
			if isContent {
				sub(&d.ThreadEdited)
				sub(&d.CommentEdited)
				sub(&d.ParentThread)
				sub(&d.ParentComment)
				sub(&d.ReplyToComment)
			}
		}
		if c := a.Collection; c != nil {
			if isCollection {
				sub(&c.ID)
			}
			if isContent {
				sub(&c.ContentID)
			}
		}
	}
}

// operationOpt carries the per-atom identifiers every handler needs.
type operationOpt struct {
	taskID       string
	operateStamp int64
}

func okResult(taskID string) models.AtomResult {
	return models.AtomResult{Code: models.CodeOK, TaskID: taskID}
}

func duplicateResult(taskID string) models.AtomResult {
	return models.AtomResult{Code: models.CodeDuplicate, TaskID: taskID}
}

func staleResult(taskID string) models.AtomResult {
	return models.AtomResult{Code: models.CodeStale, TaskID: taskID}
}

func errResult(code models.Code, taskID, errMsg string) models.AtomResult {
	return models.AtomResult{Code: code, TaskID: taskID, ErrMsg: errMsg}
}

func createdResult(taskID, firstID, newID string) models.AtomResult {
	return models.AtomResult{Code: models.CodeOK, TaskID: taskID, FirstID: firstID, NewID: newID}
}
