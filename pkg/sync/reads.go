package sync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/flashnote/flashnote/pkg/models"
	"github.com/flashnote/flashnote/pkg/store"
)

// Pagination limits for read queries.
const (
	defaultListLimit    = 16
	maxListLimit        = 32
	defaultCommentLimit = 9
	hottestFetchLimit   = 10
	defaultParentBatch  = 2
	maxParentBatch      = 4
	maxCheckIDs         = 32
)

const (
	hourMillis  = int64(time.Hour / time.Millisecond)
	dayMillis   = 24 * hourMillis
	trashWindow = 30 * dayMillis
)

// reader is the per-request working set of a sync-get call: the caller's
// workspace membership plus memoized author lookups, shared across the atoms
// of one batch.
type reader struct {
	sy       *Syncer
	user     *models.User
	spaceIDs []models.WorkspaceID
	authors  map[authorKey]*models.DownloadAuthor
}

type authorKey struct {
	userID  models.UserID
	spaceID models.WorkspaceID
}

// ValidateQueryAtoms checks the batch shape of a sync-get request. A non-nil
// error means the whole request is malformed, before any query runs.
func ValidateQueryAtoms(atoms []models.QueryAtom) error {
	if len(atoms) < 1 || len(atoms) > maxQueryAtoms {
		return fmt.Errorf("atoms must carry between 1 and %d items", maxQueryAtoms)
	}
	for i := range atoms {
		switch atoms[i].TaskType {
		case models.QueryThreadList, models.QueryContentList,
			models.QueryThreadData, models.QueryCommentList,
			models.QueryCheckContents, models.QueryDraftData:
		default:
			return fmt.Errorf("atom %d: unknown taskType %q", i, atoms[i].TaskType)
		}
	}
	return nil
}

// SyncGet runs a batch of read queries for one user and returns one result
// per query, in input order. Query failures are per-result codes; only a
// malformed batch fails the whole call.
func (sy *Syncer) SyncGet(ctx context.Context, user *models.User, atoms []models.QueryAtom) ([]models.QueryResult, error) {
	if err := ValidateQueryAtoms(atoms); err != nil {
		return nil, err
	}

	spaceIDs, err := sy.store.ListMemberSpaceIDs(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("loading workspace memberships: %w", err)
	}
	r := &reader{
		sy:       sy,
		user:     user,
		spaceIDs: spaceIDs,
		authors:  map[authorKey]*models.DownloadAuthor{},
	}

	results := make([]models.QueryResult, 0, len(atoms))
	for i := range atoms {
		results = append(results, sy.runQuery(ctx, r, &atoms[i]))
	}
	return results, nil
}

func (sy *Syncer) runQuery(ctx context.Context, r *reader, a *models.QueryAtom) models.QueryResult {
	var res models.QueryResult
	var err error

	switch a.TaskType {
	case models.QueryThreadList:
		res, err = r.threadList(ctx, a)
	case models.QueryContentList:
		res, err = r.contentList(ctx, a)
	case models.QueryThreadData:
		if a.ID == "" {
			return queryErr(models.CodeBadRequest, a.TaskID, "id is required")
		}
		res, err = r.parcelsByIDs(ctx, a.TaskID, []string{a.ID})
	case models.QueryCheckContents:
		if len(a.IDs) < 1 || len(a.IDs) > maxCheckIDs {
			return queryErr(models.CodeBadRequest, a.TaskID, "ids must carry between 1 and 32 items")
		}
		res, err = r.parcelsByIDs(ctx, a.TaskID, a.IDs)
	case models.QueryCommentList:
		res, err = r.commentList(ctx, a)
	case models.QueryDraftData:
		res, err = r.draftData(ctx, a)
	}
	if err != nil {
		sy.log.Error().Err(err).
			Str("taskType", string(a.TaskType)).
			Str("taskId", a.TaskID).
			Msg("sync-get query failed")
		return queryErr(models.CodeServerError, a.TaskID, "query failed")
	}
	return res
}

func (r *reader) inSpace(id models.WorkspaceID) bool {
	for _, v := range r.spaceIDs {
		if v == id {
			return true
		}
	}
	return false
}

// checkSpace parses the atom's workspace id and verifies the caller belongs
// to it.
func (r *reader) checkSpace(taskID, spaceID string) (models.WorkspaceID, models.QueryResult, bool) {
	id, err := models.ParseWorkspaceID(spaceID)
	if err != nil || !r.inSpace(id) {
		return models.WorkspaceID{}, queryErr(models.CodeForbidden, taskID, "you are not in the workspace"), false
	}
	return id, models.QueryResult{}, true
}

func (r *reader) contentList(ctx context.Context, a *models.QueryAtom) (models.QueryResult, error) {
	spaceID, res, ok := r.checkSpace(a.TaskID, a.SpaceID)
	if !ok {
		return res, nil
	}

	key := store.FieldEditedStamp
	if a.LoadType == models.LoadCreateFirst {
		key = store.FieldCreatedStamp
	}
	okState := models.OStateOK
	filter := store.ContentFilter{
		SpaceID:  spaceID,
		OState:   &okState,
		SortBy:   key,
		SortWay:  models.SortDesc,
		MaxStamp: a.LastItemStamp,
		Limit:    clampLimit(a.Limit),
	}
	contents, err := r.sy.store.ListContents(ctx, filter)
	if err != nil {
		return models.QueryResult{}, err
	}
	return r.contentParcels(ctx, a.TaskID, contents)
}

func (r *reader) threadList(ctx context.Context, a *models.QueryAtom) (models.QueryResult, error) {
	if a.ViewType == models.ViewFavorite {
		return r.threadListFromCollection(ctx, a)
	}
	return r.threadListFromContent(ctx, a)
}

// threadListFromContent serves the content-driven thread views: index, pins,
// trash, calendar windows, kanban states and tag lookups.
func (r *reader) threadListFromContent(ctx context.Context, a *models.QueryAtom) (models.QueryResult, error) {
	if a.ViewType == models.ViewState && a.StateID == "" {
		return queryErr(models.CodeBadRequest, a.TaskID, "stateId is required"), nil
	}
	if a.ViewType == models.ViewTag && a.TagID == "" {
		return queryErr(models.CodeBadRequest, a.TaskID, "tagId is required"), nil
	}
	spaceID, res, ok := r.checkSpace(a.TaskID, a.SpaceID)
	if !ok {
		return res, nil
	}

	oState := models.OStateOK
	if a.ViewType == models.ViewTrash {
		oState = models.OStateRemoved
	}
	filter := store.ContentFilter{
		SpaceID:  spaceID,
		InfoType: models.InfoThread,
		OState:   &oState,
		Limit:    clampLimit(a.Limit),
		Skip:     a.Skip,
	}

	sortWay := a.Sort
	if sortWay == "" {
		sortWay = models.SortDesc
	}
	key := store.FieldCreatedStamp
	if oState != models.OStateOK {
		key = store.FieldUpdatedStamp
	}

	now := time.Now().UnixMilli()
	var minStamp, maxStamp *int64
	switch a.ViewType {
	case models.ViewCalendar:
		// yesterday through a bit past tomorrow
		key = store.FieldCalendarStamp
		minStamp = stampPtr(now - dayMillis)
		maxStamp = stampPtr(now + dayMillis + 2*hourMillis + 1)
	case models.ViewTodayFuture:
		key = store.FieldCalendarStamp
		sortWay = models.SortAsc
		minStamp = stampPtr(now - dayMillis)
	case models.ViewPast:
		key = store.FieldCalendarStamp
		maxStamp = stampPtr(now)
	case models.ViewPinned:
		key = store.FieldPinStamp
		filter.Pinned = boolPtr(true)
	case models.ViewTrash:
		// only what is still restorable
		key = store.FieldRemovedStamp
		minStamp = stampPtr(now - trashWindow - 1)
	case models.ViewState:
		key = store.FieldStateStamp
		filter.StateID = &a.StateID
	case models.ViewTag:
		filter.TagID = a.TagID
	default:
		filter.Pinned = boolPtr(false)
	}

	if len(a.SpecificIDs) > 0 {
		filter.IDs = parseContentIDs(a.SpecificIDs)
	} else if len(a.ExcludedIDs) > 0 {
		filter.ExcludedIDs = parseContentIDs(a.ExcludedIDs)
	}

	if a.LastItemStamp != nil {
		if sortWay == models.SortDesc {
			maxStamp = upperBound(maxStamp, *a.LastItemStamp)
		} else {
			minStamp = lowerBound(minStamp, *a.LastItemStamp)
		}
	}
	filter.SortBy = key
	filter.SortWay = sortWay
	filter.MinStamp = minStamp
	filter.MaxStamp = maxStamp

	contents, err := r.sy.store.ListContents(ctx, filter)
	if err != nil {
		return models.QueryResult{}, err
	}
	return r.contentParcels(ctx, a.TaskID, contents)
}

// threadListFromCollection serves the favorites view: page over the caller's
// collections by sortStamp, then load the threads they point at.
func (r *reader) threadListFromCollection(ctx context.Context, a *models.QueryAtom) (models.QueryResult, error) {
	spaceID, res, ok := r.checkSpace(a.TaskID, a.SpaceID)
	if !ok {
		return res, nil
	}

	collectType := a.CollectType
	if collectType == "" {
		collectType = models.CollectionFavorite
	}
	sortWay := a.Sort
	if sortWay == "" {
		sortWay = models.SortDesc
	}
	okCol := models.CollectionOK
	filter := store.CollectionFilter{
		UserID:   r.user.ID,
		SpaceID:  spaceID,
		InfoType: collectType,
		ForType:  models.InfoThread,
		OState:   &okCol,
		SortWay:  sortWay,
		Limit:    clampLimit(a.Limit),
	}
	if collectType == models.CollectionExpress && a.EmojiSpecific != "" {
		filter.Emoji = a.EmojiSpecific
	}
	if a.LastItemStamp != nil {
		if sortWay == models.SortDesc {
			filter.MaxStamp = a.LastItemStamp
		} else {
			filter.MinStamp = a.LastItemStamp
		}
	}

	collections, err := r.sy.store.ListCollections(ctx, filter)
	if err != nil {
		return models.QueryResult{}, err
	}
	if len(collections) == 0 {
		return okParcels(a.TaskID, nil), nil
	}

	contentIDs := make([]models.ContentID, 0, len(collections))
	for _, c := range collections {
		contentIDs = append(contentIDs, c.ContentID)
	}
	okState := models.OStateOK
	contents, err := r.sy.store.ListContents(ctx, store.ContentFilter{
		IDs:    contentIDs,
		OState: &okState,
	})
	if err != nil {
		return models.QueryResult{}, err
	}
	if len(contents) == 0 {
		return okParcels(a.TaskID, nil), nil
	}
	contents = sortByIDs(contents, contentIDs)

	return r.packParcels(ctx, a.TaskID, contents, collections)
}

func (r *reader) commentList(ctx context.Context, a *models.QueryAtom) (models.QueryResult, error) {
	switch a.LoadType {
	case models.LoadUnderThread:
		return r.commentsUnderThread(ctx, a)
	case models.LoadFindChildren:
		return r.findChildrenComments(ctx, a)
	case models.LoadFindParent:
		return r.findParentComments(ctx, a)
	case models.LoadFindHottest:
		return r.findHottestComments(ctx, a)
	}
	return queryErr(models.CodeBadRequest, a.TaskID, "loadType cannot match"), nil
}

// commentFilter is the shared base of the comment queries: OK comments paged
// by createdStamp.
func commentFilter(a *models.QueryAtom) store.ContentFilter {
	okState := models.OStateOK
	sortWay := a.Sort
	if sortWay == "" {
		sortWay = models.SortAsc
	}
	filter := store.ContentFilter{
		InfoType: models.InfoComment,
		OState:   &okState,
		SortBy:   store.FieldCreatedStamp,
		SortWay:  sortWay,
		Limit:    clampCommentLimit(a.Limit),
	}
	if a.LastItemStamp != nil {
		if sortWay == models.SortDesc {
			filter.MaxStamp = a.LastItemStamp
		} else {
			filter.MinStamp = a.LastItemStamp
		}
	}
	return filter
}

func (r *reader) commentsUnderThread(ctx context.Context, a *models.QueryAtom) (models.QueryResult, error) {
	threadID, err := models.ParseContentID(a.TargetThread)
	if err != nil {
		return queryErr(models.CodeNotFound, a.TaskID, "targetThread is invalid"), nil
	}
	filter := commentFilter(a)
	filter.ParentThread = &threadID
	filter.NoParentComment = true
	filter.NoReplyToComment = true

	contents, err := r.sy.store.ListContents(ctx, filter)
	if err != nil {
		return models.QueryResult{}, err
	}
	return r.contentParcels(ctx, a.TaskID, contents)
}

func (r *reader) findChildrenComments(ctx context.Context, a *models.QueryAtom) (models.QueryResult, error) {
	commentID, err := models.ParseContentID(a.CommentID)
	if err != nil {
		return queryErr(models.CodeNotFound, a.TaskID, "commentId is invalid"), nil
	}
	filter := commentFilter(a)
	filter.ReplyToComment = &commentID

	contents, err := r.sy.store.ListContents(ctx, filter)
	if err != nil {
		return models.QueryResult{}, err
	}
	return r.contentParcels(ctx, a.TaskID, contents)
}

// findParentComments walks up the reply chain from a known comment,
// prepending one generation per batch until the chain ends or the batch
// budget runs out.
func (r *reader) findParentComments(ctx context.Context, a *models.QueryAtom) (models.QueryResult, error) {
	parentID, err := models.ParseContentID(a.ParentWeWant)
	if err != nil {
		return queryErr(models.CodeNotFound, a.TaskID, "parentWeWant is invalid"), nil
	}
	batchNum := a.BatchNum
	if batchNum <= 0 {
		batchNum = defaultParentBatch
	} else if batchNum > maxParentBatch {
		batchNum = maxParentBatch
	}

	ids := []models.ContentID{parentID}
	if a.Grandparent != "" && a.Grandparent != a.ParentWeWant {
		if gp, err := models.ParseContentID(a.Grandparent); err == nil {
			ids = append(ids, gp)
		}
	}

	seen := map[models.ContentID]bool{}
	var list []*models.Content
	for i := 0; i < batchNum; i++ {
		part, err := r.sy.store.ListContents(ctx, store.ContentFilter{IDs: ids})
		if err != nil {
			return models.QueryResult{}, err
		}
		if len(part) == 0 {
			break
		}
		sort.Slice(part, func(i, j int) bool {
			return part[i].CreatedStamp < part[j].CreatedStamp
		})
		list = append(part, list...)

		first := list[0]
		if first.ReplyToComment == nil {
			break
		}
		for _, id := range ids {
			seen[id] = true
		}
		ids = ids[:0]
		if !seen[*first.ReplyToComment] {
			ids = append(ids, *first.ReplyToComment)
		}
		if pc := first.ParentComment; pc != nil && *pc != *first.ReplyToComment && !seen[*pc] {
			ids = append(ids, *pc)
		}
		if len(ids) == 0 {
			break
		}
	}

	return r.contentParcels(ctx, a.TaskID, list)
}

// findHottestComments ranks a comment's replies by engagement: replies count
// five, reactions three.
func (r *reader) findHottestComments(ctx context.Context, a *models.QueryAtom) (models.QueryResult, error) {
	commentID, err := models.ParseContentID(a.CommentID)
	if err != nil {
		return queryErr(models.CodeNotFound, a.TaskID, "commentId is invalid"), nil
	}
	okState := models.OStateOK
	contents, err := r.sy.store.ListContents(ctx, store.ContentFilter{
		InfoType:       models.InfoComment,
		OState:         &okState,
		ReplyToComment: &commentID,
		SortBy:         store.FieldCreatedStamp,
		SortWay:        models.SortAsc,
		Limit:          hottestFetchLimit,
	})
	if err != nil {
		return models.QueryResult{}, err
	}
	sort.SliceStable(contents, func(i, j int) bool {
		return commentScore(contents[i]) > commentScore(contents[j])
	})
	return r.contentParcels(ctx, a.TaskID, contents)
}

func commentScore(c *models.Content) int {
	return 5*c.LevelOneAndTwo + 3*c.EmojiData.Total
}

// parcelsByIDs fetches specific contents and reports per id whether the row
// exists and whether the caller may still see it.
func (r *reader) parcelsByIDs(ctx context.Context, taskID string, ids []string) (models.QueryResult, error) {
	var contentIDs []models.ContentID
	for _, v := range ids {
		if id, err := models.ParseContentID(v); err == nil {
			contentIDs = append(contentIDs, id)
		}
	}
	var contents []*models.Content
	if len(contentIDs) > 0 {
		var err error
		contents, err = r.sy.store.ListContents(ctx, store.ContentFilter{IDs: contentIDs})
		if err != nil {
			return models.QueryResult{}, err
		}
	}

	byID := map[string]*models.Content{}
	for _, c := range contents {
		byID[c.ID.String()] = c
	}

	parcels := make([]models.DownloadParcel, 0, len(ids))
	var visible []*models.Content
	for _, v := range ids {
		p := models.DownloadParcel{ID: v, Status: models.ParcelNotFound, ParcelType: "content"}
		if c, found := byID[v]; found {
			if r.inSpace(c.SpaceID) {
				p.Status = models.ParcelHasData
				visible = append(visible, c)
			} else {
				p.Status = models.ParcelNoAuth
			}
		}
		parcels = append(parcels, p)
	}
	if len(visible) == 0 {
		return okParcels(taskID, parcels), nil
	}

	myCollections, err := r.myCollectionsFor(ctx, visible)
	if err != nil {
		return models.QueryResult{}, err
	}
	downloads, res, ok, err := r.packContents(ctx, taskID, visible, myCollections)
	if err != nil || !ok {
		return res, err
	}
	byDownload := map[string]*models.DownloadContent{}
	for i := range downloads {
		byDownload[downloads[i].ID] = &downloads[i]
	}
	for i := range parcels {
		if parcels[i].Status != models.ParcelHasData {
			continue
		}
		parcels[i].Content = byDownload[parcels[i].ID]
	}
	return okParcels(taskID, parcels), nil
}

// contentParcels assembles list results: my collections, authors, decrypted
// payloads, one has_data parcel per content.
func (r *reader) contentParcels(ctx context.Context, taskID string, contents []*models.Content) (models.QueryResult, error) {
	if len(contents) == 0 {
		return okParcels(taskID, nil), nil
	}
	myCollections, err := r.myCollectionsFor(ctx, contents)
	if err != nil {
		return models.QueryResult{}, err
	}
	return r.packParcels(ctx, taskID, contents, myCollections)
}

func (r *reader) packParcels(ctx context.Context, taskID string, contents []*models.Content, myCollections []*models.Collection) (models.QueryResult, error) {
	downloads, res, ok, err := r.packContents(ctx, taskID, contents, myCollections)
	if err != nil || !ok {
		return res, err
	}
	parcels := make([]models.DownloadParcel, 0, len(downloads))
	for i := range downloads {
		parcels = append(parcels, models.DownloadParcel{
			ID:         downloads[i].ID,
			Status:     models.ParcelHasData,
			ParcelType: "content",
			Content:    &downloads[i],
		})
	}
	return okParcels(taskID, parcels), nil
}

func (r *reader) myCollectionsFor(ctx context.Context, contents []*models.Content) ([]*models.Collection, error) {
	ids := make([]models.ContentID, 0, len(contents))
	for _, c := range contents {
		ids = append(ids, c.ID)
	}
	return r.sy.store.ListCollections(ctx, store.CollectionFilter{
		UserID:     r.user.ID,
		ContentIDs: ids,
	})
}

func (r *reader) packContents(ctx context.Context, taskID string, contents []*models.Content, myCollections []*models.Collection) ([]models.DownloadContent, models.QueryResult, bool, error) {
	list := make([]models.DownloadContent, 0, len(contents))
	for _, c := range contents {
		author, err := r.authorFor(ctx, c)
		if err != nil {
			return nil, models.QueryResult{}, false, err
		}

		title, err := r.sy.codec.OpenString(c.EncTitle)
		if err != nil {
			return nil, queryErr(models.CodeBadDecrypt, taskID, "cannot decrypt content"), false, nil
		}
		desc, err := r.sy.codec.OpenJSON(c.EncDesc)
		if err != nil {
			return nil, queryErr(models.CodeBadDecrypt, taskID, "cannot decrypt content"), false, nil
		}
		images, err := r.sy.codec.OpenJSON(c.EncImages)
		if err != nil {
			return nil, queryErr(models.CodeBadDecrypt, taskID, "cannot decrypt content"), false, nil
		}
		files, err := r.sy.codec.OpenJSON(c.EncFiles)
		if err != nil {
			return nil, queryErr(models.CodeBadDecrypt, taskID, "cannot decrypt content"), false, nil
		}

		d := models.DownloadContent{
			ID:      c.ID.String(),
			FirstID: c.FirstID,

			IsMine: c.UserID == r.user.ID,
			Author: *author,

			SpaceID:   c.SpaceID.String(),
			SpaceType: c.SpaceType,

			InfoType:     c.InfoType,
			OState:       c.OState,
			VisScope:     c.VisScope,
			StorageState: c.StorageState,

			Title:  title,
			Desc:   desc,
			Images: images,
			Files:  files,

			CalendarStamp: c.CalendarStamp,
			RemindStamp:   c.RemindStamp,
			WhenStamp:     c.WhenStamp,
			RemindMe:      c.RemindMe,

			EmojiData: c.EmojiData,

			ParentThread:   contentIDString(c.ParentThread),
			ParentComment:  contentIDString(c.ParentComment),
			ReplyToComment: contentIDString(c.ReplyToComment),

			PinStamp:     c.PinStamp,
			CreatedStamp: c.CreatedStamp,
			EditedStamp:  c.EditedStamp,
			RemovedStamp: c.RemovedStamp,

			TagIDs:      []string(c.TagIDs),
			TagSearched: []string(c.TagSearched),
			StateID:     c.StateID,
			StateStamp:  c.StateStamp,

			Config: c.Config,

			LevelOne:       c.LevelOne,
			LevelOneAndTwo: c.LevelOneAndTwo,

			MyFavorite: findMyCollection(c.ID, myCollections, models.CollectionFavorite),
			MyEmoji:    findMyCollection(c.ID, myCollections, models.CollectionExpress),
		}
		list = append(list, d)
	}
	return list, models.QueryResult{}, true, nil
}

// authorFor resolves who wrote a content: the author's member identity in
// the content's workspace when one exists, otherwise just the account id.
func (r *reader) authorFor(ctx context.Context, c *models.Content) (*models.DownloadAuthor, error) {
	key := authorKey{userID: c.UserID, spaceID: c.SpaceID}
	if a, ok := r.authors[key]; ok {
		return a, nil
	}

	var member *models.Member
	if c.MemberID != nil {
		m, err := r.sy.store.GetMember(ctx, *c.MemberID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		member = m
	}
	if member == nil {
		m, err := r.sy.store.FindMember(ctx, c.UserID, c.SpaceID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		member = m
	}

	a := &models.DownloadAuthor{
		UserID:  c.UserID.String(),
		SpaceID: c.SpaceID.String(),
	}
	if member != nil {
		oState := member.OState
		a.MemberID = member.ID.String()
		a.MemberName = member.Name
		a.MemberAvatar = member.Avatar
		a.MemberOState = &oState
	}
	r.authors[key] = a
	return a, nil
}

func findMyCollection(contentID models.ContentID, collections []*models.Collection, infoType models.CollectionType) *models.DownloadCollection {
	for _, c := range collections {
		if c.ContentID != contentID || c.InfoType != infoType {
			continue
		}
		d := models.DownloadCollection{
			ID:           c.ID.String(),
			FirstID:      c.FirstID,
			UserID:       c.UserID.String(),
			OState:       c.OState,
			Emoji:        c.Emoji,
			OperateStamp: c.OperateStamp,
			SortStamp:    c.SortStamp,
		}
		if c.MemberID != nil {
			d.MemberID = c.MemberID.String()
		}
		return &d
	}
	return nil
}

func (r *reader) draftData(ctx context.Context, a *models.QueryAtom) (models.QueryResult, error) {
	switch {
	case a.DraftID != "":
		return r.draftByID(ctx, a.TaskID, a.DraftID)
	case a.ThreadEdited != "":
		threadID, err := models.ParseContentID(a.ThreadEdited)
		if err != nil {
			return queryErr(models.CodeNotFound, a.TaskID, "draft not found"), nil
		}
		return r.findOneDraft(ctx, a.TaskID, store.DraftFilter{
			UserID:       r.user.ID,
			ThreadEdited: &threadID,
		})
	case a.CommentEdited != "":
		commentID, err := models.ParseContentID(a.CommentEdited)
		if err != nil {
			return queryErr(models.CodeNotFound, a.TaskID, "draft not found"), nil
		}
		return r.findOneDraft(ctx, a.TaskID, store.DraftFilter{
			UserID:        r.user.ID,
			CommentEdited: &commentID,
		})
	case a.SpaceID != "":
		spaceID, err := models.ParseWorkspaceID(a.SpaceID)
		if err != nil {
			return queryErr(models.CodeNotFound, a.TaskID, "draft not found"), nil
		}
		okDraft := models.DraftOK
		return r.findOneDraft(ctx, a.TaskID, store.DraftFilter{
			UserID:       r.user.ID,
			SpaceID:      &spaceID,
			InfoType:     models.InfoThread,
			OState:       &okDraft,
			NoEditedRefs: true,
		})
	}
	return queryErr(models.CodeBadRequest, a.TaskID, "some parameters are required"), nil
}

// draftByID answers with a parcel even when the draft is missing or owned by
// someone else, so the client can drop its local copy.
func (r *reader) draftByID(ctx context.Context, taskID, draftID string) (models.QueryResult, error) {
	parcel := models.DownloadParcel{
		ID:         draftID,
		Status:     models.ParcelNotFound,
		ParcelType: "draft",
	}
	id, err := models.ParseDraftID(draftID)
	if err != nil {
		return okParcels(taskID, []models.DownloadParcel{parcel}), nil
	}
	draft, err := r.sy.store.GetDraft(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return okParcels(taskID, []models.DownloadParcel{parcel}), nil
		}
		return models.QueryResult{}, err
	}
	if draft.UserID != r.user.ID {
		parcel.Status = models.ParcelNoAuth
		return okParcels(taskID, []models.DownloadParcel{parcel}), nil
	}
	return r.draftParcel(taskID, parcel, draft)
}

func (r *reader) findOneDraft(ctx context.Context, taskID string, filter store.DraftFilter) (models.QueryResult, error) {
	draft, err := r.sy.store.FindDraft(ctx, filter)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return queryErr(models.CodeNotFound, taskID, "draft not found"), nil
		}
		return models.QueryResult{}, err
	}
	parcel := models.DownloadParcel{
		ID:         draft.ID.String(),
		ParcelType: "draft",
	}
	return r.draftParcel(taskID, parcel, draft)
}

func (r *reader) draftParcel(taskID string, parcel models.DownloadParcel, draft *models.Draft) (models.QueryResult, error) {
	title, err := r.sy.codec.OpenString(draft.EncTitle)
	if err != nil {
		return queryErr(models.CodeBadDecrypt, taskID, "cannot decrypt draft"), nil
	}
	desc, err := r.sy.codec.OpenJSON(draft.EncDesc)
	if err != nil {
		return queryErr(models.CodeBadDecrypt, taskID, "cannot decrypt draft"), nil
	}
	images, err := r.sy.codec.OpenJSON(draft.EncImages)
	if err != nil {
		return queryErr(models.CodeBadDecrypt, taskID, "cannot decrypt draft"), nil
	}
	files, err := r.sy.codec.OpenJSON(draft.EncFiles)
	if err != nil {
		return queryErr(models.CodeBadDecrypt, taskID, "cannot decrypt draft"), nil
	}

	parcel.Status = models.ParcelHasData
	parcel.Draft = &models.DownloadDraft{
		ID:      draft.ID.String(),
		FirstID: draft.FirstID,

		InfoType:  draft.InfoType,
		OState:    draft.OState,
		UserID:    draft.UserID.String(),
		SpaceID:   draft.SpaceID.String(),
		SpaceType: draft.SpaceType,

		ThreadEdited:   contentIDString(draft.ThreadEdited),
		CommentEdited:  contentIDString(draft.CommentEdited),
		ParentThread:   contentIDString(draft.ParentThread),
		ParentComment:  contentIDString(draft.ParentComment),
		ReplyToComment: contentIDString(draft.ReplyToComment),

		VisScope: draft.VisScope,

		Title:  title,
		Desc:   desc,
		Images: images,
		Files:  files,

		WhenStamp:   draft.WhenStamp,
		RemindMe:    draft.RemindMe,
		TagIDs:      []string(draft.TagIDs),
		StateID:     draft.StateID,
		StateStamp:  draft.StateStamp,
		EditedStamp: draft.EditedStamp,
	}
	return okParcels(taskID, []models.DownloadParcel{parcel}), nil
}

// sortByIDs reorders contents to the order of ids; rows without a matching
// id keep their relative order at the end.
func sortByIDs(contents []*models.Content, ids []models.ContentID) []*models.Content {
	rank := make(map[models.ContentID]int, len(ids))
	for i, id := range ids {
		rank[id] = i
	}
	sort.SliceStable(contents, func(i, j int) bool {
		ri, iOK := rank[contents[i].ID]
		rj, jOK := rank[contents[j].ID]
		if iOK != jOK {
			return iOK
		}
		return ri < rj
	})
	return contents
}

func parseContentIDs(raw []string) []models.ContentID {
	if len(raw) > maxCheckIDs {
		raw = raw[:maxCheckIDs]
	}
	ids := make([]models.ContentID, 0, len(raw))
	for _, v := range raw {
		if id, err := models.ParseContentID(v); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func contentIDString(id *models.ContentID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func clampLimit(v int) int {
	if v <= 0 {
		return defaultListLimit
	}
	if v > maxListLimit {
		return maxListLimit
	}
	return v
}

func clampCommentLimit(v int) int {
	if v <= 0 {
		return defaultCommentLimit
	}
	if v > maxListLimit {
		return maxListLimit
	}
	return v
}

func stampPtr(v int64) *int64 { return &v }
func boolPtr(v bool) *bool    { return &v }

// lowerBound returns the tighter of two exclusive lower bounds.
func lowerBound(cur *int64, v int64) *int64 {
	if cur == nil || v > *cur {
		return &v
	}
	return cur
}

// upperBound returns the tighter of two exclusive upper bounds.
func upperBound(cur *int64, v int64) *int64 {
	if cur == nil || v < *cur {
		return &v
	}
	return cur
}

func okParcels(taskID string, list []models.DownloadParcel) models.QueryResult {
	if list == nil {
		list = []models.DownloadParcel{}
	}
	return models.QueryResult{Code: models.CodeOK, TaskID: taskID, List: list}
}

func queryErr(code models.Code, taskID, errMsg string) models.QueryResult {
	return models.QueryResult{Code: code, TaskID: taskID, ErrMsg: errMsg}
}
