// Package postgres implements [store.Store] on PostgreSQL using GORM.
//
// The schema maps entities directly to relational tables; document-shaped
// fields (configs, emoji data, tag lists) live in jsonb columns through
// the Valuer/Scanner implementations on the model types. Partial updates
// translate [store.FieldPatch] into a GORM Updates map, with removed fields
// written as NULL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/flashnote/flashnote/pkg/models"
	"github.com/flashnote/flashnote/pkg/store"
)

// PostgresStore implements the Store interface using PostgreSQL with GORM.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore creates a new PostgreSQL store.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Migrate creates missing tables, columns, and indexes with GORM's
// AutoMigrate. Safe to run repeatedly; it never drops existing data.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Workspace{},
		&models.Member{},
		&models.Content{},
		&models.Draft{},
		&models.Collection{},
		&models.Session{},
	)
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// columns maps the canonical patch field names to PostgreSQL column names.
// Any patch field not present here is a programming error.
var columns = map[string]string{
	store.FieldOState:         "o_state",
	store.FieldVisScope:       "vis_scope",
	store.FieldStorageState:   "storage_state",
	store.FieldInfoType:       "info_type",
	store.FieldEncTitle:       "enc_title",
	store.FieldEncDesc:        "enc_desc",
	store.FieldEncImages:      "enc_images",
	store.FieldEncFiles:       "enc_files",
	store.FieldCalendarStamp:  "calendar_stamp",
	store.FieldCreatedStamp:   "created_stamp",
	store.FieldRemindStamp:    "remind_stamp",
	store.FieldWhenStamp:      "when_stamp",
	store.FieldRemindMe:       "remind_me",
	store.FieldPinStamp:       "pin_stamp",
	store.FieldEditedStamp:    "edited_stamp",
	store.FieldRemovedStamp:   "removed_stamp",
	store.FieldStateStamp:     "state_stamp",
	store.FieldOperateStamp:   "operate_stamp",
	store.FieldSortStamp:      "sort_stamp",
	store.FieldUpdatedStamp:   "updated_stamp",
	store.FieldEmojiData:      "emoji_data",
	store.FieldEmoji:          "emoji",
	store.FieldTagIDs:         "tag_ids",
	store.FieldTagSearched:    "tag_searched",
	store.FieldStateID:        "state_id",
	store.FieldConfig:         "config",
	store.FieldLevelOne:       "level_one",
	store.FieldLevelOneAndTwo: "level_one_and_two",
	store.FieldName:           "name",
	store.FieldAvatar:         "avatar",
	store.FieldTagList:        "tag_list",
	store.FieldStateConfig:    "state_config",
	store.FieldThreadEdited:   "thread_edited",
	store.FieldCommentEdited:  "comment_edited",
	store.FieldParentThread:   "parent_thread",
	store.FieldParentComment:  "parent_comment",
	store.FieldReplyToComment: "reply_to_comment",
}

// updatesFrom converts a patch into a GORM Updates map. Removed fields
// become NULL, which is the relational stand-in for an absent field.
func updatesFrom(patch store.FieldPatch) (map[string]any, error) {
	updates := make(map[string]any, len(patch))
	for field, op := range patch {
		column, ok := columns[field]
		if !ok {
			return nil, fmt.Errorf("no column for patch field %q", field)
		}
		if op.IsRemove() {
			updates[column] = nil
		} else {
			updates[column] = op.Value()
		}
	}
	return updates, nil
}

func (s *PostgresStore) applyPatch(ctx context.Context, model any, id any, patch store.FieldPatch) error {
	if len(patch) == 0 {
		return nil
	}
	updates, err := updatesFrom(patch)
	if err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Content operations

func (s *PostgresStore) CreateContent(ctx context.Context, content *models.Content) error {
	return s.db.WithContext(ctx).Create(content).Error
}

func (s *PostgresStore) GetContent(ctx context.Context, id models.ContentID) (*models.Content, error) {
	var content models.Content
	err := s.db.WithContext(ctx).First(&content, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("content %s: %w", id, store.ErrNotFound)
		}
		return nil, err
	}
	return &content, nil
}

func (s *PostgresStore) FindContentByFirstID(ctx context.Context, userID models.UserID, firstID string) (*models.Content, error) {
	var content models.Content
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND first_id = ?", userID, firstID).
		First(&content).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("content first_id %s: %w", firstID, store.ErrNotFound)
		}
		return nil, err
	}
	return &content, nil
}

func (s *PostgresStore) PatchContent(ctx context.Context, id models.ContentID, patch store.FieldPatch) error {
	if err := s.applyPatch(ctx, &models.Content{}, id, patch); err != nil {
		return fmt.Errorf("patching content %s: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) DeleteContent(ctx context.Context, id models.ContentID) error {
	return s.db.WithContext(ctx).Delete(&models.Content{}, "id = ?", id).Error
}

func (s *PostgresStore) ListContents(ctx context.Context, filter store.ContentFilter) ([]*models.Content, error) {
	q := s.db.WithContext(ctx).Model(&models.Content{})

	if !filter.SpaceID.IsZero() {
		q = q.Where("space_id = ?", filter.SpaceID)
	}
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.InfoType != "" {
		q = q.Where("info_type = ?", filter.InfoType)
	}
	if filter.OState != nil {
		q = q.Where("o_state = ?", *filter.OState)
	}
	if len(filter.IDs) > 0 {
		q = q.Where("id IN ?", filter.IDs)
	}
	if len(filter.ExcludedIDs) > 0 {
		q = q.Where("id NOT IN ?", filter.ExcludedIDs)
	}
	if filter.ParentThread != nil {
		q = q.Where("parent_thread = ?", *filter.ParentThread)
	}
	if filter.ParentComment != nil {
		q = q.Where("parent_comment = ?", *filter.ParentComment)
	}
	if filter.ReplyToComment != nil {
		q = q.Where("reply_to_comment = ?", *filter.ReplyToComment)
	}
	if filter.NoParentComment {
		q = q.Where("parent_comment IS NULL")
	}
	if filter.NoReplyToComment {
		q = q.Where("reply_to_comment IS NULL")
	}
	if filter.TagID != "" {
		// tag_searched is a jsonb array of tag id strings.
		q = q.Where("tag_searched @> ?", fmt.Sprintf("[%q]", filter.TagID))
	}
	if filter.StateID != nil {
		q = q.Where("state_id = ?", *filter.StateID)
	}
	if filter.Pinned != nil {
		if *filter.Pinned {
			q = q.Where("pin_stamp > 0")
		} else {
			q = q.Where("(pin_stamp IS NULL OR pin_stamp = 0)")
		}
	}
	if filter.OnCalendar {
		q = q.Where("calendar_stamp IS NOT NULL")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = store.FieldCreatedStamp
	}
	column, ok := columns[sortBy]
	if !ok {
		return nil, fmt.Errorf("no column for sort field %q", sortBy)
	}
	if filter.MinStamp != nil {
		q = q.Where(fmt.Sprintf("%s > ?", column), *filter.MinStamp)
	}
	if filter.MaxStamp != nil {
		q = q.Where(fmt.Sprintf("%s < ?", column), *filter.MaxStamp)
	}

	order := column
	if filter.SortWay != models.SortAsc {
		order += " DESC"
	}
	q = q.Order(order)
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Skip > 0 {
		q = q.Offset(filter.Skip)
	}

	var contents []*models.Content
	if err := q.Find(&contents).Error; err != nil {
		return nil, err
	}
	return contents, nil
}

// Draft operations

func (s *PostgresStore) CreateDraft(ctx context.Context, draft *models.Draft) error {
	return s.db.WithContext(ctx).Create(draft).Error
}

func (s *PostgresStore) GetDraft(ctx context.Context, id models.DraftID) (*models.Draft, error) {
	var draft models.Draft
	err := s.db.WithContext(ctx).First(&draft, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("draft %s: %w", id, store.ErrNotFound)
		}
		return nil, err
	}
	return &draft, nil
}

func (s *PostgresStore) FindDraftByFirstID(ctx context.Context, userID models.UserID, firstID string) (*models.Draft, error) {
	var draft models.Draft
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND first_id = ?", userID, firstID).
		First(&draft).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("draft first_id %s: %w", firstID, store.ErrNotFound)
		}
		return nil, err
	}
	return &draft, nil
}

func (s *PostgresStore) PatchDraft(ctx context.Context, id models.DraftID, patch store.FieldPatch) error {
	if err := s.applyPatch(ctx, &models.Draft{}, id, patch); err != nil {
		return fmt.Errorf("patching draft %s: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) FindDraft(ctx context.Context, filter store.DraftFilter) (*models.Draft, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", filter.UserID)
	if filter.ID != nil {
		q = q.Where("id = ?", *filter.ID)
	}
	if filter.ThreadEdited != nil {
		q = q.Where("thread_edited = ?", *filter.ThreadEdited)
	}
	if filter.CommentEdited != nil {
		q = q.Where("comment_edited = ?", *filter.CommentEdited)
	}
	if filter.SpaceID != nil {
		q = q.Where("space_id = ?", *filter.SpaceID)
	}
	if filter.InfoType != "" {
		q = q.Where("info_type = ?", filter.InfoType)
	}
	if filter.OState != nil {
		q = q.Where("o_state = ?", *filter.OState)
	}
	if filter.NoEditedRefs {
		q = q.Where("thread_edited IS NULL AND comment_edited IS NULL")
	}

	var draft models.Draft
	err := q.Order("edited_stamp DESC").First(&draft).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("finding draft: %w", store.ErrNotFound)
		}
		return nil, err
	}
	return &draft, nil
}

// Collection operations

func (s *PostgresStore) CreateCollection(ctx context.Context, collection *models.Collection) error {
	return s.db.WithContext(ctx).Create(collection).Error
}

func (s *PostgresStore) GetCollection(ctx context.Context, id models.CollectionID) (*models.Collection, error) {
	var collection models.Collection
	err := s.db.WithContext(ctx).First(&collection, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("collection %s: %w", id, store.ErrNotFound)
		}
		return nil, err
	}
	return &collection, nil
}

func (s *PostgresStore) FindCollectionByFirstID(ctx context.Context, userID models.UserID, firstID string) (*models.Collection, error) {
	var collection models.Collection
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND first_id = ?", userID, firstID).
		First(&collection).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("collection first_id %s: %w", firstID, store.ErrNotFound)
		}
		return nil, err
	}
	return &collection, nil
}

func (s *PostgresStore) FindUserCollection(ctx context.Context, userID models.UserID, contentID models.ContentID, infoType models.CollectionType) (*models.Collection, error) {
	var collection models.Collection
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND content_id = ? AND info_type = ?", userID, contentID, infoType).
		First(&collection).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user collection: %w", store.ErrNotFound)
		}
		return nil, err
	}
	return &collection, nil
}

func (s *PostgresStore) PatchCollection(ctx context.Context, id models.CollectionID, patch store.FieldPatch) error {
	if err := s.applyPatch(ctx, &models.Collection{}, id, patch); err != nil {
		return fmt.Errorf("patching collection %s: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) ListCollections(ctx context.Context, filter store.CollectionFilter) ([]*models.Collection, error) {
	q := s.db.WithContext(ctx).Model(&models.Collection{})

	if !filter.UserID.IsZero() {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if !filter.SpaceID.IsZero() {
		q = q.Where("space_id = ?", filter.SpaceID)
	}
	if filter.InfoType != "" {
		q = q.Where("info_type = ?", filter.InfoType)
	}
	if filter.ForType != "" {
		q = q.Where("for_type = ?", filter.ForType)
	}
	if filter.OState != nil {
		q = q.Where("o_state = ?", *filter.OState)
	}
	if filter.Emoji != "" {
		q = q.Where("emoji = ?", filter.Emoji)
	}
	if len(filter.ContentIDs) > 0 {
		q = q.Where("content_id IN ?", filter.ContentIDs)
	}
	if filter.MinStamp != nil {
		q = q.Where("sort_stamp > ?", *filter.MinStamp)
	}
	if filter.MaxStamp != nil {
		q = q.Where("sort_stamp < ?", *filter.MaxStamp)
	}

	order := "sort_stamp"
	if filter.SortWay != models.SortAsc {
		order += " DESC"
	}
	q = q.Order(order)
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var collections []*models.Collection
	if err := q.Find(&collections).Error; err != nil {
		return nil, err
	}
	return collections, nil
}

// Member and workspace operations

func (s *PostgresStore) CreateMember(ctx context.Context, member *models.Member) error {
	return s.db.WithContext(ctx).Create(member).Error
}

func (s *PostgresStore) GetMember(ctx context.Context, id models.MemberID) (*models.Member, error) {
	var member models.Member
	err := s.db.WithContext(ctx).First(&member, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("member %s: %w", id, store.ErrNotFound)
		}
		return nil, err
	}
	return &member, nil
}

func (s *PostgresStore) FindMember(ctx context.Context, userID models.UserID, spaceID models.WorkspaceID) (*models.Member, error) {
	var member models.Member
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND space_id = ?", userID, spaceID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("finding member: %w", store.ErrNotFound)
		}
		return nil, err
	}
	return &member, nil
}

func (s *PostgresStore) ListMemberSpaceIDs(ctx context.Context, userID models.UserID) ([]models.WorkspaceID, error) {
	var members []*models.Member
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND o_state = ?", userID, models.MemberOK).
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	spaceIDs := make([]models.WorkspaceID, 0, len(members))
	for _, m := range members {
		spaceIDs = append(spaceIDs, m.SpaceID)
	}
	return spaceIDs, nil
}

func (s *PostgresStore) PatchMember(ctx context.Context, id models.MemberID, patch store.FieldPatch) error {
	if err := s.applyPatch(ctx, &models.Member{}, id, patch); err != nil {
		return fmt.Errorf("patching member %s: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) CreateWorkspace(ctx context.Context, workspace *models.Workspace) error {
	return s.db.WithContext(ctx).Create(workspace).Error
}

func (s *PostgresStore) GetWorkspace(ctx context.Context, id models.WorkspaceID) (*models.Workspace, error) {
	var workspace models.Workspace
	err := s.db.WithContext(ctx).First(&workspace, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("workspace %s: %w", id, store.ErrNotFound)
		}
		return nil, err
	}
	return &workspace, nil
}

func (s *PostgresStore) PatchWorkspace(ctx context.Context, id models.WorkspaceID, patch store.FieldPatch) error {
	if err := s.applyPatch(ctx, &models.Workspace{}, id, patch); err != nil {
		return fmt.Errorf("patching workspace %s: %w", id, err)
	}
	return nil
}

// User and session operations

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *PostgresStore) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", id, store.ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", email, store.ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

func (s *PostgresStore) CreateSession(ctx context.Context, session *models.Session) error {
	return s.db.WithContext(ctx).Create(session).Error
}

func (s *PostgresStore) GetSession(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	err := s.db.WithContext(ctx).First(&session, "token = ?", token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("session: %w", store.ErrNotFound)
		}
		return nil, err
	}
	return &session, nil
}

func (s *PostgresStore) DeleteSession(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).Delete(&models.Session{}, "token = ?", token).Error
}
