package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

const (
	collGoals    = "goals"
	collArchive  = "archive"
	collTasks    = "tasks"
	collActivity = "activity"
	collUsers    = "users"
)

// document is one record of any collection, stored as a JSON body with the
// few columns the queries filter and sort on.
type document struct {
	Collection  string     `gorm:"primaryKey;size:16"`
	ID          string     `gorm:"primaryKey;size:64"`
	OwnerID     string     `gorm:"index:idx_documents_owner;size:64"`
	SortKey     time.Time  `gorm:"index:idx_documents_owner"`
	Lookup      *string    `gorm:"uniqueIndex:idx_documents_lookup"`
	ActiveSince *time.Time `gorm:"index"`
	Body        string
	UpdatedAt   time.Time
}

func (document) TableName() string {
	return "documents"
}

// SQLiteStore is the embedded store: a single-file document table behind gorm.
type SQLiteStore struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if needed) the database file at path.
// ":memory:" gives a private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	memory := path == ":memory:"
	if !memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if memory {
		// Every connection to :memory: is a separate database.
		sqlDB.SetMaxOpenConns(1)
	} else {
		for _, pragma := range []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA synchronous=NORMAL",
			"PRAGMA busy_timeout=5000",
		} {
			if err := db.Exec(pragma).Error; err != nil {
				return nil, fmt.Errorf("exec %s: %w", pragma, err)
			}
		}
	}

	return NewSQLiteStore(db)
}

func NewSQLiteStore(db *gorm.DB) (*SQLiteStore, error) {
	if err := db.AutoMigrate(&document{}); err != nil {
		return nil, fmt.Errorf("migrate documents: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLiteStore) Goals() *SQLiteGoalRepository {
	return &SQLiteGoalRepository{db: s.db}
}

func (s *SQLiteStore) Tasks() *SQLiteTaskRepository {
	return &SQLiteTaskRepository{db: s.db}
}

func (s *SQLiteStore) Activity() *SQLiteActivityRepository {
	return &SQLiteActivityRepository{db: s.db}
}

func (s *SQLiteStore) Users() *SQLiteUserRepository {
	return &SQLiteUserRepository{db: s.db}
}

func newDocument(collection, id, owner string, sortKey time.Time, body any) (*document, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s document: %w", collection, err)
	}
	return &document{
		Collection: collection,
		ID:         id,
		OwnerID:    owner,
		SortKey:    sortKey.UTC(),
		Body:       string(data),
		UpdatedAt:  time.Now().UTC(),
	}, nil
}

func decodeDocument[T any](doc *document) (*T, error) {
	var v T
	if err := json.Unmarshal([]byte(doc.Body), &v); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", doc.Collection, doc.ID, err)
	}
	return &v, nil
}

func getDocument[T any](ctx context.Context, db *gorm.DB, collection, id string, notFound error) (*T, error) {
	var doc document
	err := db.WithContext(ctx).Where("collection = ? AND id = ?", collection, id).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound
		}
		return nil, domain.StoreError("get "+collection, err)
	}
	return decodeDocument[T](&doc)
}

func findDocuments[T any](q *gorm.DB, op string) ([]*T, error) {
	var docs []document
	if err := q.Find(&docs).Error; err != nil {
		return nil, domain.StoreError(op, err)
	}

	out := make([]*T, 0, len(docs))
	for i := range docs {
		v, err := decodeDocument[T](&docs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func deleteDocument(db *gorm.DB, collection, id string, notFound error) error {
	res := db.Where("collection = ? AND id = ?", collection, id).Delete(&document{})
	if res.Error != nil {
		return domain.StoreError("delete "+collection, res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound
	}
	return nil
}

func goalDocument(g *domain.Goal) (*document, error) {
	doc, err := newDocument(collGoals, g.ID, g.UserID, g.CreatedAt, g)
	if err != nil {
		return nil, err
	}
	if g.IsActive() {
		at := g.LastActivity().UTC()
		doc.ActiveSince = &at
	}
	return doc, nil
}

var _ domain.GoalRepository = (*SQLiteGoalRepository)(nil)

type SQLiteGoalRepository struct {
	db *gorm.DB
}

func (r *SQLiteGoalRepository) Create(ctx context.Context, g *domain.Goal) error {
	doc, err := goalDocument(g)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return domain.StoreError("insert goal", err)
	}
	return nil
}

func (r *SQLiteGoalRepository) GetByID(ctx context.Context, id string) (*domain.Goal, error) {
	return getDocument[domain.Goal](ctx, r.db, collGoals, id, domain.ErrGoalNotFound)
}

func (r *SQLiteGoalRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Goal, error) {
	q := r.db.WithContext(ctx).
		Where("collection = ? AND owner_id = ?", collGoals, userID).
		Order("sort_key DESC")
	return findDocuments[domain.Goal](q, "list goals")
}

func (r *SQLiteGoalRepository) SaveProgress(ctx context.Context, g *domain.Goal, events []*domain.ActivityEvent) error {
	doc, err := goalDocument(g)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&document{}).
			Where("collection = ? AND id = ?", collGoals, g.ID).
			Updates(map[string]any{
				"body":         doc.Body,
				"active_since": doc.ActiveSince,
				"updated_at":   doc.UpdatedAt,
			})
		if res.Error != nil {
			return domain.StoreError("update goal", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrGoalNotFound
		}

		for _, e := range events {
			ed, err := newDocument(collActivity, e.ID, e.UserID, e.OccurredAt, e)
			if err != nil {
				return err
			}
			if err := tx.Create(ed).Error; err != nil {
				return domain.StoreError("insert activity event", err)
			}
		}
		return nil
	})
}

func (r *SQLiteGoalRepository) Delete(ctx context.Context, id string) error {
	return deleteDocument(r.db.WithContext(ctx), collGoals, id, domain.ErrGoalNotFound)
}

func (r *SQLiteGoalRepository) Archive(ctx context.Context, rec *domain.ArchiveRecord) error {
	doc, err := newDocument(collArchive, rec.ID, rec.UserID, rec.CompletedAt, rec)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteDocument(tx, collGoals, rec.GoalID, domain.ErrGoalNotFound); err != nil {
			return err
		}
		if err := tx.Create(doc).Error; err != nil {
			return domain.StoreError("insert archive record", err)
		}
		return nil
	})
}

func (r *SQLiteGoalRepository) ListArchived(ctx context.Context, userID string) ([]*domain.ArchiveRecord, error) {
	q := r.db.WithContext(ctx).
		Where("collection = ? AND owner_id = ?", collArchive, userID).
		Order("sort_key DESC")
	return findDocuments[domain.ArchiveRecord](q, "list archived goals")
}

func (r *SQLiteGoalRepository) ListActiveIdleSince(ctx context.Context, cutoff time.Time) ([]*domain.Goal, error) {
	q := r.db.WithContext(ctx).
		Where("collection = ? AND active_since IS NOT NULL AND active_since < ?", collGoals, cutoff.UTC()).
		Order("active_since ASC")
	return findDocuments[domain.Goal](q, "list idle goals")
}

var _ domain.TaskRepository = (*SQLiteTaskRepository)(nil)

type SQLiteTaskRepository struct {
	db *gorm.DB
}

func (r *SQLiteTaskRepository) Create(ctx context.Context, t *domain.Task) error {
	doc, err := newDocument(collTasks, t.ID, t.UserID, t.CreatedAt, t)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return domain.StoreError("insert task", err)
	}
	return nil
}

func (r *SQLiteTaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	return getDocument[domain.Task](ctx, r.db, collTasks, id, domain.ErrTaskNotFound)
}

func (r *SQLiteTaskRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Task, error) {
	q := r.db.WithContext(ctx).
		Where("collection = ? AND owner_id = ?", collTasks, userID).
		Order("sort_key DESC")
	return findDocuments[domain.Task](q, "list tasks")
}

func (r *SQLiteTaskRepository) Update(ctx context.Context, t *domain.Task) error {
	doc, err := newDocument(collTasks, t.ID, t.UserID, t.CreatedAt, t)
	if err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Model(&document{}).
		Where("collection = ? AND id = ?", collTasks, t.ID).
		Updates(map[string]any{"body": doc.Body, "updated_at": doc.UpdatedAt})
	if res.Error != nil {
		return domain.StoreError("update task", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *SQLiteTaskRepository) Delete(ctx context.Context, id string) error {
	return deleteDocument(r.db.WithContext(ctx), collTasks, id, domain.ErrTaskNotFound)
}

var _ domain.ActivityRepository = (*SQLiteActivityRepository)(nil)

type SQLiteActivityRepository struct {
	db *gorm.DB
}

func (r *SQLiteActivityRepository) Append(ctx context.Context, e *domain.ActivityEvent) error {
	doc, err := newDocument(collActivity, e.ID, e.UserID, e.OccurredAt, e)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return domain.StoreError("insert activity event", err)
	}
	return nil
}

func (r *SQLiteActivityRepository) ListByUserID(ctx context.Context, userID string, since time.Time) ([]*domain.ActivityEvent, error) {
	q := r.db.WithContext(ctx).
		Where("collection = ? AND owner_id = ? AND sort_key >= ?", collActivity, userID, since.UTC()).
		Order("sort_key ASC, id ASC")
	return findDocuments[domain.ActivityEvent](q, "list activity events")
}

var _ domain.UserRepository = (*SQLiteUserRepository)(nil)

type SQLiteUserRepository struct {
	db *gorm.DB
}

// storedUser keeps the password hash, which domain.User hides from JSON.
type storedUser struct {
	domain.User
	PasswordHash string `json:"password_hash"`
}

func (r *SQLiteUserRepository) Create(ctx context.Context, user *domain.User) error {
	doc, err := newDocument(collUsers, user.ID, user.ID, user.CreatedAt, storedUser{User: *user, PasswordHash: user.PasswordHash})
	if err != nil {
		return err
	}
	email := strings.ToLower(user.Email)
	doc.Lookup = &email

	err = r.db.WithContext(ctx).Create(doc).Error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrEmailAlreadyExists
	default:
		return domain.StoreError("create user", err)
	}
}

func (r *SQLiteUserRepository) decode(doc *document) (*domain.User, error) {
	su, err := decodeDocument[storedUser](doc)
	if err != nil {
		return nil, err
	}
	u := su.User
	u.PasswordHash = su.PasswordHash
	return &u, nil
}

func (r *SQLiteUserRepository) first(ctx context.Context, op, where string, arg string) (*domain.User, error) {
	var doc document
	err := r.db.WithContext(ctx).Where("collection = ? AND "+where, collUsers, arg).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.StoreError(op, err)
	}
	return r.decode(&doc)
}

func (r *SQLiteUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "get user by email", "lookup = ?", strings.ToLower(email))
}

func (r *SQLiteUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.first(ctx, "get user by id", "id = ?", id)
}

// Delete removes the account and every document it owns in one transaction.
func (r *SQLiteUserRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteDocument(tx, collUsers, id, domain.ErrUserNotFound); err != nil {
			return err
		}
		if err := tx.Where("owner_id = ?", id).Delete(&document{}).Error; err != nil {
			return domain.StoreError("delete owned documents", err)
		}
		return nil
	})
}
