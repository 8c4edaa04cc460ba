package services

import (
	"context"
	"time"

	"github.com/unihub-app/unihub-backend/internal/database"
	"github.com/unihub-app/unihub-backend/internal/models"
	"github.com/unihub-app/unihub-backend/pkg/errors"
	"github.com/unihub-app/unihub-backend/pkg/logger"
	"github.com/unihub-app/unihub-backend/pkg/utils"
	"gorm.io/gorm"
)

const directoryTTL = 5 * time.Minute

// DirectoryService hydrates user profiles and project cards from id lists.
// Reads go through the cache; a cache failure degrades to a direct read.
type DirectoryService struct {
	db    *gorm.DB
	cache *database.Cache
}

func NewDirectoryService(db *gorm.DB, cache *database.Cache) *DirectoryService {
	return &DirectoryService{db: db, cache: cache}
}

// User returns a single profile, cache first.
func (s *DirectoryService) User(ctx context.Context, id string) (*models.User, error) {
	key := "directory:user:" + id

	var cached models.User
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}
	if hit {
		return &cached, nil
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, errors.NotFound("User not found")
	}

	if err := s.cache.Set(ctx, key, user, directoryTTL); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return &user, nil
}

// Users hydrates profiles for an id list, preserving the input order. Missing
// ids are skipped rather than erroring; callers pass ids from link rows that
// may lag a deletion.
func (s *DirectoryService) Users(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}

	var users []models.User
	if err := s.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, errors.Internal("failed to fetch users")
	}

	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	ordered := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			ordered = append(ordered, u)
		}
	}
	return ordered, nil
}

// Projects hydrates project cards for an id list, preserving input order and
// skipping missing ids.
func (s *DirectoryService) Projects(ctx context.Context, ids []string) ([]models.Project, error) {
	if len(ids) == 0 {
		return []models.Project{}, nil
	}

	var projects []models.Project
	if err := s.db.Preload("Creator").Where("id IN ?", ids).Find(&projects).Error; err != nil {
		return nil, errors.Internal("failed to fetch projects")
	}

	byID := make(map[string]models.Project, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
	}
	ordered := make([]models.Project, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

// Search matches users by name or username prefix, excluding the caller.
func (s *DirectoryService) Search(query, excludeID string, limit int) ([]models.User, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	pattern := utils.EscapeSQLWildcards(utils.TruncateString(query, 100)) + "%"
	var users []models.User
	err := s.db.Where("(name LIKE ? OR username LIKE ?) AND id <> ?", pattern, pattern, excludeID).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, errors.Internal("failed to search users")
	}
	return users, nil
}

// Invalidate drops cached entries after a profile write.
func (s *DirectoryService) Invalidate(ctx context.Context, userIDs ...string) {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, "directory:user:"+id)
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logger.Warn().Err(err).Msg("cache invalidation failed")
	}
}
