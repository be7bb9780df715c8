package relational

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wk-archive/meetingmind/internal/apperr"
	"github.com/wk-archive/meetingmind/internal/types"
)

// WhitelistRepo implements whitelist.Lookup plus the CRUD operations the
// admin handler exposes, kept in its own file since it operates on a table
// outside the graph/relational mirror's document model (spec.md §4.9).
type WhitelistRepo struct {
	db *gorm.DB
}

// NewWhitelistRepo wraps an already-migrated *gorm.DB.
func NewWhitelistRepo(db *gorm.DB) *WhitelistRepo {
	return &WhitelistRepo{db: db}
}

// IsActiveWhitelistEntry implements whitelist.Lookup.
func (r *WhitelistRepo) IsActiveWhitelistEntry(ctx context.Context, identity string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&types.WhitelistEntry{}).
		Where("identity = ? AND active = ?", identity, true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("%w: whitelist lookup %s: %v", apperr.ErrTransientExternal, identity, err)
	}
	return count > 0, nil
}

// List returns every whitelist entry, most recently created first.
func (r *WhitelistRepo) List(ctx context.Context) ([]types.WhitelistEntry, error) {
	var entries []types.WhitelistEntry
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("%w: list whitelist entries: %v", apperr.ErrTransientExternal, err)
	}
	return entries, nil
}

// Upsert creates or updates one whitelist entry keyed by identity.
func (r *WhitelistRepo) Upsert(ctx context.Context, entry types.WhitelistEntry) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "identity"}},
		DoUpdates: clause.AssignmentColumns([]string{"active", "display_name"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("%w: upsert whitelist entry %s: %v", apperr.ErrTransientExternal, entry.Identity, err)
	}
	return nil
}

// Delete removes one whitelist entry by identity.
func (r *WhitelistRepo) Delete(ctx context.Context, identity string) error {
	err := r.db.WithContext(ctx).Where("identity = ?", identity).Delete(&types.WhitelistEntry{}).Error
	if err != nil {
		return fmt.Errorf("%w: delete whitelist entry %s: %v", apperr.ErrTransientExternal, identity, err)
	}
	return nil
}
