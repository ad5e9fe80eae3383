package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/agromarket/search-alerts/internal/entities"
)

type Notifications struct {
	db *gorm.DB
}

func NewNotificationsRepository(db *gorm.DB) *Notifications {
	return &Notifications{db: db}
}

func (n *Notifications) Create(ctx context.Context, notification entities.Notification) error {
	return n.db.WithContext(ctx).Create(&notification).Error
}

func (n *Notifications) GetByUser(ctx context.Context, userID string, limit int) ([]entities.Notification, error) {

	var notifications []entities.Notification
	if err := n.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

func (n *Notifications) GetUnreadCount(ctx context.Context, userID string) (int64, error) {

	var count int64
	if err := n.db.WithContext(ctx).Model(&entities.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (n *Notifications) MarkRead(ctx context.Context, userID string, ids []string) error {
	return n.db.WithContext(ctx).Model(&entities.Notification{}).
		Where("user_id = ? AND id IN ?", userID, ids).
		Update("read", true).Error
}

func (n *Notifications) CountForPair(ctx context.Context, searchID, listingID string) (int64, error) {

	var count int64
	if err := n.db.WithContext(ctx).Model(&entities.Notification{}).
		Where("saved_search_id = ? AND listing_id = ?", searchID, listingID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (n *Notifications) RemoveOldRead(ctx context.Context, olderThan time.Time) (int64, error) {
	res := n.db.WithContext(ctx).
		Delete(&entities.Notification{}, "read = ? AND created_at < ?", true, olderThan)
	return res.RowsAffected, res.Error
}
