package services

import (
	"context"

	"github.com/asaskevich/EventBus"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/agromarket/search-alerts/internal/entities"
	"github.com/agromarket/search-alerts/internal/events"
)

type notificationRepository interface {
	Create(ctx context.Context, notification entities.Notification) error
}

// Notifier is the notification sink: it persists an in-app notification
// and publishes a MatchFound event for delivery adapters. An emission is
// successful only once the notification row exists; delivery beyond that
// is best-effort and out of the scanner's contract.
type Notifier struct {
	notifications notificationRepository
	bus           EventBus.Bus
	rateLimiter   *rate.Limiter
}

func NewNotifier(notifications notificationRepository, bus EventBus.Bus) *Notifier {
	return &Notifier{notifications: notifications, bus: bus}
}

func (n *Notifier) SetRateLimit(maxPerSecond float32) {
	n.rateLimiter = rate.NewLimiter(rate.Limit(maxPerSecond), 1)
}

func (n *Notifier) Emit(ctx context.Context, search entities.SavedSearch, listing entities.Listing) error {

	if n.rateLimiter != nil {
		if err := n.rateLimiter.Wait(ctx); err != nil {
			return err
		}
	}

	notification := entities.NewSearchAlertNotification(search, listing)
	if err := n.notifications.Create(ctx, notification); err != nil {
		return errors.Wrap(err, "failed to create notification")
	}

	n.bus.Publish(events.MatchFoundTopic, events.MatchFound{
		Search:       search,
		ListingID:    listing.ID,
		ListingTitle: listing.Title,
		Price:        listing.Price,
		Location:     listing.Location,
	})
	return nil
}
