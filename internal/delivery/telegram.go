// Package delivery contains optional transports that push emitted
// notifications to users. Transports subscribe to the event bus and are
// best-effort: the scanner's contract ends once a notification exists.
package delivery

import (
	"fmt"
	"sync"

	"github.com/asaskevich/EventBus"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/agromarket/search-alerts/internal/events"
	"github.com/agromarket/search-alerts/internal/logger"
)

type Telegram struct {
	api   *botApi.BotAPI
	chats sync.Map
}

func NewTelegram(token string, bus EventBus.Bus) (*Telegram, error) {

	api, err := botApi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Infof("Authorized on account %s", api.Self.UserName)

	t := &Telegram{api: api}
	if err = bus.Subscribe(events.MatchFoundTopic, t.onMatchFound); err != nil {
		return nil, err
	}
	return t, nil
}

// RegisterChat maps a marketplace user to their telegram chat; users
// without a mapping simply keep in-app notifications only.
func (t *Telegram) RegisterChat(userID string, chatID int64) {
	t.chats.Store(userID, chatID)
}

func (t *Telegram) onMatchFound(event events.MatchFound) {

	chatID, ok := t.chats.Load(event.Search.OwnerID)
	if !ok {
		return
	}

	text := fmt.Sprintf("New listing matches your search %q:\n%s — %d (%s)",
		event.Search.QueryText, event.ListingTitle, event.Price, event.Location)

	if _, err := t.api.Send(botApi.NewMessage(chatID.(int64), text)); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDelivery).
			Errorf("failed to deliver telegram notification to user %v: %v", event.Search.OwnerID, err)
	}
}
