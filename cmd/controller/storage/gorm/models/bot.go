package models

import (
	"fmt"
	"strings"

	uuid "github.com/satori/go.uuid"
	"gorm.io/gorm"
)

type BotStatus int

const (
	BotStatusUnknown BotStatus = iota
	BotStatusLive
	BotStatusStopped
)

var (
	botStatusMappings = map[string]BotStatus{
		"unknown": BotStatusUnknown,
		"live":    BotStatusLive,
		"stopped": BotStatusStopped,
	}
)

func BotStatusFromString(value string) BotStatus {
	status, ok := botStatusMappings[strings.ToLower(value)]
	if !ok {
		return BotStatusUnknown
	}
	return status
}

func (bs BotStatus) String() string {
	switch bs {
	case BotStatusUnknown:
		return "unknown"
	case BotStatusLive:
		return "live"
	case BotStatusStopped:
		return "stopped"
	}
	panic(fmt.Sprintf("invalid BotStatus, %d", bs))
}

// Bot stores only the redacted token hint, never the raw Telegram token.
type Bot struct {
	gorm.Model

	UUID uuid.UUID `gorm:"type:uuid;notnull;unique"`

	UserID            string `gorm:"notnull;index"`
	BotName           string
	BotType           string
	TelegramTokenHint string
	UnderlyingModel   string
	Status            BotStatus
}
