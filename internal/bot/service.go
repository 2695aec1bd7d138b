package bot

import (
	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/overseerbot/overseer/internal/db"
	"github.com/overseerbot/overseer/internal/policy"
)

type service struct {
	bot    *api.BotAPI
	db     db.Client
	engine *policy.Engine
}

func NewService(bot *api.BotAPI, db db.Client, engine *policy.Engine) *service {
	return &service{
		bot:    bot,
		db:     db,
		engine: engine,
	}
}

func (s *service) GetBot() *api.BotAPI {
	return s.bot
}

func (s *service) GetDB() db.Client {
	return s.db
}

func (s *service) GetEngine() *policy.Engine {
	return s.engine
}
