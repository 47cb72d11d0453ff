package handler

import (
	"wordplaza/internal/app/account"
	"wordplaza/internal/app/world"
	"wordplaza/internal/configs"
)

type AppDeps struct {
	Service  *world.Service
	Hub      *world.Hub
	Accounts *account.Store
	Config   *configs.AppConfig
}
