package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/temcen/fitpair/internal/config"
	"github.com/temcen/fitpair/internal/services"
)

type Handlers struct {
	Health      *HealthHandler
	Auth        *AuthHandler
	Partner     *PartnerHandler
	Interaction *InteractionHandler
}

func New(cfg *config.Config, logger *logrus.Logger, services *services.Services) *Handlers {
	return &Handlers{
		Health:      NewHealthHandler(logger, services.Health),
		Auth:        NewAuthHandler(logger, services.Auth),
		Partner:     NewPartnerHandler(logger, services.Recommendations, services.Connections, cfg.Matching.DefaultLimit),
		Interaction: NewInteractionHandler(logger, services.Interactions),
	}
}
