package app

import (
	"github.com/yungbote/omex-backend/internal/data/plans"
	"github.com/yungbote/omex-backend/internal/data/repos"
	"github.com/yungbote/omex-backend/internal/platform/logger"
)

type Repos struct {
	User  repos.UserRepo
	Plans plans.Store
}

func wireRepos(log *logger.Logger, cfg Config, clients Clients) (Repos, error) {
	log.Info("Wiring repos...")
	planStore, err := resolvePlanStore(log, cfg.PlanStore, clients.DB.DB(), clients.Redis)
	if err != nil {
		return Repos{}, err
	}
	return Repos{
		User:  repos.NewUserRepo(clients.DB.DB(), log),
		Plans: planStore,
	}, nil
}
