package app

import (
	"fmt"

	"github.com/yungbote/omex-backend/internal/platform/logger"
	"github.com/yungbote/omex-backend/internal/platform/validate"
	"github.com/yungbote/omex-backend/internal/services"
)

type Services struct {
	Avatar     services.AvatarService
	Auth       services.AuthService
	User       services.UserService
	Conversion services.ConversionService
	StudyPlan  services.StudyPlanService
}

func wireServices(log *logger.Logger, cfg Config, clients Clients, reposet Repos) (Services, error) {
	log.Info("Wiring services...")
	validator := validate.New()

	avatarService, err := services.NewAvatarService(log, clients.Bucket)
	if err != nil {
		return Services{}, fmt.Errorf("init avatar service: %w", err)
	}
	authService, err := services.NewAuthService(log, reposet.User, avatarService, validator, services.AuthConfig{
		JWTSecretKey:     cfg.JWTSecretKey,
		TokenTTL:         cfg.TokenTTL,
		MaxLoginAttempts: cfg.LoginMaxAttempts,
		LockDuration:     cfg.LoginLockDuration,
		BcryptCost:       cfg.BcryptCost,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init auth service: %w", err)
	}

	quizzes, err := services.NewPlaceholderQuizGenerator()
	if err != nil {
		return Services{}, fmt.Errorf("init quiz generator: %w", err)
	}
	rewards, err := services.NewRewardPolicy(cfg.RewardPolicy)
	if err != nil {
		return Services{}, err
	}

	return Services{
		Avatar:     avatarService,
		Auth:       authService,
		User:       services.NewUserService(log, reposet.User),
		Conversion: services.NewConversionService(log, clients.Converter, clients.Bucket, cfg.UploadMaxBytes),
		StudyPlan: services.NewStudyPlanService(log, reposet.Plans,
			services.NewPlanGenerator(quizzes, validator), rewards),
	}, nil
}
