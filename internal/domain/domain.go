package domain

import (
	"github.com/yungbote/omex-backend/internal/domain/study"
	"github.com/yungbote/omex-backend/internal/domain/user"
)

type User = user.User

type (
	Mindmap      = study.Mindmap
	StudyPlan    = study.StudyPlan
	Topic        = study.Topic
	Subtopic     = study.Subtopic
	QuizQuestion = study.QuizQuestion
	QuizProgress = study.QuizProgress
	QuizResult   = study.QuizResult
	Answer       = study.Answer
)
