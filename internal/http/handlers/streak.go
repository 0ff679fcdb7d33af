package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/omex-backend/internal/domain/study"
	"github.com/yungbote/omex-backend/internal/http/response"
	"github.com/yungbote/omex-backend/internal/platform/apierr"
	"github.com/yungbote/omex-backend/internal/platform/ctxutil"
	"github.com/yungbote/omex-backend/internal/platform/logger"
	"github.com/yungbote/omex-backend/internal/services"
)

type StreakHandler struct {
	log       *logger.Logger
	studyPlan services.StudyPlanService
}

func NewStreakHandler(log *logger.Logger, studyPlan services.StudyPlanService) *StreakHandler {
	return &StreakHandler{log: log.With("handler", "StreakHandler"), studyPlan: studyPlan}
}

// POST /api/streaks/initialize
// body: { "mindmaps": [{ "title": "...", "content": "..." }] }
func (sh *StreakHandler) Initialize(c *gin.Context) {
	var req struct {
		Mindmaps []study.Mindmap `json:"mindmaps"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, sh.log, apierr.Validation(msgInvalidBody))
		return
	}
	plan, err := sh.studyPlan.Initialize(c.Request.Context(), ctxutil.UserID(c.Request.Context()), req.Mindmaps)
	if err != nil {
		response.RespondError(c, sh.log, err)
		return
	}
	response.RespondOK(c, plan)
}

// GET /api/streaks/plan
func (sh *StreakHandler) GetPlan(c *gin.Context) {
	plan, err := sh.studyPlan.GetPlan(c.Request.Context(), ctxutil.UserID(c.Request.Context()))
	if err != nil {
		response.RespondError(c, sh.log, err)
		return
	}
	response.RespondOK(c, plan)
}

// GET /api/streaks/quiz/:topicIndex/:subtopicIndex
func (sh *StreakHandler) GetQuiz(c *gin.Context) {
	t, s, ok := quizIndexes(c)
	if !ok {
		response.RespondError(c, sh.log, apierr.NotFound("Quiz not found"))
		return
	}
	questions, err := sh.studyPlan.GetQuiz(c.Request.Context(), ctxutil.UserID(c.Request.Context()), t, s)
	if err != nil {
		response.RespondError(c, sh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"questions": questions})
}

// POST /api/streaks/submit-quiz/:topicIndex/:subtopicIndex
// body: { "answers": { "0": "Option A", "1": 2 } }
func (sh *StreakHandler) SubmitQuiz(c *gin.Context) {
	t, s, ok := quizIndexes(c)
	if !ok {
		response.RespondError(c, sh.log, apierr.NotFound("Quiz not found"))
		return
	}
	var req struct {
		Answers map[string]study.Answer `json:"answers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, sh.log, apierr.Validation(msgInvalidBody))
		return
	}
	result, err := sh.studyPlan.SubmitQuiz(c.Request.Context(), ctxutil.UserID(c.Request.Context()), t, s, req.Answers)
	if err != nil {
		response.RespondError(c, sh.log, err)
		return
	}
	response.RespondOK(c, result)
}

// quizIndexes parses the path indexes. Anything that is not a non-negative
// integer is treated like an out-of-range index.
func quizIndexes(c *gin.Context) (int, int, bool) {
	t, err := strconv.Atoi(c.Param("topicIndex"))
	if err != nil || t < 0 {
		return 0, 0, false
	}
	s, err := strconv.Atoi(c.Param("subtopicIndex"))
	if err != nil || s < 0 {
		return 0, 0, false
	}
	return t, s, true
}
