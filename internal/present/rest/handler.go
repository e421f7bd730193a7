package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/totegamma/survey-playground/internal/domain"
	"github.com/totegamma/survey-playground/internal/present/rest/presenter"
	"github.com/totegamma/survey-playground/internal/usecase"
)

// Subscriber streams the events of one survey into output and closes it when done.
type Subscriber interface {
	Realtime(ctx context.Context, surveyID string, output chan<- domain.Event)
}

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	survey   *usecase.SurveyUsecase
	aisurvey *usecase.AISurveyUsecase
	response *usecase.ResponseUsecase
	auth     *usecase.AuthUsecase
	store    Pinger
	signal   Subscriber
}

func NewHandler(
	survey *usecase.SurveyUsecase,
	aisurvey *usecase.AISurveyUsecase,
	response *usecase.ResponseUsecase,
	auth *usecase.AuthUsecase,
	store Pinger,
	signal Subscriber,
) *Handler {
	return &Handler{
		survey:   survey,
		aisurvey: aisurvey,
		response: response,
		auth:     auth,
		store:    store,
		signal:   signal,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	surveys := e.Group("/surveys")
	surveys.GET("", h.handleListSurveys)
	surveys.POST("", h.handleCreateSurvey)
	surveys.POST("/responses", h.handleSubmitResponse)
	surveys.POST("/ai-survey", h.handleCreateAISurvey)
	surveys.POST("/options/:question_id", h.handleAddOption)
	surveys.GET("/:id", h.handleGetSurvey)
	surveys.PUT("/:id", h.handleUpdateSurvey)
	surveys.DELETE("/:id", h.handleDeleteSurvey)
	surveys.POST("/:id/questions", h.handleAddQuestion)
	surveys.GET("/:id/live", h.handleLive)

	auth := e.Group("/auth")
	auth.POST("/signup", h.handleSignUp)
	auth.POST("/signin", h.handleSignIn)
	auth.GET("/confirm", h.handleConfirm)

	e.GET("/health", h.handleHealth)
}

func (h *Handler) handleListSurveys(c echo.Context) error {
	ctx := c.Request().Context()

	filter := domain.SurveyFilter{CreatorID: c.QueryParam("creator_id")}
	if raw := c.QueryParam("start_date"); raw != "" {
		start, err := parseDate(raw)
		if err != nil {
			return presenter.BadRequestMessage(c, "Invalid start_date")
		}
		filter.StartDate = &start
	}
	if raw := c.QueryParam("end_date"); raw != "" {
		end, err := parseDate(raw)
		if err != nil {
			return presenter.BadRequestMessage(c, "Invalid end_date")
		}
		filter.EndDate = &end
	}

	surveys, err := h.survey.List(ctx, filter)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, surveys)
}

func (h *Handler) handleGetSurvey(c echo.Context) error {
	ctx := c.Request().Context()

	detail, err := h.survey.Get(ctx, c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, detail)
}

func (h *Handler) handleCreateSurvey(c echo.Context) error {
	ctx := c.Request().Context()

	var input usecase.CreateSurveyInput
	if err := c.Bind(&input); err != nil {
		return presenter.BadRequestMessage(c, "Invalid request body")
	}

	survey, err := h.survey.Create(ctx, input)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, "Survey created successfully", survey)
}

func (h *Handler) handleUpdateSurvey(c echo.Context) error {
	ctx := c.Request().Context()

	var input usecase.UpdateSurveyInput
	if err := c.Bind(&input); err != nil {
		return presenter.BadRequestMessage(c, "Invalid request body")
	}

	survey, err := h.survey.Update(ctx, c.Param("id"), input)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OKMessage(c, "Survey updated successfully", survey)
}

func (h *Handler) handleDeleteSurvey(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.survey.Delete(ctx, c.Param("id")); err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OKMessage(c, "Survey and all related data deleted successfully", nil)
}

func (h *Handler) handleAddQuestion(c echo.Context) error {
	ctx := c.Request().Context()

	var input usecase.AddQuestionInput
	if err := c.Bind(&input); err != nil {
		return presenter.BadRequestMessage(c, "Invalid request body")
	}
	input.SurveyID = c.Param("id")

	question, err := h.survey.AddQuestion(ctx, input)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, "Question added successfully", question)
}

func (h *Handler) handleAddOption(c echo.Context) error {
	ctx := c.Request().Context()

	var input usecase.AddOptionInput
	if err := c.Bind(&input); err != nil {
		return presenter.BadRequestMessage(c, "Invalid request body")
	}
	input.QuestionID = c.Param("question_id")

	option, err := h.survey.AddOption(ctx, input)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, "Option added successfully", option)
}

func (h *Handler) handleSubmitResponse(c echo.Context) error {
	ctx := c.Request().Context()

	var input usecase.SubmitResponseInput
	if err := c.Bind(&input); err != nil {
		return presenter.BadRequestMessage(c, "Invalid request body")
	}

	submission, err := h.response.Submit(ctx, input)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, "Response submitted successfully", submission)
}

func (h *Handler) handleCreateAISurvey(c echo.Context) error {
	ctx := c.Request().Context()

	var input usecase.CreateAISurveyInput
	if err := c.Bind(&input); err != nil {
		return presenter.BadRequestMessage(c, "Invalid request body")
	}

	created, err := h.aisurvey.Create(ctx, input)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, "AI Survey created successfully", created)
}

func (h *Handler) handleSignUp(c echo.Context) error {
	ctx := c.Request().Context()

	var input usecase.SignUpInput
	if err := c.Bind(&input); err != nil {
		return presenter.BadRequestMessage(c, "Invalid request body")
	}

	user, err := h.auth.SignUp(ctx, input)
	if err != nil {
		return presenter.Error(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User created successfully", "user": user})
}

func (h *Handler) handleSignIn(c echo.Context) error {
	ctx := c.Request().Context()

	var input usecase.SignInInput
	if err := c.Bind(&input); err != nil {
		return presenter.BadRequestMessage(c, "Invalid request body")
	}

	session, err := h.auth.SignIn(ctx, input)
	if err != nil {
		return presenter.Error(c, err)
	}
	return c.JSON(http.StatusOK, session)
}

func (h *Handler) handleConfirm(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.auth.Confirm(ctx, usecase.ConfirmInput{
		AccessToken:  c.QueryParam("access_token"),
		RefreshToken: c.QueryParam("refresh_token"),
		Type:         c.QueryParam("type"),
	})
	if err != nil {
		return presenter.Error(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Signup confirmation successful", "user": user})
}

func (h *Handler) handleHealth(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.store.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable", "error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, raw)
}
