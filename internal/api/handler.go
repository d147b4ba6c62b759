package api

import (
	"bytes"
	"net/http"

	"github.com/jdav-kompass/kompass/internal/auth"
	"github.com/jdav-kompass/kompass/internal/service"
	"github.com/jdav-kompass/kompass/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const mimeTextCSV = "text/csv; charset=utf-8"

type Handler struct {
	members    *service.MemberService
	statements *service.StatementService
	mail       *service.MailService

	tokens         *auth.Tokens
	healthChecker  HealthChecker
	metricsHandler http.Handler

	logger *zap.Logger
}

func NewHandler(logger *zap.Logger, tokens *auth.Tokens) *Handler {
	return &Handler{
		logger: logger,
		tokens: tokens,
	}
}

func (h *Handler) WithHealthChecker(c HealthChecker) *Handler {
	h.healthChecker = c
	return h
}

func (h *Handler) WithMetricsHandler(m http.Handler) *Handler {
	h.metricsHandler = m
	return h
}

func (h *Handler) WithMemberService(members *service.MemberService) *Handler {
	h.members = members
	return h
}

func (h *Handler) WithStatementService(statements *service.StatementService) *Handler {
	h.statements = statements
	return h
}

func (h *Handler) WithMailService(mail *service.MailService) *Handler {
	h.mail = mail
	return h
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.Validator = NewValidator()
	e.Use(middleware.RequestID())
	e.Use(ZapLoggerMiddleware(h.logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	if h.healthChecker != nil {
		e.GET("/health", h.healthChecker.HealthCheck())
	}
	if h.metricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(h.metricsHandler))
	}

	userSecurity := e.Group("", AuthMiddleware(h.tokens, auth.TokenTypeUser, auth.TokenTypeAdmin))

	userSecurity.GET("/groups", h.ListGroups)
	userSecurity.GET("/statements/:id", h.GetStatement)
	userSecurity.PATCH("/statements/:id", h.UpdateStatement)
	userSecurity.POST("/statements/:id/submit", h.SubmitStatement)

	adminSecurity := e.Group("", AuthMiddleware(h.tokens, auth.TokenTypeAdmin))

	adminSecurity.POST("/members/import", h.ImportMembers)
	adminSecurity.GET("/members/export", h.ExportMembers)
	adminSecurity.GET("/members/:id", h.GetMember)
	adminSecurity.DELETE("/members/:id", h.DeleteMember)
	adminSecurity.GET("/mail/forward", h.ResolveForward)
	adminSecurity.GET("/mail/echo", h.EchoDrafts)
}

type importRequest struct {
	Atomic      bool `query:"atomic"`
	SkipInvalid bool `query:"skip_invalid"`
}

func (h *Handler) ImportMembers(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req importRequest
	if err := ProcessRequest(e, &req, bindQuery[importRequest]); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("importing members", zap.Bool("atomic", req.Atomic), zap.Bool("skip_invalid", req.SkipInvalid))

	res, err := h.members.ImportCSV(e.Request().Context(), e.Request().Body, service.ImportOptions{
		Atomic:      req.Atomic,
		SkipInvalid: req.SkipInvalid,
	})
	if err != nil {
		l.Error("failed to import members", zap.Any("error", err))
		if res == nil {
			return h.transportError(e, err)
		}
		return e.JSON(statusFor(err.Code), struct {
			Error  *service.Error        `json:"error"`
			Result *service.ImportResult `json:"result"`
		}{Error: err, Result: res})
	}

	return e.JSON(http.StatusOK, res)
}

type exportRequest struct {
	Group         string `query:"group"`
	ContactGroups int    `query:"contact_groups" validate:"gte=0,lte=50"`
}

func (h *Handler) ExportMembers(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req exportRequest
	if err := ProcessRequest(e, &req, bindQuery[exportRequest], validateRequest[exportRequest]); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("exporting members", zap.String("group", req.Group), zap.Int("contact_groups", req.ContactGroups))

	var buf bytes.Buffer
	if err := h.members.ExportCSV(e.Request().Context(), &buf, service.ExportOptions{
		GroupName:     req.Group,
		ContactGroups: req.ContactGroups,
	}); err != nil {
		l.Error("failed to export members", zap.Any("error", err))
		return h.transportError(e, err)
	}

	e.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="members.csv"`)
	return e.Blob(http.StatusOK, mimeTextCSV, buf.Bytes())
}

type memberRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (h *Handler) GetMember(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req memberRequest
	if err := ProcessRequest(e, &req, bindPath[memberRequest], validateRequest[memberRequest]); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	member, err := h.members.GetMember(e.Request().Context(), req.ID)
	if err != nil {
		l.Error("failed to get member", zap.String("member_id", req.ID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, member)
}

func (h *Handler) DeleteMember(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req memberRequest
	if err := ProcessRequest(e, &req, bindPath[memberRequest], validateRequest[memberRequest]); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("deleting member", zap.String("member_id", req.ID))

	if err := h.members.DeleteMember(e.Request().Context(), req.ID); err != nil {
		l.Error("failed to delete member", zap.String("member_id", req.ID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.NoContent(http.StatusNoContent)
}

func (h *Handler) ListGroups(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	groups, err := h.members.ListGroups(e.Request().Context())
	if err != nil {
		l.Error("failed to list groups", zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, groups)
}

type statementRequest struct {
	ID int64 `param:"id" validate:"required,gt=0"`
}

func (h *Handler) GetStatement(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req statementRequest
	if err := ProcessRequest(e, &req, bindPath[statementRequest], validateRequest[statementRequest]); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	actor := ActorFromContext(e.Request().Context())

	statement, err := h.statements.GetStatement(e.Request().Context(), actor, req.ID)
	if err != nil {
		l.Error("failed to get statement", zap.Int64("statement_id", req.ID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, statement)
}

func (h *Handler) SubmitStatement(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req statementRequest
	if err := ProcessRequest(e, &req, bindPath[statementRequest], validateRequest[statementRequest]); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	actor := ActorFromContext(e.Request().Context())

	l.Info("submitting statement", zap.Int64("statement_id", req.ID), zap.String("member_id", actor.MemberID))

	statement, err := h.statements.SubmitStatement(e.Request().Context(), actor, req.ID)
	if err != nil {
		l.Error("failed to submit statement", zap.Int64("statement_id", req.ID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, statement)
}

type updateStatementRequest struct {
	ID               int64  `param:"id" validate:"required,gt=0"`
	ShortDescription string `json:"short_description" validate:"required,max=100"`
}

func (h *Handler) UpdateStatement(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req updateStatementRequest
	if err := ProcessRequest(e, &req, bindPath[updateStatementRequest], bindBody[updateStatementRequest], validateRequest[updateStatementRequest]); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	actor := ActorFromContext(e.Request().Context())

	statement, err := h.statements.UpdateStatement(e.Request().Context(), actor, req.ID, req.ShortDescription)
	if err != nil {
		l.Error("failed to update statement", zap.Int64("statement_id", req.ID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, statement)
}

type forwardRequest struct {
	Local string `query:"local" validate:"required"`
}

func (h *Handler) ResolveForward(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req forwardRequest
	if err := ProcessRequest(e, &req, bindQuery[forwardRequest], validateRequest[forwardRequest]); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	forward, err := h.mail.ResolveForward(e.Request().Context(), req.Local)
	if err != nil {
		l.Info("forward not resolved", zap.String("local", req.Local), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, forward)
}

type echoRequest struct {
	Group string `query:"group"`
}

func (h *Handler) EchoDrafts(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req echoRequest
	if err := ProcessRequest(e, &req, bindQuery[echoRequest]); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	drafts, err := h.mail.EchoDrafts(e.Request().Context(), req.Group)
	if err != nil {
		l.Error("failed to render echo drafts", zap.String("group", req.Group), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, drafts)
}

type errorResponse struct {
	Error *service.Error `json:"error"`
}

func statusFor(code service.ErrorCode) int {
	switch code {
	case service.ErrorCodeNotFound:
		return http.StatusNotFound
	case service.ErrorCodeInvalidBody:
		return http.StatusBadRequest
	case service.ErrorCodeInvalidCSV:
		return http.StatusUnprocessableEntity
	case service.ErrorCodeForbidden:
		return http.StatusForbidden
	case service.ErrorCodeUnauthorized:
		return http.StatusUnauthorized
	case service.ErrorCodeAlreadySubmitted:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) transportError(e echo.Context, err *service.Error) error {
	return e.JSON(statusFor(err.Code), errorResponse{Error: err})
}
