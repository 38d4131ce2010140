package http

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"chesskit/internal/server/core"
	"chesskit/internal/server/processor"
	"chesskit/internal/server/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const rateLimitRate = 10 // req/sec

// HTTPHandler routes HTTP requests to the processor.
type HTTPHandler struct {
	proc *processor.Processor
	svc  *service.Service
}

func NewHTTPHandler(proc *processor.Processor, svc *service.Service) *HTTPHandler {
	return &HTTPHandler{proc: proc, svc: svc}
}

func NewFiberApp(proc *processor.Processor, svc *service.Service, devMode bool) *fiber.App {
	h := NewHTTPHandler(proc, svc)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	})

	// Global middleware (order matters)
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Health check (no rate limit)
	app.Get("/health", h.Health)

	api := app.Group("/api/v1")

	// Auth routes with per-IP rate limits
	auth := api.Group("/auth")
	auth.Post("/register", perIPLimiter(5, time.Minute, "5 registrations per minute allowed"), h.RegisterHandler)
	auth.Post("/login", perIPLimiter(10, time.Minute, "10 login attempts per minute allowed"), h.LoginHandler)

	validateToken := svc.ValidateToken
	auth.Get("/me", AuthRequired(validateToken), h.GetCurrentUserHandler)
	auth.Post("/logout", AuthRequired(validateToken), h.LogoutHandler)

	// Game routes with standard rate limiting
	maxReq := rateLimitRate
	if devMode {
		maxReq = rateLimitRate * 2
	}
	api.Use(limiter.New(limiter.Config{
		Max:        maxReq,
		Expiration: 1 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			if xff := c.Get("X-Forwarded-For"); xff != "" {
				if idx := strings.Index(xff, ","); idx != -1 {
					return strings.TrimSpace(xff[:idx])
				}
				return xff
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
				Error:   "rate limit exceeded",
				Code:    core.ErrRateLimitExceeded,
				Details: fmt.Sprintf("%d requests per second allowed", maxReq),
			})
		},
	}))

	api.Use(contentTypeValidator)
	api.Use(validationMiddleware)

	api.Post("/games", OptionalAuth(validateToken), h.CreateGame)
	api.Put("/games/:gameId/players", h.ConfigurePlayers)
	api.Get("/games/:gameId", h.GetGame)
	api.Delete("/games/:gameId", h.DeleteGame)
	api.Post("/games/:gameId/moves", OptionalAuth(validateToken), h.MakeMove)
	api.Get("/games/:gameId/moves/:square", h.GetLegalMoves)
	api.Post("/games/:gameId/undo", h.UndoMove)
	api.Get("/games/:gameId/board", h.GetBoard)

	return app
}

// perIPLimiter builds a fixed-window limiter keyed on the client IP.
func perIPLimiter(max int, window time.Duration, details string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
				Error:   "rate limit exceeded",
				Code:    core.ErrRateLimitExceeded,
				Details: details,
			})
		},
	})
}

// contentTypeValidator ensures POST and PUT requests carry application/json
func contentTypeValidator(c *fiber.Ctx) error {
	method := c.Method()
	if method == fiber.MethodPost || method == fiber.MethodPut {
		contentType := c.Get("Content-Type")
		if contentType != "application/json" && contentType != "" {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(core.ErrorResponse{
				Error:   "unsupported media type",
				Code:    core.ErrInvalidContent,
				Details: "Content-Type must be application/json",
			})
		}
	}
	return c.Next()
}

// customErrorHandler provides consistent error responses
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	response := core.ErrorResponse{
		Error: "internal server error",
		Code:  core.ErrInternalError,
	}

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		response.Error = e.Message

		switch code {
		case fiber.StatusNotFound:
			response.Code = core.ErrGameNotFound
		case fiber.StatusBadRequest:
			response.Code = core.ErrInvalidRequest
		case fiber.StatusTooManyRequests:
			response.Code = core.ErrRateLimitExceeded
		}
	}

	return c.Status(code).JSON(response)
}

// requireGameID validates the gameId path parameter, writing the error
// response itself when the ID is malformed.
func requireGameID(c *fiber.Ctx) (string, bool) {
	gameID := c.Params("gameId")
	if !isValidUUID(gameID) {
		_ = c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid game ID format",
			Code:    core.ErrInvalidRequest,
			Details: "game ID must be a valid UUID",
		})
		return "", false
	}
	return gameID, true
}

// requireValidatedBody retrieves the body parsed by validationMiddleware.
// A missing body means the middleware was bypassed, which is a server bug.
func requireValidatedBody[T any](c *fiber.Ctx) (T, bool) {
	var zero T

	validated, ok := c.Locals("validated").(bool)
	if !ok || !validated {
		_ = c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error: "validation bypass detected",
			Code:  core.ErrInternalError,
		})
		return zero, false
	}

	body, ok := c.Locals("validatedBody").(*T)
	if !ok || body == nil {
		_ = c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error: "validation data missing",
			Code:  core.ErrInternalError,
		})
		return zero, false
	}
	return *body, true
}

// Health reports service and storage health
func (h *HTTPHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"time":    time.Now().Unix(),
		"storage": h.svc.GetStorageHealth(),
	})
}

// CreateGame creates a new game with the requested player types
func (h *HTTPHandler) CreateGame(c *fiber.Ctx) error {
	req, ok := requireValidatedBody[core.CreateGameRequest](c)
	if !ok {
		return nil
	}

	// Associate the game with the authenticated user when present
	userID, _ := c.Locals("userID").(string)

	cmd := processor.NewCreateGameCommand(req)
	cmd.UserID = userID

	resp := h.proc.Execute(cmd)
	if !resp.Success {
		return c.Status(fiber.StatusBadRequest).JSON(resp.Error)
	}

	return c.Status(fiber.StatusCreated).JSON(resp.Data)
}

// ConfigurePlayers updates player configuration mid-game
func (h *HTTPHandler) ConfigurePlayers(c *fiber.Ctx) error {
	gameID, ok := requireGameID(c)
	if !ok {
		return nil
	}

	req, ok := requireValidatedBody[core.ConfigurePlayersRequest](c)
	if !ok {
		return nil
	}

	resp := h.proc.Execute(processor.NewConfigurePlayersCommand(gameID, req))
	if !resp.Success {
		statusCode := fiber.StatusBadRequest
		if resp.Error.Code == core.ErrGameNotFound {
			statusCode = fiber.StatusNotFound
		}
		return c.Status(statusCode).JSON(resp.Error)
	}

	return c.JSON(resp.Data)
}

// GetGame retrieves current game state, optionally long-polling until
// the move count changes
func (h *HTTPHandler) GetGame(c *fiber.Ctx) error {
	gameID, ok := requireGameID(c)
	if !ok {
		return nil
	}

	waitStr := c.Query("wait", "false")
	moveCountStr := c.Query("moveCount", "-1")

	if waitStr != "true" {
		resp := h.proc.Execute(processor.NewGetGameCommand(gameID))
		if !resp.Success {
			return c.Status(fiber.StatusNotFound).JSON(resp.Error)
		}
		return c.JSON(resp.Data)
	}

	moveCount, err := strconv.Atoi(moveCountStr)
	if err != nil {
		moveCount = -1
	}

	g, err := h.svc.GetGame(gameID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(core.ErrorResponse{
			Error: "game not found",
			Code:  core.ErrGameNotFound,
		})
	}

	// Return immediately when the client is already behind
	if moveCount != len(g.Moves()) {
		resp := h.proc.Execute(processor.NewGetGameCommand(gameID))
		if !resp.Success {
			return c.Status(fiber.StatusNotFound).JSON(resp.Error)
		}
		return c.JSON(resp.Data)
	}

	ctx := c.Context()
	notify := h.svc.RegisterWait(gameID, moveCount, ctx)

	select {
	case <-notify:
		// Game might have been deleted while waiting
		resp := h.proc.Execute(processor.NewGetGameCommand(gameID))
		if !resp.Success {
			return c.Status(fiber.StatusNotFound).JSON(resp.Error)
		}
		return c.JSON(resp.Data)

	case <-ctx.Done():
		// Client disconnected
		return nil
	}
}

// MakeMove submits a move in coordinate notation
func (h *HTTPHandler) MakeMove(c *fiber.Ctx) error {
	gameID, ok := requireGameID(c)
	if !ok {
		return nil
	}

	req, ok := requireValidatedBody[core.MoveRequest](c)
	if !ok {
		return nil
	}

	userID, _ := c.Locals("userID").(string)

	cmd := processor.NewMakeMoveCommand(gameID, req)
	cmd.UserID = userID

	resp := h.proc.Execute(cmd)
	if !resp.Success {
		statusCode := fiber.StatusBadRequest
		switch resp.Error.Code {
		case core.ErrGameNotFound:
			statusCode = fiber.StatusNotFound
		case core.ErrUnauthorized:
			statusCode = fiber.StatusForbidden
		}
		return c.Status(statusCode).JSON(resp.Error)
	}

	return c.JSON(resp.Data)
}

// GetLegalMoves lists the legal destinations for the piece on a square
func (h *HTTPHandler) GetLegalMoves(c *fiber.Ctx) error {
	gameID, ok := requireGameID(c)
	if !ok {
		return nil
	}

	square := c.Params("square")
	if len(square) != 2 {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid square",
			Code:    core.ErrInvalidRequest,
			Details: "square must be file and rank, e.g. e2",
		})
	}

	resp := h.proc.Execute(processor.NewLegalMovesCommand(gameID, square))
	if !resp.Success {
		statusCode := fiber.StatusBadRequest
		if resp.Error.Code == core.ErrGameNotFound {
			statusCode = fiber.StatusNotFound
		}
		return c.Status(statusCode).JSON(resp.Error)
	}

	return c.JSON(resp.Data)
}

// UndoMove rolls back one or more moves
func (h *HTTPHandler) UndoMove(c *fiber.Ctx) error {
	gameID, ok := requireGameID(c)
	if !ok {
		return nil
	}

	req, ok := requireValidatedBody[core.UndoRequest](c)
	if !ok {
		return nil
	}

	resp := h.proc.Execute(processor.NewUndoMoveCommand(gameID, req))
	if !resp.Success {
		statusCode := fiber.StatusBadRequest
		if resp.Error.Code == core.ErrGameNotFound {
			statusCode = fiber.StatusNotFound
		}
		return c.Status(statusCode).JSON(resp.Error)
	}

	return c.JSON(resp.Data)
}

// DeleteGame ends and cleans up a game
func (h *HTTPHandler) DeleteGame(c *fiber.Ctx) error {
	gameID, ok := requireGameID(c)
	if !ok {
		return nil
	}

	resp := h.proc.Execute(processor.NewDeleteGameCommand(gameID))
	if !resp.Success {
		return c.Status(fiber.StatusNotFound).JSON(resp.Error)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetBoard returns an ASCII rendering of the board
func (h *HTTPHandler) GetBoard(c *fiber.Ctx) error {
	gameID, ok := requireGameID(c)
	if !ok {
		return nil
	}

	resp := h.proc.Execute(processor.NewGetBoardCommand(gameID))
	if !resp.Success {
		return c.Status(fiber.StatusNotFound).JSON(resp.Error)
	}

	return c.JSON(resp.Data)
}
