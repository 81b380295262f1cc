package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"ladder-quiz-service/internal/app"
	"ladder-quiz-service/internal/domain"
)

const (
	userHeader = "X-User-ID"
	userKey    = "user_id"
)

type RESTHandler struct {
	service *app.GameService
}

func NewRESTHandler(service *app.GameService) *RESTHandler {
	return &RESTHandler{service: service}
}

type answerRequest struct {
	Key string `json:"key" binding:"required"`
}

type helpRequest struct {
	Kind domain.HelpKind `json:"kind" binding:"required"`
}

type balanceResponse struct {
	UserID  string `json:"userId"`
	Balance int    `json:"balance"`
}

// Register mounts the game routes on r. Errors are rendered by ErrorHandler.
func (h *RESTHandler) Register(r gin.IRouter) {
	r.GET("/prizes", h.prizes)
	r.GET("/users", h.leaderboard)

	authed := r.Group("/", requireUser())
	authed.POST("/games", h.start)
	authed.GET("/games/active", h.active)
	authed.GET("/games/:id", h.show)
	authed.PUT("/games/:id/answer", h.answer)
	authed.PUT("/games/:id/take_money", h.takeMoney)
	authed.PUT("/games/:id/help", h.help)
	authed.GET("/users/me/games", h.history)
	authed.GET("/users/me/balance", h.balance)
	authed.GET("/users/:id/games", h.playerGames)
}

// requireUser reads the caller id; authentication happens upstream.
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(userHeader)
		if userID == "" {
			_ = c.Error(errMissingUser)
			c.Abort()
			return
		}
		c.Set(userKey, userID)
		c.Next()
	}
}

func (h *RESTHandler) start(c *gin.Context) {
	view, err := h.service.StartGame(c.Request.Context(), c.GetString(userKey))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *RESTHandler) active(c *gin.Context) {
	view, err := h.service.ActiveGame(c.Request.Context(), c.GetString(userKey))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *RESTHandler) show(c *gin.Context) {
	view, err := h.service.Game(c.Request.Context(), c.GetString(userKey), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *RESTHandler) answer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errBadRequest)
		return
	}
	result, err := h.service.Answer(c.Request.Context(), c.GetString(userKey), c.Param("id"), req.Key)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *RESTHandler) takeMoney(c *gin.Context) {
	view, err := h.service.CashOut(c.Request.Context(), c.GetString(userKey), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *RESTHandler) help(c *gin.Context) {
	var req helpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errBadRequest)
		return
	}
	payload, err := h.service.UseHelp(c.Request.Context(), c.GetString(userKey), c.Param("id"), req.Kind)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

func (h *RESTHandler) history(c *gin.Context) {
	views, err := h.service.History(c.Request.Context(), c.GetString(userKey))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if views == nil {
		views = []domain.GameView{}
	}
	c.JSON(http.StatusOK, views)
}

func (h *RESTHandler) playerGames(c *gin.Context) {
	views, err := h.service.PlayerGames(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if views == nil {
		views = []domain.GameView{}
	}
	c.JSON(http.StatusOK, views)
}

// leaderboard ranks players by balance; ?limit= caps the rows.
func (h *RESTHandler) leaderboard(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			_ = c.Error(errBadRequest)
			return
		}
		limit = n
	}
	board, err := h.service.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if board == nil {
		board = []domain.PlayerBalance{}
	}
	c.JSON(http.StatusOK, board)
}

func (h *RESTHandler) balance(c *gin.Context) {
	userID := c.GetString(userKey)
	balance, err := h.service.Balance(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, balanceResponse{UserID: userID, Balance: balance})
}

func (h *RESTHandler) prizes(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Prizes())
}
