package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/learnhub/user-service/internal/logging"
)

// NewRouter wires the handler into a gin engine. Handlers are transport
// agnostic; everything gin-specific (binding, params, status writing) lives
// here.
func NewRouter(h *Handler, m *Metrics, logger logging.Logger, debug bool) *gin.Engine {
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(logger), m.Middleware())

	r.GET("/", func(c *gin.Context) {
		payload, status := h.Index()
		c.JSON(status, payload)
	})

	r.POST("/auth/register", func(c *gin.Context) {
		var req RegisterRequest
		if !bindJSON(c, &req) {
			return
		}
		env, status := h.Register(c.Request.Context(), req)
		c.JSON(status, env)
	})

	r.POST("/auth/login", func(c *gin.Context) {
		var req LoginRequest
		if !bindJSON(c, &req) {
			return
		}
		env, status := h.Login(c.Request.Context(), req)
		c.JSON(status, env)
	})

	r.POST("/auth/verify/send", func(c *gin.Context) {
		var req SendVerificationRequest
		if !bindJSON(c, &req) {
			return
		}
		env, status := h.SendVerification(c.Request.Context(), req)
		c.JSON(status, env)
	})

	r.POST("/auth/verify/check", func(c *gin.Context) {
		var req CheckVerificationRequest
		if !bindJSON(c, &req) {
			return
		}
		env, status := h.CheckVerification(c.Request.Context(), req)
		c.JSON(status, env)
	})

	r.GET("/users", func(c *gin.Context) {
		page := intQuery(c, "page", 1)
		limit := intQuery(c, "limit", 10)
		role := c.Query("role")
		env, status := h.ListUsers(c.Request.Context(), role, page, limit)
		c.JSON(status, env)
	})

	r.GET("/users/:id", func(c *gin.Context) {
		id, ok := userID(c)
		if !ok {
			return
		}
		env, status := h.GetUser(c.Request.Context(), id)
		c.JSON(status, env)
	})

	r.PUT("/users/:id", func(c *gin.Context) {
		id, ok := userID(c)
		if !ok {
			return
		}
		var req UpdateUserRequest
		if !bindJSON(c, &req) {
			return
		}
		env, status := h.UpdateUser(c.Request.Context(), id, req)
		c.JSON(status, env)
	})

	r.GET("/health", func(c *gin.Context) {
		payload, status := h.Health(c.Request.Context())
		c.JSON(status, payload)
	})
	r.GET("/health/ready", func(c *gin.Context) {
		payload, status := h.Ready(c.Request.Context())
		c.JSON(status, payload)
	})
	r.GET("/health/live", func(c *gin.Context) {
		payload, status := h.Live(c.Request.Context())
		c.JSON(status, payload)
	})

	r.GET("/metrics", m.HTTPHandler())

	return r
}

// bindJSON decodes the body into dst, answering 400 on malformed input.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, fail("Invalid JSON body"))
		return false
	}
	return true
}

// userID parses the :id path param. Non-numeric ids are reported the same way
// as unknown ones so the route does not leak its id scheme.
func userID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, fail("User not found"))
		return 0, false
	}
	return id, true
}

// intQuery reads an integer query param, falling back to def when the param is
// absent or malformed.
func intQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
