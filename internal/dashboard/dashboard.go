// Package dashboard is the admin dashboard backend. It serves JSON view models
// to the browser and talks to the procurement API only through the typed client.
package dashboard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"procurement/internal/access"
	"procurement/internal/activity"
	"procurement/internal/client"
	"procurement/internal/form"
	"procurement/internal/lifecycle"
	"procurement/internal/querycache"
	"procurement/internal/wizard"

	"github.com/gin-gonic/gin"
)

const (
	tokenCookie = "access_token"

	ctxSession = "dashboardSession"
	ctxPerms   = "dashboardPermissions"
	ctxMe      = "dashboardMe"
)

// Backend is everything the screens call on a user's API session.
// *client.Session satisfies it.
type Backend interface {
	wizard.Backend
	lifecycle.Backend
	activity.Backend

	Me(ctx context.Context) (client.Me, error)
	ListRFQs(ctx context.Context, p client.ListParams) (client.Page[client.RFQ], error)
	ListSuppliers(ctx context.Context, p client.ListParams) (client.Page[client.Supplier], error)
	ListProducts(ctx context.Context, p client.ListParams) (client.Page[client.Product], error)
	ListUsers(ctx context.Context, p client.ListParams) (client.Page[client.User], error)
	Statistics(ctx context.Context, startDate, endDate string) (client.Statistics, error)
}

// Connector logs users in and opens sessions for their tokens
type Connector interface {
	Login(ctx context.Context, req client.LoginRequest) (client.Token, error)
	Session(token string) Backend
}

type apiConnector struct {
	*client.Client
}

func (a apiConnector) Session(token string) Backend { return a.As(token) }

// Connect adapts the REST client to a Connector
func Connect(c *client.Client) Connector { return apiConnector{c} }

type Handler struct {
	conn    Connector
	cache   *querycache.Cache
	secure  bool
	now     func() time.Time
	wsDelay time.Duration
}

func NewHandler(conn Connector, cache *querycache.Cache, secureCookies bool) *Handler {
	return &Handler{conn: conn, cache: cache, secure: secureCookies, now: time.Now, wsDelay: activity.SearchDelay}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	d := r.Group("/dashboard")
	d.POST("/login", h.Login)
	d.POST("/logout", h.Logout)

	g := d.Group("", h.Guard())
	g.GET("/me", h.Me)

	g.GET("/rfqs", Require("read_rfq"), h.ListRFQs)
	g.POST("/rfqs/:id/move-to-evaluation", Require("update_rfq"), h.MoveToEvaluation)
	g.POST("/rfqs/:id/cancel", Require("update_rfq"), h.Cancel)
	g.POST("/rfqs/:id/close", Require("update_rfq"), h.Close)

	g.GET("/rfqs/wizard/new", Require("create_rfq"), h.WizardNew)
	g.POST("/rfqs/wizard/general", Require("create_rfq"), h.WizardCreate)
	g.GET("/rfqs/wizard/:id", Require("read_rfq"), h.WizardShow)
	g.PUT("/rfqs/wizard/:id/general", Require("update_rfq"), h.WizardUpdateGeneral)
	g.POST("/rfqs/wizard/:id/products", Require("update_rfq"), h.WizardProducts)
	g.POST("/rfqs/wizard/:id/publish", Require("publish_rfq"), h.WizardPublish)

	g.GET("/rfqs/:id/quotations", Require("read_quotation"), h.Quotations)
	g.POST("/quotations/:id/accept", Require("update_quotation"), h.Accept)
	g.POST("/quotations/:id/reject", Require("update_quotation"), h.Reject)
	g.POST("/quotations/:id/evaluate", Require("evaluate_quotation"), h.Evaluate)
	g.POST("/quotations/:id/award", Require("award_quotation"), h.Award)
	g.GET("/rfqs/:id/evaluations", Require("read_evaluation"), h.Evaluations)
	g.POST("/evaluations/:id/shortlist", Require("shortlist_evaluation"), h.Shortlist)

	g.GET("/activity/:kind/:id", Require("read_activity_log"), h.Activity)
	g.GET("/ws/activity/:kind/:id", Require("read_activity_log"), h.ActivityLive)

	g.GET("/statistics", Require("read_rfq", "read_quotation"), h.Statistics)
	g.GET("/export/:resource", h.Export)
}

// --- auth ---

func (h *Handler) Login(c *gin.Context) {
	var req client.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	errs := form.Errors{}
	if strings.TrimSpace(req.Username) == "" {
		errs["username"] = "Username is required"
	}
	if req.Password == "" {
		errs["password"] = "Password is required"
	}
	if len(errs) > 0 {
		fail(c, errs)
		return
	}

	tok, err := h.conn.Login(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	maxAge := tok.ExpiresAt.Sub(h.now())
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(tokenCookie, tok.AccessToken, int(maxAge.Seconds()), "/", "", h.secure, true)
	c.JSON(http.StatusOK, gin.H{"user": tok.User, "expires_at": tok.ExpiresAt})
}

func (h *Handler) Logout(c *gin.Context) {
	if tok := tokenOf(c); tok != "" {
		h.cache.Invalidate(sessionResource(tok))
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(tokenCookie, "", -1, "/", "", h.secure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *Handler) Me(c *gin.Context) {
	me := c.MustGet(ctxMe).(client.Me)
	c.JSON(http.StatusOK, gin.H{
		"user":        me.User,
		"permissions": me.Permissions,
		"groups":      access.GroupByResource(me.Permissions),
	})
}

func tokenOf(c *gin.Context) string {
	if tok, err := c.Cookie(tokenCookie); err == nil && tok != "" {
		return tok
	}
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return c.Query("token")
}

// sessions are cached by a digest so tokens never appear in cache keys
func sessionResource(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "session/" + hex.EncodeToString(sum[:8])
}

// Guard resolves the caller's permission set from /api/auth/me
func (h *Handler) Guard() gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := tokenOf(c)
		if tok == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not logged in"})
			return
		}
		sess := h.conn.Session(tok)
		me, err := querycache.Fetch(c.Request.Context(), h.cache, sessionResource(tok), nil, sess.Me)
		if err != nil {
			if client.StatusOf(err) == http.StatusUnauthorized {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": client.MessageOf(err)})
				return
			}
			fail(c, err)
			c.Abort()
			return
		}
		c.Set(ctxSession, sess)
		c.Set(ctxMe, me)
		c.Set(ctxPerms, access.NewSet(me.Permissions...))
		c.Next()
	}
}

// Require blocks the screen unless every permission is held
func Require(perms ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		set, _ := c.MustGet(ctxPerms).(access.Set)
		if !access.Allows(set, perms...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":     "You do not have permission to view this page",
				"forbidden": true,
				"required":  perms,
			})
			return
		}
		c.Next()
	}
}

func permsOf(c *gin.Context) access.Set {
	set, _ := c.MustGet(ctxPerms).(access.Set)
	return set
}

func session(c *gin.Context) Backend {
	return c.MustGet(ctxSession).(Backend)
}

// --- errors ---

// fail maps an error onto the three shapes the browser understands:
// field errors, not found, and a one-shot toast message.
func fail(c *gin.Context, err error) {
	var (
		fe     form.Errors
		apiErr *client.APIError
	)
	switch {
	case errors.As(err, &fe):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Please fix the highlighted fields", "fields": fe})
	case errors.Is(err, wizard.ErrReadOnly), errors.Is(err, wizard.ErrStepUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "toast": true})
	case errors.As(err, &apiErr):
		switch {
		case apiErr.Status == http.StatusNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": client.MessageOf(err), "not_found": true})
		case apiErr.Status == http.StatusUnprocessableEntity && len(apiErr.Fields) > 0:
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": client.MessageOf(err), "fields": apiErr.Fields})
		case apiErr.Status == 0 || apiErr.Status >= 500:
			log.Printf("dashboard %s %s: %v", c.Request.Method, c.FullPath(), err)
			c.JSON(http.StatusBadGateway, gin.H{"error": client.MessageOf(err), "toast": true})
		default:
			c.JSON(apiErr.Status, gin.H{"error": client.MessageOf(err), "toast": true})
		}
	default:
		log.Printf("dashboard %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": client.FallbackMessage, "toast": true})
	}
}
