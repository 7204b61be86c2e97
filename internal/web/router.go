package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Skufu/rehabassist/internal/catalog"
	"github.com/Skufu/rehabassist/internal/report"
	"github.com/Skufu/rehabassist/internal/wizard"
)

//go:embed templates/*.html
var templateFS embed.FS

// HealthChecker is satisfied by *pgxpool.Pool.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Catalog     *catalog.Catalog
	AssetsDir   string
	CORSOrigins []string
	DB          HealthChecker
	Logger      zerolog.Logger
}

type Handler struct {
	catalog *catalog.Catalog
	wizard  *wizard.Controller
	db      HealthChecker
	logger  zerolog.Logger
}

const picturesPrefix = "pictures"

func NewRouter(d Deps) *gin.Engine {
	h := &Handler{
		catalog: d.Catalog,
		wizard:  wizard.NewController(d.Catalog, report.ImageResolver{Dir: d.AssetsDir, URLPrefix: picturesPrefix}),
		db:      d.DB,
		logger:  d.Logger,
	}

	corsConfig := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", requestIDHeader},
		MaxAge:       12 * time.Hour,
	}
	if len(d.CORSOrigins) == 0 || slices.Contains(d.CORSOrigins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = d.CORSOrigins
	}

	router := gin.New()
	router.Use(
		RequestID(),
		Logger(d.Logger),
		gin.Recovery(),
		limitBodySize(1<<20), // 1MB max body
		cors.New(corsConfig),
	)

	router.SetHTMLTemplate(template.Must(template.New("").ParseFS(templateFS, "templates/*.html")))
	router.Static("/"+picturesPrefix, d.AssetsDir)

	h.RegisterHandler(router)
	return router
}

func (h *Handler) RegisterHandler(router *gin.Engine) {
	router.GET("/", h.GetWizard)
	router.POST("/", h.GetWizard)
	router.GET("/report.pdf", h.DownloadReport)

	router.GET("/healthz", h.Healthz)
	router.GET("/readyz", h.Readyz)

	api := router.Group("/api")
	api.GET("/symptoms", h.ListSymptoms)
	api.GET("/symptoms/:id/tests", h.ListTests)
	api.POST("/diagnostics", h.Diagnose)
}

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) Readyz(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "disabled", "catalog": h.catalog.Counts()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "degraded",
			"db":     "unhealthy: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "ok", "catalog": h.catalog.Counts()})
}
