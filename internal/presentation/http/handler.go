package httppresentation

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appcatalog "github.com/Zhima-Mochi/minishop-storebot/internal/application/catalog"
	domcatalog "github.com/Zhima-Mochi/minishop-storebot/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storebot/internal/observability"
	"github.com/Zhima-Mochi/minishop-storebot/internal/observability/logctx"
)

const componentHTTPHandler = "http_server"

// Handler serves the operational surface: health, metrics and a read-only
// view of the catalog.
type Handler struct {
	catalog  *appcatalog.Service
	gatherer prometheus.Gatherer
	log      observability.Logger
	tel      observability.Observability
}

func NewHandler(catalog *appcatalog.Service, gatherer prometheus.Gatherer, tel observability.Observability) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Handler{
		catalog:  catalog,
		gatherer: gatherer,
		log:      tel.Logger().With(observability.F("component", componentHTTPHandler)),
		tel:      tel,
	}
}

// Router wires Trace → RequestLogger → HTTPMetrics → AccessLog → handler.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		Trace(h.tel),
		RequestLogger(h.log),
		HTTPMetrics(h.tel),
		AccessLog(h.log),
	)

	r.GET("/health", h.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	{
		api.GET("/categories", h.handleCategories)
		api.GET("/products", h.handleProducts)
	}
	return r
}

type productResponse struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Category    string `json:"category"`
	Stock       int    `json:"stock"`
}

func toProductResponse(p *domcatalog.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Description: p.Description,
		Image:       p.Image,
		Category:    p.Category,
		Stock:       p.Stock,
	}
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) handleCategories(c *gin.Context) {
	categories, err := h.catalog.Categories(c.Request.Context())
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// handleProducts lists every product, or one category's when ?category= is set.
func (h *Handler) handleProducts(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		products []*domcatalog.Product
		err      error
	)
	if category := c.Query("category"); category != "" {
		exists, cerr := h.catalog.CategoryExists(ctx, category)
		if cerr != nil {
			h.internalError(c, cerr)
			return
		}
		if !exists {
			c.JSON(http.StatusNotFound, gin.H{"error": domcatalog.ErrUnknownCategory.Error()})
			return
		}
		products, err = h.catalog.ProductsByCategory(ctx, category)
	} else {
		products, err = h.catalog.Products(ctx)
	}
	if err != nil {
		h.internalError(c, err)
		return
	}

	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	c.JSON(http.StatusOK, gin.H{"products": out})
}

func (h *Handler) internalError(c *gin.Context, err error) {
	logctx.FromOr(c.Request.Context(), h.log).Error("http_handler_error", observability.Err(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
