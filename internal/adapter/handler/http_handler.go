package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/myatthu/stallkeeper/internal/core/domain"
	"github.com/myatthu/stallkeeper/internal/core/service"
)

type HTTPHandler struct {
	auth      *service.AuthService
	inventory *service.InventoryService
	sales     *service.SalesService
	activity  *service.ActivityService
	logger    *logrus.Logger
}

func NewHTTPHandler(auth *service.AuthService, inventory *service.InventoryService, sales *service.SalesService, activity *service.ActivityService, logger *logrus.Logger) *HTTPHandler {
	return &HTTPHandler{
		auth:      auth,
		inventory: inventory,
		sales:     sales,
		activity:  activity,
		logger:    logger,
	}
}

// NewRouter builds the gin engine for the single-page client.
func NewRouter(h *HTTPHandler, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if len(allowedOrigins) > 0 {
		corsCfg.AllowOrigins = allowedOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	r.Use(cors.New(corsCfg))

	r.GET("/health", h.HealthCheck)

	api := r.Group("/api")
	api.POST("/auth/signup", h.Signup)
	api.POST("/auth/login", h.Login)

	authed := api.Group("", h.AuthRequired())
	authed.POST("/auth/logout", h.Logout)

	authed.GET("/items", h.ListItems)
	authed.POST("/items", h.CreateItem)
	authed.PUT("/items/:id", h.UpdateItem)
	authed.DELETE("/items/:id", h.DeleteItem)
	authed.POST("/items/:id/sell", h.Sell)

	authed.GET("/sales", h.ListSales)
	authed.GET("/sales/summary", h.EarningsSummary)
	authed.DELETE("/sales/:id", h.UndoSale)
	authed.POST("/sales/reset", h.ResetCategory)

	authed.GET("/activities", h.ListActivities)
	authed.DELETE("/activities", h.ResetActivities)

	return r
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type itemRequest struct {
	Name     string `json:"name" binding:"required"`
	Quantity int    `json:"quantity" binding:"gte=0"`
	Price    string `json:"price" binding:"required"`
	Category string `json:"category" binding:"required"`
	ImageURL string `json:"image_url"`
}

type sellRequest struct {
	RequestID string `json:"request_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gte=1"`
}

type resetRequest struct {
	Category string `json:"category" binding:"required"`
}

type itemResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	Price     string    `json:"price"`
	Category  string    `json:"category"`
	ImageURL  string    `json:"image_url,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type saleResponse struct {
	ID              string    `json:"id"`
	ItemID          string    `json:"item_id,omitempty"`
	ItemName        string    `json:"item_name"`
	QuantityReduced int       `json:"quantity_reduced"`
	Earned          string    `json:"earned"`
	Category        string    `json:"category"`
	Timestamp       time.Time `json:"timestamp"`
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HTTPHandler) Signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	user, err := h.auth.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "email": user.Email})
}

func (h *HTTPHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	token, user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  gin.H{"id": user.ID, "email": user.Email},
	})
}

func (h *HTTPHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), sessionID(c)); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

func (h *HTTPHandler) ListItems(c *gin.Context) {
	includeDepleted := c.Query("include_depleted") == "true"
	items, err := h.inventory.ListItems(c.Request.Context(), userID(c), domain.Category(c.Query("category")), includeDepleted)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]itemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toItemResponse(item))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HTTPHandler) CreateItem(c *gin.Context) {
	in, ok := h.bindItem(c)
	if !ok {
		return
	}

	item, err := h.inventory.CreateItem(c.Request.Context(), userID(c), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toItemResponse(*item))
}

func (h *HTTPHandler) UpdateItem(c *gin.Context) {
	in, ok := h.bindItem(c)
	if !ok {
		return
	}

	item, err := h.inventory.UpdateItem(c.Request.Context(), userID(c), c.Param("id"), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toItemResponse(*item))
}

func (h *HTTPHandler) DeleteItem(c *gin.Context) {
	if err := h.inventory.DeleteItem(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "item deleted"})
}

func (h *HTTPHandler) Sell(c *gin.Context) {
	var req sellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request_id and a positive quantity are required"})
		return
	}

	sale, err := h.sales.Sell(c.Request.Context(), userID(c), c.Param("id"), req.RequestID, req.Quantity)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSaleResponse(*sale))
}

func (h *HTTPHandler) ListSales(c *gin.Context) {
	sales, err := h.sales.ListSales(c.Request.Context(), userID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]saleResponse, 0, len(sales))
	for _, sale := range sales {
		resp = append(resp, toSaleResponse(sale))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HTTPHandler) EarningsSummary(c *gin.Context) {
	earnings, err := h.sales.Earnings(c.Request.Context(), userID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]gin.H, 0, len(earnings))
	for _, e := range earnings {
		resp = append(resp, gin.H{
			"category": e.Category,
			"sales":    e.Sales,
			"units":    e.Units,
			"total":    e.Total.StringFixed(2),
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HTTPHandler) UndoSale(c *gin.Context) {
	result, err := h.sales.UndoSale(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	msg := "sale deleted and stock restored"
	if !result.Restored {
		msg = "sale deleted; item no longer exists, stock not restored"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  msg,
		"restored": result.Restored,
		"sale":     toSaleResponse(result.Sale),
	})
}

func (h *HTTPHandler) ResetCategory(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category is required"})
		return
	}

	summary, err := h.sales.ResetCategory(c.Request.Context(), userID(c), domain.Category(req.Category))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"category":       summary.Category,
		"sales_removed":  summary.SalesRemoved,
		"units_restored": summary.UnitsRestored,
		"skipped":        summary.Skipped,
	})
}

func (h *HTTPHandler) ListActivities(c *gin.Context) {
	entries, err := h.activity.List(c.Request.Context(), userID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, gin.H{
			"id":        entry.ID,
			"action":    entry.Action,
			"details":   entry.Details,
			"timestamp": entry.Timestamp,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HTTPHandler) ResetActivities(c *gin.Context) {
	removed, err := h.activity.Reset(c.Request.Context(), userID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (h *HTTPHandler) bindItem(c *gin.Context) (service.ItemInput, bool) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, price and category are required, quantity must not be negative"})
		return service.ItemInput{}, false
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must be a decimal number"})
		return service.ItemInput{}, false
	}

	return service.ItemInput{
		Name:     req.Name,
		Quantity: req.Quantity,
		Price:    price,
		Category: domain.Category(req.Category),
		ImageURL: req.ImageURL,
	}, true
}

func (h *HTTPHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidItem),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrMissingRequestID),
		errors.Is(err, service.ErrUnknownCategory),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrDuplicateRequest),
		errors.Is(err, service.ErrResetBusy),
		errors.Is(err, domain.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		h.logger.WithFields(logrus.Fields{
			"path":   c.FullPath(),
			"method": c.Request.Method,
		}).Error(err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func toItemResponse(item domain.Item) itemResponse {
	return itemResponse{
		ID:        item.ID,
		Name:      item.Name,
		Quantity:  item.Quantity,
		Price:     item.Price.StringFixed(2),
		Category:  string(item.Category),
		ImageURL:  item.ImageURL,
		Status:    string(item.Status),
		CreatedAt: item.CreatedAt,
	}
}

func toSaleResponse(sale domain.Sale) saleResponse {
	return saleResponse{
		ID:              sale.ID,
		ItemID:          sale.ItemID,
		ItemName:        sale.ItemName,
		QuantityReduced: sale.QuantityReduced,
		Earned:          sale.Earned.StringFixed(2),
		Category:        string(sale.Category),
		Timestamp:       sale.Timestamp,
	}
}
