package gateway

import (
	"net/http"
	"strconv"

	"github.com/example/restaurant/pkg/apperrors"
	"github.com/example/restaurant/pkg/cart"
	"github.com/example/restaurant/pkg/session"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type cartItemRequest struct {
	MenuID   uint `json:"menuId" binding:"required"`
	Quantity *int `json:"quantity"`
}

func (r cartItemRequest) quantity() int {
	if r.Quantity == nil {
		return 1
	}
	return *r.Quantity
}

type qrRequest struct {
	OrderNumber string           `json:"orderNumber"`
	TotalAmount *decimal.Decimal `json:"totalAmount"`
}

func sessionID(c *gin.Context) string {
	return session.IDFromContext(c.Request.Context())
}

func (g *Gateway) writeCart(c *gin.Context, entries []cart.Entry) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"cart":    entries,
		"total":   cart.Total(entries),
	})
}

func (g *Gateway) bindCartItem(c *gin.Context) (cartItemRequest, bool) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.fail(c, apperrors.Validation("menuId is required"))
		return req, false
	}
	return req, true
}

func (g *Gateway) getCart(c *gin.Context) {
	entries, err := g.svc.Carts.Get(c.Request.Context(), sessionID(c))
	if err != nil {
		g.fail(c, err)
		return
	}
	g.writeCart(c, entries)
}

func (g *Gateway) addToCart(c *gin.Context) {
	req, ok := g.bindCartItem(c)
	if !ok {
		return
	}
	entries, err := g.svc.Carts.Add(c.Request.Context(), sessionID(c), req.MenuID, req.quantity())
	if err != nil {
		g.fail(c, err)
		return
	}
	g.writeCart(c, entries)
}

func (g *Gateway) updateCart(c *gin.Context) {
	req, ok := g.bindCartItem(c)
	if !ok {
		return
	}
	entries, err := g.svc.Carts.Update(c.Request.Context(), sessionID(c), req.MenuID, req.quantity())
	if err != nil {
		g.fail(c, err)
		return
	}
	g.writeCart(c, entries)
}

func (g *Gateway) removeFromCart(c *gin.Context) {
	req, ok := g.bindCartItem(c)
	if !ok {
		return
	}
	entries, err := g.svc.Carts.Remove(c.Request.Context(), sessionID(c), req.MenuID)
	if err != nil {
		g.fail(c, err)
		return
	}
	g.writeCart(c, entries)
}

func (g *Gateway) clearCart(c *gin.Context) {
	if err := g.svc.Carts.Clear(c.Request.Context(), sessionID(c)); err != nil {
		g.fail(c, err)
		return
	}
	g.writeCart(c, []cart.Entry{})
}

func (g *Gateway) checkout(c *gin.Context) {
	o, err := g.svc.Orders.Checkout(c.Request.Context(), sessionID(c))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": o})
}

func (g *Gateway) getOrder(c *gin.Context) {
	id, ok := g.idParam(c, "Order not found")
	if !ok {
		return
	}
	o, err := g.svc.Orders.Get(c.Request.Context(), id)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": o})
}

func (g *Gateway) listOrders(c *gin.Context) {
	limit, err := optionalInt(c, "limit")
	if err != nil {
		g.fail(c, err)
		return
	}
	orders, err := g.svc.Orders.List(c.Request.Context(), limit)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": orders})
}

func (g *Gateway) generateQR(c *gin.Context) {
	var req qrRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.fail(c, apperrors.Validation("orderNumber and totalAmount are required"))
		return
	}
	if req.TotalAmount == nil {
		g.fail(c, apperrors.Validation("totalAmount is required"))
		return
	}
	qr, err := g.svc.Payments.Generate(req.OrderNumber, *req.TotalAmount)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"qrCode":     qr.ImageDataURI,
		"payeeId":    qr.PayeeID,
		"paymentUri": qr.PaymentURI,
	})
}

func (g *Gateway) salesData(c *gin.Context) {
	month, err := optionalInt(c, "month")
	if err != nil {
		g.fail(c, err)
		return
	}
	year, err := optionalInt(c, "year")
	if err != nil {
		g.fail(c, err)
		return
	}
	rep, err := g.svc.Reports.Sales(c.Request.Context(), month, year)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

// idParam parses the :id path segment; a non-numeric id cannot name a row.
func (g *Gateway) idParam(c *gin.Context, notFound string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		g.fail(c, apperrors.NotFound("%s", notFound))
		return 0, false
	}
	return uint(id), true
}

func optionalInt(c *gin.Context, key string) (int, error) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperrors.Validation("%s must be a number", key)
	}
	return n, nil
}
