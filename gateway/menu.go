package gateway

import (
	"errors"
	"net/http"
	"strings"

	"github.com/example/restaurant/pkg/apperrors"
	"github.com/example/restaurant/pkg/catalog"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// 32 MiB held in memory before multipart spills to temp files.
const maxUploadMemory = 32 << 20

// parseMenuForm reads the admin form. Absent fields stay nil so updates only
// touch what was sent. The returned func closes any uploaded file.
func parseMenuForm(c *gin.Context) (catalog.MenuInput, func(), error) {
	var in catalog.MenuInput
	done := func() {}

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.Request.ParseMultipartForm(maxUploadMemory); err != nil {
			return in, done, apperrors.Validation("invalid form")
		}
	}

	if v, ok := c.GetPostForm("name"); ok {
		in.Name = &v
	}
	if v, ok := c.GetPostForm("price"); ok {
		p, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return in, done, apperrors.Validation("price must be a number")
		}
		in.Price = &p
	}
	if v, ok := c.GetPostForm("description"); ok {
		in.Description = &v
	}
	in.ImageURL = c.PostForm("image_url")

	fh, err := c.FormFile("image")
	switch {
	case err == nil:
		f, err := fh.Open()
		if err != nil {
			return in, done, apperrors.Storage(err, "failed to read uploaded image")
		}
		in.Upload = &catalog.ImageUpload{Filename: fh.Filename, Body: f}
		done = func() { f.Close() }
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		return in, done, apperrors.Validation("invalid image upload")
	}

	return in, done, nil
}

func (g *Gateway) listMenu(c *gin.Context) {
	items, err := g.svc.Catalog.List(c.Request.Context())
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "menuItems": items})
}

func (g *Gateway) getMenuItem(c *gin.Context) {
	id, ok := g.idParam(c, "Menu item not found")
	if !ok {
		return
	}
	item, err := g.svc.Catalog.Get(c.Request.Context(), id)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "menuItem": item})
}

func (g *Gateway) createMenuItem(c *gin.Context) {
	in, done, err := parseMenuForm(c)
	defer done()
	if err != nil {
		g.fail(c, err)
		return
	}
	item, err := g.svc.Catalog.Create(c.Request.Context(), in)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "menuItem": item})
}

func (g *Gateway) updateMenuItem(c *gin.Context) {
	id, ok := g.idParam(c, "Menu item not found")
	if !ok {
		return
	}
	in, done, err := parseMenuForm(c)
	defer done()
	if err != nil {
		g.fail(c, err)
		return
	}
	item, err := g.svc.Catalog.Update(c.Request.Context(), id, in)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "menuItem": item})
}

func (g *Gateway) deleteMenuItem(c *gin.Context) {
	id, ok := g.idParam(c, "Menu item not found")
	if !ok {
		return
	}
	if err := g.svc.Catalog.Delete(c.Request.Context(), id); err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
