package handler

import (
	"net/http"

	"shopapp/internal/config"
	"shopapp/internal/middleware"
	"shopapp/internal/usecase"

	"github.com/labstack/echo/v4"
)

// カタログの公開API
type CatalogHandler struct {
	uc *usecase.CatalogUsecase
}

// DI
func NewCatalogHandler(uc *usecase.CatalogUsecase) *CatalogHandler {
	return &CatalogHandler{uc: uc}
}

// /categories, /products を登録
func (h *CatalogHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	e.GET("/categories", h.listCategories)
	e.GET("/categories/:id/products", h.categoryProducts)
	e.GET("/products/search", h.search)

	//商品詳細はログイン中ならフラグ付きで返す
	e.GET("/products/:id", h.productDetail, middleware.OptionalAuthJWT(cfg))
}

func (h *CatalogHandler) listCategories(c echo.Context) error {
	out, err := h.uc.ListCategories(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) categoryProducts(c echo.Context) error {
	categoryID, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.CategoryProducts(c.Request().Context(), categoryID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) search(c echo.Context) error {
	out, err := h.uc.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) productDetail(c echo.Context) error {
	productID, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	viewerID := getViewerIDFromContext(c)

	out, err := h.uc.ProductDetail(c.Request().Context(), productID, viewerID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
