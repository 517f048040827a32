package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/agent-sparta/sparta-backend/internal/services"
  "github.com/agent-sparta/sparta-backend/internal/types"
)

type ProductsHandler struct {
  productService services.ProductService
}

func NewProductsHandler(productService services.ProductService) *ProductsHandler {
  return &ProductsHandler{productService: productService}
}

func (ph *ProductsHandler) List(c *gin.Context) {
  activeOnly := c.Query("active") == "true"
  products, err := ph.productService.GetProducts(c.Request.Context(), activeOnly)
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    return
  }
  c.JSON(http.StatusOK, gin.H{"products": products})
}

func (ph *ProductsHandler) Get(c *gin.Context) {
  id, err := uuid.Parse(c.Param("id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
    return
  }
  product, err := ph.productService.GetProduct(c.Request.Context(), id)
  if err != nil {
    c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
    return
  }
  c.JSON(http.StatusOK, product)
}

func (ph *ProductsHandler) Create(c *gin.Context) {
  var req types.ServiceProduct
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  created, err := ph.productService.CreateProduct(c.Request.Context(), &req)
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    return
  }
  c.JSON(http.StatusOK, created)
}

func (ph *ProductsHandler) Update(c *gin.Context) {
  id, err := uuid.Parse(c.Param("id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
    return
  }
  var req types.ServiceProduct
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  req.ID = id
  if err := ph.productService.UpdateProduct(c.Request.Context(), &req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": true})
}

func (ph *ProductsHandler) Delete(c *gin.Context) {
  id, err := uuid.Parse(c.Param("id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
    return
  }
  if err := ph.productService.DeleteProduct(c.Request.Context(), id); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": true})
}
