package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hr-engage-api/internal/middleware"
	"github.com/noah-isme/hr-engage-api/internal/models"
	appErrors "github.com/noah-isme/hr-engage-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func actorFromContext(c *gin.Context) (models.Actor, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		return models.Actor{}, false
	}
	return claims.Actor(), true
}

func parseInt64Param(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid "+name)
	}
	return id, nil
}

func filtersFromQuery(c *gin.Context) (models.EmployeeFilters, error) {
	filters := models.EmployeeFilters{
		Search:     c.Query("search"),
		Department: c.Query("department"),
		Location:   c.Query("location"),
		Status:     c.Query("status"),
	}
	if raw := c.Query("isAdmin"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return filters, appErrors.Clone(appErrors.ErrValidation, "isAdmin must be a boolean")
		}
		filters.IsAdmin = &value
	}
	return filters, nil
}
