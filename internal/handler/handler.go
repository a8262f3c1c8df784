package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sss135790/quick-clinic/internal/middleware"
	"github.com/sss135790/quick-clinic/internal/service/appointment"
	apperrors "github.com/sss135790/quick-clinic/pkg/errors"
	"github.com/sss135790/quick-clinic/pkg/httputil"
	"github.com/sss135790/quick-clinic/pkg/validator"
)

// Registrar is implemented by every API handler. Routes under public need no
// session; routes under private run after Authenticate and AccessLog.
type Registrar interface {
	RegisterRoutes(public, private *gin.RouterGroup)
}

// BindJSON binds and validates the body, answering 400 on failure.
func BindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(validator.Describe(err), err))
		return false
	}
	return true
}

// BindQuery is BindJSON for query strings.
func BindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(validator.Describe(err), err))
		return false
	}
	return true
}

// ParamUUID parses a path parameter, answering 400 when it is not a uuid.
func ParamUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid "+name, err))
		return uuid.Nil, false
	}
	return id, true
}

// Actor is the authenticated caller.
func Actor(c *gin.Context) appointment.Actor {
	claims, ok := middleware.Claims(c)
	if !ok {
		return appointment.Actor{}
	}
	return appointment.Actor{ID: claims.UserID, Role: claims.Role}
}
