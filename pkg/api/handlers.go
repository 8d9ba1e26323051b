package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ltv-analytics/pkg/analytics"
	"ltv-analytics/pkg/logging"
)

type errorDetail struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message,omitempty"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

func (s *Server) getCohorts(c *gin.Context) {
	resp, err := s.svc.CohortAnalysis(c.Request.Context(), analytics.CohortQuery{
		Start: c.Query("start"),
		End:   c.Query("end"),
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getLifecycle(c *gin.Context) {
	resp, err := s.svc.LifecycleTrends(c.Request.Context(), analytics.LifecycleQuery{
		Start:        c.Query("start"),
		End:          c.Query("end"),
		CompareStart: c.Query("compareStart"),
		CompareEnd:   c.Query("compareEnd"),
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getTimeSeries(c *gin.Context) {
	resp, err := s.svc.TimeSeries(c.Request.Context(), analytics.TimeSeriesQuery{
		Start:        c.Query("start"),
		End:          c.Query("end"),
		Scope:        c.Query("scope"),
		Metric:       c.Query("metric"),
		CompareStart: c.Query("compareStart"),
		CompareEnd:   c.Query("compareEnd"),
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// abortWithError maps service errors onto the JSON error envelope.
func (s *Server) abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)

	var inputErr *analytics.InputError
	if errors.As(err, &inputErr) {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: errorDetail{
			Code:    "invalid_request",
			Field:   inputErr.Field,
			Message: inputErr.Error(),
		}})
		return
	}

	var upstream *analytics.UpstreamFetchError
	if errors.As(err, &upstream) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Error: errorDetail{
			Code: "upstream_unavailable",
		}})
		return
	}

	s.logger.Error("unhandled query error",
		zap.String("request_id", logging.RequestID(c)),
		zap.Error(err),
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Error: errorDetail{
		Code: "internal_error",
	}})
}
