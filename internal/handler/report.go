package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lostserver/diagnostic-gateway/internal/middleware"
	"github.com/lostserver/diagnostic-gateway/internal/repository"
)

// ReportHandler serves the saved-analysis history of the signed-in user.
type ReportHandler struct {
	Reports repository.ReportStore
}

func NewReportHandler(reports repository.ReportStore) *ReportHandler {
	return &ReportHandler{Reports: reports}
}

// List handles GET /v1/reports: the caller's saved analyses, newest first.
func (h *ReportHandler) List(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthenticated"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	reports, err := h.Reports.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Success", "reports": reports})
}
