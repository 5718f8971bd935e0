package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"teralink/internal/extract"
	"teralink/internal/link"
	"teralink/internal/media"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

type welcomeResponse struct {
	Message string `json:"message"`
	Usage   string `json:"usage"`
}

type resolveResponse struct {
	Status    string          `json:"status"`
	Title     string          `json:"title"`
	Contents  []media.Content `json:"contents"`
	TotalSize int64           `json:"total_size"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *Server) welcome(c echo.Context) error {
	return c.JSON(http.StatusOK, welcomeResponse{
		Message: "Welcome to the Terabox Downloader API",
		Usage:   fmt.Sprintf("GET %s?url=<terabox_url>", s.resolvePath),
	})
}

func (s *Server) resolve(c echo.Context) error {
	shareURL := c.QueryParam("url")
	if shareURL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "URL parameter is required")
	}

	result, err := s.extractor.Resolve(c.Request().Context(), shareURL, c.QueryParam("quality"))
	if err != nil {
		if isResolutionError(err) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Unexpected error: "+err.Error()).SetInternal(err)
	}

	return c.JSON(http.StatusOK, resolveResponse{
		Status:    statusSuccess,
		Title:     result.Title,
		Contents:  result.Contents,
		TotalSize: result.TotalSize,
	})
}

// isResolutionError reports whether err is one of the expected, caller-facing
// resolution failures.
func isResolutionError(err error) bool {
	return errors.Is(err, link.ErrInvalidLink) ||
		errors.Is(err, extract.ErrNoEndpointAvailable) ||
		errors.Is(err, extract.ErrNoValidLinks)
}

// handleError renders every error, including routing errors and recovered
// panics, in the {status, message} envelope.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "Unexpected error: " + err.Error()

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		message = fmt.Sprint(he.Message)
		if he.Internal != nil {
			err = he.Internal
		}
	}

	if code >= http.StatusInternalServerError {
		s.log.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("request failed")
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(code)
	} else {
		writeErr = c.JSON(code, errorResponse{Status: statusError, Message: message})
	}
	if writeErr != nil {
		s.log.Warn().Err(writeErr).Msg("writing error response")
	}
}
