package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lepinkainen/bmn/internal/enrichment"
	bmnerrors "github.com/lepinkainen/bmn/internal/errors"
	"github.com/lepinkainen/bmn/internal/experiment"
	"github.com/lepinkainen/bmn/internal/prefetch"
	"github.com/lepinkainen/bmn/internal/processor"
)

// errorBody is the JSON shape of every failed request.
type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId"`
}

func (s *Server) fail(c *gin.Context, status int, err error) {
	slog.Warn("API error", "path", c.FullPath(), "status", status, "error", err, "request_id", c.GetString(requestIDKey))
	c.AbortWithStatusJSON(status, errorBody{Error: err.Error(), RequestID: c.GetString(requestIDKey)})
}

// upstreamStatus maps errors from TMDB and WordPress to a response status.
func upstreamStatus(err error) int {
	switch {
	case bmnerrors.IsAuthRequiredError(err):
		return http.StatusUnauthorized
	case bmnerrors.IsRateLimitError(err):
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}

func pathID(c *gin.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", c.Param("id"))
	}
	return id, nil
}

func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.DefaultQuery(key, strconv.Itoa(def)))
	if err != nil || n < 1 {
		return def
	}
	return n
}

func (s *Server) search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		s.fail(c, http.StatusBadRequest, errors.New("query parameter q is required"))
		return
	}
	adult, _ := strconv.ParseBool(c.DefaultQuery("adult", "false"))

	page, err := s.catalog.SearchMovies(c.Request.Context(), query, queryInt(c, "page", 1), adult)
	if err != nil {
		s.fail(c, upstreamStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) genres(c *gin.Context) {
	genres, err := s.catalog.GetGenres(c.Request.Context())
	if err != nil {
		s.fail(c, upstreamStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"genres": genres})
}

type prefetchResponse struct {
	prefetch.EnrichedSelection
	Progress []prefetch.Progress `json:"progress"`
}

func (s *Server) prefetch(c *gin.Context) {
	var sel enrichment.Selection
	if err := c.ShouldBindJSON(&sel); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	if sel.TMDBID <= 0 {
		s.fail(c, http.StatusBadRequest, errors.New("tmdbId is required"))
		return
	}

	progress := []prefetch.Progress{}
	result := s.prefetcher.Prefetch(c.Request.Context(), sel, func(p prefetch.Progress) {
		progress = append(progress, p)
	})
	c.JSON(http.StatusOK, prefetchResponse{EnrichedSelection: result, Progress: progress})
}

func (s *Server) prefetchedIDs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ids": s.prefetcher.IDs()})
}

func (s *Server) clearPrefetch(c *gin.Context) {
	s.prefetcher.Clear()
	c.Status(http.StatusNoContent)
}

func (s *Server) removePrefetch(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	s.prefetcher.Remove(id)
	c.Status(http.StatusNoContent)
}

func (s *Server) createExperiment(c *gin.Context) {
	var draft experiment.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	if err := draft.Validate(); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}

	progress := []processor.Progress{}
	exp, err := s.experiments.Create(c.Request.Context(), &draft, func(p processor.Progress) {
		progress = append(progress, p)
	})
	if err != nil {
		s.fail(c, upstreamStatus(err), err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"experiment": exp, "progress": progress})
}

func (s *Server) updateExperiment(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}

	var draft experiment.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	if err := draft.Validate(); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}

	progress := []processor.Progress{}
	exp, err := s.experiments.Update(c.Request.Context(), id, &draft, func(p processor.Progress) {
		progress = append(progress, p)
	})
	if err != nil {
		s.fail(c, upstreamStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"experiment": exp, "progress": progress})
}

func (s *Server) listExperiments(c *gin.Context) {
	perPage := queryInt(c, "per_page", 20)
	if perPage > 100 {
		perPage = 100
	}

	list, err := s.site.ListExperiments(c.Request.Context(), queryInt(c, "page", 1), perPage)
	if err != nil {
		s.fail(c, upstreamStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) getExperiment(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}

	exp, err := s.site.GetExperiment(c.Request.Context(), id)
	if err != nil {
		s.fail(c, upstreamStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, exp)
}

func (s *Server) deleteExperiment(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}

	if err := s.site.DeleteExperiment(c.Request.Context(), id); err != nil {
		s.fail(c, upstreamStatus(err), err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) platforms(c *gin.Context) {
	platforms, source := s.site.DiscoverPlatforms(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"platforms": platforms, "source": source})
}
