package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/nst-content-backend/internal/content/resolver"
	"github.com/yungbote/nst-content-backend/internal/content/types"
)

type ContentResolver interface {
	ResolveChapters(ctx context.Context, req resolver.ChapterRequest) ([]types.Chapter, resolver.Source)
	ResolveLesson(ctx context.Context, req resolver.LessonRequest) (*types.LessonContent, resolver.Source)
}

type ContentHandler struct {
	resolver ContentResolver
}

func NewContentHandler(r ContentResolver) *ContentHandler {
	return &ContentHandler{resolver: r}
}

func HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

type chaptersResponse struct {
	Chapters []types.Chapter `json:"chapters"`
	Source   resolver.Source `json:"source"`
}

// POST /api/chapters
func (h *ContentHandler) Chapters(c *gin.Context) {
	var body chapterScope
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, codeInvalidRequest, err)
		return
	}
	if err := body.validate(); err != nil {
		RespondError(c, http.StatusBadRequest, codeInvalidRequest, err)
		return
	}
	chapters, src := h.resolver.ResolveChapters(c.Request.Context(), body.request())
	RespondOK(c, chaptersResponse{Chapters: chapters, Source: src})
}

type lessonResponse struct {
	Lesson *types.LessonContent `json:"lesson"`
	Source resolver.Source      `json:"source"`
}

// POST /api/lessons
func (h *ContentHandler) Lesson(c *gin.Context) {
	var body lessonBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, codeInvalidRequest, err)
		return
	}
	req, err := body.request()
	if err != nil {
		RespondError(c, http.StatusBadRequest, codeInvalidRequest, err)
		return
	}
	lesson, src := h.resolver.ResolveLesson(c.Request.Context(), req)
	RespondOK(c, lessonResponse{Lesson: lesson, Source: src})
}
