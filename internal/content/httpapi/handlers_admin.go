package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/nst-content-backend/internal/content/fingerprint"
	"github.com/yungbote/nst-content-backend/internal/content/override"
	"github.com/yungbote/nst-content-backend/internal/content/settings"
	"github.com/yungbote/nst-content-backend/internal/content/types"
	"github.com/yungbote/nst-content-backend/internal/platform/logger"
)

type OverrideAdmin interface {
	PutChapters(ctx context.Context, key fingerprint.ChapterKey, chapters []types.Chapter) error
	PutLesson(ctx context.Context, key fingerprint.LessonKey, lesson *types.LessonContent) error
	DeleteChapters(ctx context.Context, key fingerprint.ChapterKey) (bool, error)
	DeleteLesson(ctx context.Context, key fingerprint.LessonKey) (bool, error)
}

type SettingsAdmin interface {
	Snapshot(ctx context.Context) (settings.Snapshot, error)
	Save(ctx context.Context, u settings.Update) error
}

type AdminHandler struct {
	overrides OverrideAdmin
	settings  SettingsAdmin
	log       *logger.Logger
}

func NewAdminHandler(o OverrideAdmin, s SettingsAdmin, log *logger.Logger) *AdminHandler {
	return &AdminHandler{overrides: o, settings: s, log: log.With("handler", "AdminHandler")}
}

type chapterOverrideBody struct {
	chapterScope
	Chapters []types.Chapter `json:"chapters"`
}

// PUT /api/admin/overrides/chapters
func (h *AdminHandler) PutChapters(c *gin.Context) {
	var body chapterOverrideBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, codeInvalidRequest, err)
		return
	}
	if err := body.validate(); err != nil {
		RespondError(c, http.StatusBadRequest, codeInvalidRequest, err)
		return
	}
	key := body.request().Key()
	if err := h.overrides.PutChapters(c.Request.Context(), key, body.Chapters); err != nil {
		if errors.Is(err, override.ErrEmptyChapters) {
			RespondError(c, http.StatusBadRequest, codeInvalidRequest, err)
			return
		}
		h.log.Error("put chapter override failed", "key", key.String(), "error", err)
		RespondError(c, http.StatusInternalServerError, codeStorage, errors.New("could not save override"))
		return
	}
	h.log.Info("chapter override saved", "key", key.String(), "count", len(body.Chapters))
	RespondOK(c, gin.H{"key": key.String()})
}

// DELETE /api/admin/overrides/chapters
func (h *AdminHandler) DeleteChapters(c *gin.Context) {
	var body chapterScope
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, codeInvalidRequest, err)
		return
	}
	if err := body.validate(); err != nil {
		RespondError(c, http.StatusBadRequest, codeInvalidRequest, err)
		return
	}
	key := body.request().Key()
	removed, err := h.overrides.DeleteChapters(c.Request.Context(), key)
	if err != nil {
		h.log.Error("delete chapter override failed", "key", key.String(), "error", err)
		RespondError(c, http.StatusInternalServerError, codeStorage, errors.New("could not delete override"))
		return
	}
	if !removed {
		RespondError(c, http.StatusNotFound, codeNotFound, errors.New("no override for key"))
		return
	}
	c.Status(http.StatusNoContent)
}

type lessonOverrideBody struct {
	lessonScope
	Lesson *types.LessonContent `json:"lesson"`
}

// PUT /api/admin/overrides/lessons
func (h *AdminHandler) PutLesson(c *gin.Context) {
	var body lessonOverrideBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, codeInvalidRequest, err)
		return
	}
	key, err := body.key()
	if err != nil {
		RespondError(c, http.StatusBadRequest, codeInvalidRequest, err)
		return
	}
	if err := override.NormalizeLesson(body.Lesson, key.Type); err != nil {
		RespondError(c, http.StatusBadRequest, codeInvalidRequest, err)
		return
	}
	if err := h.overrides.PutLesson(c.Request.Context(), key, body.Lesson); err != nil {
		h.log.Error("put lesson override failed", "key", key.OverrideKey(), "error", err)
		RespondError(c, http.StatusInternalServerError, codeStorage, errors.New("could not save override"))
		return
	}
	h.log.Info("lesson override saved", "key", key.OverrideKey())
	RespondOK(c, gin.H{"key": key.OverrideKey()})
}

// DELETE /api/admin/overrides/lessons
func (h *AdminHandler) DeleteLesson(c *gin.Context) {
	var body lessonScope
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, codeInvalidRequest, err)
		return
	}
	key, err := body.key()
	if err != nil {
		RespondError(c, http.StatusBadRequest, codeInvalidRequest, err)
		return
	}
	removed, err := h.overrides.DeleteLesson(c.Request.Context(), key)
	if err != nil {
		h.log.Error("delete lesson override failed", "key", key.OverrideKey(), "error", err)
		RespondError(c, http.StatusInternalServerError, codeStorage, errors.New("could not delete override"))
		return
	}
	if !removed {
		RespondError(c, http.StatusNotFound, codeNotFound, errors.New("no override for key"))
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/admin/settings
func (h *AdminHandler) GetSettings(c *gin.Context) {
	snap, err := h.settings.Snapshot(c.Request.Context())
	if err != nil {
		h.log.Error("load settings failed", "error", err)
		RespondError(c, http.StatusInternalServerError, codeStorage, errors.New("could not load settings"))
		return
	}
	RespondOK(c, snap)
}

type settingsBody struct {
	APIKeys          *[]string `json:"api_keys"`
	StyleInstruction *string   `json:"style_instruction"`
}

// PUT /api/admin/settings
func (h *AdminHandler) PutSettings(c *gin.Context) {
	var body settingsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, codeInvalidRequest, err)
		return
	}
	if body.APIKeys == nil && body.StyleInstruction == nil {
		RespondError(c, http.StatusBadRequest, codeInvalidRequest, errors.New("nothing to update"))
		return
	}
	ctx := c.Request.Context()
	if err := h.settings.Save(ctx, settings.Update{APIKeys: body.APIKeys, StyleInstruction: body.StyleInstruction}); err != nil {
		h.log.Error("save settings failed", "error", err)
		RespondError(c, http.StatusInternalServerError, codeStorage, errors.New("could not save settings"))
		return
	}
	h.GetSettings(c)
}
