// Package resolver answers chapter and lesson requests. Every request walks
// the same chain: session cache, curated overrides, upstream generation with
// credential rotation, then offline placeholders. Resolution never fails.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/nst-content-backend/internal/content/cache"
	"github.com/yungbote/nst-content-backend/internal/content/config"
	"github.com/yungbote/nst-content-backend/internal/content/engine"
	"github.com/yungbote/nst-content-backend/internal/content/fingerprint"
	"github.com/yungbote/nst-content-backend/internal/content/grounding"
	"github.com/yungbote/nst-content-backend/internal/content/observability"
	"github.com/yungbote/nst-content-backend/internal/content/offline"
	"github.com/yungbote/nst-content-backend/internal/content/override"
	"github.com/yungbote/nst-content-backend/internal/content/prompts"
	"github.com/yungbote/nst-content-backend/internal/content/rotation"
	"github.com/yungbote/nst-content-backend/internal/content/types"
	"github.com/yungbote/nst-content-backend/internal/platform/logger"
)

type Source string

const (
	SourceCached    Source = "cached"
	SourceOverride  Source = "override"
	SourceGenerated Source = "generated"
	SourceOffline   Source = "offline"
)

type ChapterRequest struct {
	Board    types.Board
	Class    types.ClassLevel
	Stream   types.Stream
	Subject  types.Subject
	Language types.Language
}

func (r ChapterRequest) Key() fingerprint.ChapterKey {
	return fingerprint.ChapterKey{Board: r.Board, Class: r.Class, Stream: r.Stream, Subject: r.Subject.Name, Language: r.Language}
}

type LessonRequest struct {
	Board         types.Board
	Class         types.ClassLevel
	Stream        types.Stream
	Subject       types.Subject
	Chapter       types.Chapter
	Language      types.Language
	Type          types.ContentType
	PriorAttempts int

	// Privileged callers always get the advanced model tier.
	Privileged bool
}

func (r LessonRequest) Key() fingerprint.LessonKey {
	return fingerprint.LessonKey{
		Board:         r.Board,
		Class:         r.Class,
		Stream:        r.Stream,
		Subject:       r.Subject.Name,
		ChapterID:     r.Chapter.ID,
		Language:      r.Language,
		Type:          r.Type,
		PriorAttempts: r.PriorAttempts,
	}
}

// StyleSource yields the operator's note style instruction.
type StyleSource interface {
	StyleInstruction(ctx context.Context) (string, error)
}

type Deps struct {
	Cache     cache.Cache
	Overrides override.Store
	Grounding *grounding.Finder
	Style     StyleSource
	Executor  *rotation.Executor
	Engine    engine.Engine
}

type Resolver struct {
	cache     cache.Cache
	overrides override.Store
	grounding *grounding.Finder
	style     StyleSource
	exec      *rotation.Executor
	engine    engine.Engine

	standardModel string
	advancedModel string
	temperature   float64
	pacing        config.PacingConfig

	log    *logger.Logger
	tracer trace.Tracer

	now   func() time.Time
	newID func() string
	pause func(ctx context.Context, d time.Duration)
}

func New(d Deps, up config.UpstreamConfig, pacing config.PacingConfig, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{
		cache:         d.Cache,
		overrides:     d.Overrides,
		grounding:     d.Grounding,
		style:         d.Style,
		exec:          d.Executor,
		engine:        d.Engine,
		standardModel: up.StandardModel,
		advancedModel: up.AdvancedModel,
		temperature:   up.Temperature,
		pacing:        pacing,
		log:           log.With("service", "ContentResolver"),
		tracer:        otel.Tracer(observability.TracerName),
		now:           time.Now,
		newID:         uuid.NewString,
		pause:         sleepCtx,
	}
}

func (r *Resolver) ResolveChapters(ctx context.Context, req ChapterRequest) ([]types.Chapter, Source) {
	key := req.Key()
	ctx, span := r.tracer.Start(ctx, "resolver.ResolveChapters", trace.WithAttributes(attribute.String("nst.fingerprint", key.String())))
	defer span.End()

	chapters, src := r.resolveChapters(ctx, req, key)
	span.SetAttributes(attribute.String("nst.source", string(src)), attribute.Int("nst.chapter_count", len(chapters)))
	r.log.Info("chapters resolved", "fingerprint", key.String(), "source", src, "count", len(chapters))
	return chapters, src
}

func (r *Resolver) resolveChapters(ctx context.Context, req ChapterRequest, key fingerprint.ChapterKey) ([]types.Chapter, Source) {
	if v, ok := r.cache.GetChapters(ctx, key); ok {
		return v, SourceCached
	}
	if v, ok := r.overrides.GetChapters(ctx, key); ok {
		r.cache.PutChapters(ctx, key, v)
		return v, SourceOverride
	}

	prompt := prompts.Chapters(prompts.ChapterInput{
		Board: req.Board, Class: req.Class, Stream: req.Stream, Subject: req.Subject.Name, Language: req.Language,
	})
	chapters, err := rotation.Do(ctx, r.exec, func(ctx context.Context, credential string) ([]types.Chapter, error) {
		text, err := r.engine.Generate(ctx, credential, engine.Request{
			Model:       r.standardModel,
			Prompt:      prompt,
			Format:      engine.FormatJSON,
			Temperature: r.temperature,
		})
		if err != nil {
			return nil, err
		}
		return parseChapters(text)
	})
	if err == nil {
		r.cache.PutChapters(ctx, key, chapters)
		return chapters, SourceGenerated
	}

	r.log.Warn("chapter generation failed, serving offline chapters", "fingerprint", key.String(), "error", err)
	chapters = offline.Chapters(req.Subject.Name)
	r.cache.PutChapters(ctx, key, chapters)
	return chapters, SourceOffline
}

func (r *Resolver) ResolveLesson(ctx context.Context, req LessonRequest) (*types.LessonContent, Source) {
	key := req.Key()
	ctx, span := r.tracer.Start(ctx, "resolver.ResolveLesson", trace.WithAttributes(
		attribute.String("nst.fingerprint", key.String()),
		attribute.String("nst.content_type", string(req.Type)),
	))
	defer span.End()

	lesson, src := r.resolveLesson(ctx, req, key)
	span.SetAttributes(attribute.String("nst.source", string(src)))
	r.log.Info("lesson resolved", "fingerprint", key.String(), "source", src)
	return lesson, src
}

func (r *Resolver) resolveLesson(ctx context.Context, req LessonRequest, key fingerprint.LessonKey) (*types.LessonContent, Source) {
	if v, ok := r.cache.GetLesson(ctx, key); ok {
		return v, SourceCached
	}
	if v, ok := r.overrides.GetLesson(ctx, key); ok {
		r.pause(ctx, r.overrideDelay())
		r.cache.PutLesson(ctx, key, v)
		return v, SourceOverride
	}

	in := prompts.LessonInput{
		Type:         req.Type,
		Class:        req.Class,
		Subject:      req.Subject.Name,
		ChapterTitle: req.Chapter.Title,
		Language:     req.Language,
	}
	if !req.Type.IsQuiz() && r.style != nil {
		style, err := r.style.StyleInstruction(ctx)
		if err != nil {
			r.log.Warn("style instruction unavailable, using default", "error", err)
		}
		in.Style = style
	}
	if req.Type.IsQuiz() && r.grounding != nil {
		if text, ok := r.grounding.Find(ctx, key); ok {
			in.Grounding = text
			r.log.Debug("quiz grounded on existing notes", "fingerprint", key.String(), "chars", len(text))
		}
	}

	greq := engine.Request{
		Model:       r.modelFor(req),
		Prompt:      prompts.Lesson(in),
		Format:      engine.FormatText,
		Temperature: r.temperature,
	}
	if req.Type.IsQuiz() {
		greq.Format = engine.FormatJSON
	}

	type body struct {
		content string
		mcqs    []types.MCQItem
	}
	out, err := rotation.Do(ctx, r.exec, func(ctx context.Context, credential string) (body, error) {
		text, err := r.engine.Generate(ctx, credential, greq)
		if err != nil {
			return body{}, err
		}
		if !req.Type.IsQuiz() {
			return body{content: text}, nil
		}
		mcqs, err := parseMCQs(text)
		if err != nil {
			return body{}, err
		}
		return body{content: types.MCQSentinel, mcqs: mcqs}, nil
	})
	if err == nil {
		lesson := &types.LessonContent{
			ID:          r.newID(),
			Title:       req.Chapter.Title,
			Subtitle:    fmt.Sprintf("%s - Class %s (%s)", req.Subject.Name, req.Class, req.Type.Label()),
			Content:     out.content,
			Type:        req.Type,
			DateCreated: r.timestamp(),
			SubjectName: req.Subject.Name,
			MCQData:     out.mcqs,
		}
		r.cache.PutLesson(ctx, key, lesson)
		return lesson, SourceGenerated
	}

	r.log.Warn("lesson generation failed, serving offline lesson", "fingerprint", key.String(), "model", greq.Model, "error", err)
	r.pause(ctx, r.pacing.Offline)
	lesson := offline.Lesson(req.Subject.Name, req.Chapter, req.Type)
	lesson.ID = r.newID()
	lesson.DateCreated = r.timestamp()
	r.cache.PutLesson(ctx, key, lesson)
	return lesson, SourceOffline
}

func (r *Resolver) modelFor(req LessonRequest) string {
	if req.Type.IsPremium() || req.Type == types.MCQAnalysis || req.Privileged {
		return r.advancedModel
	}
	return r.standardModel
}

func (r *Resolver) timestamp() string {
	return r.now().UTC().Format(time.RFC3339)
}

// overrideDelay is uniform in [OverrideMin, OverrideMax].
func (r *Resolver) overrideDelay() time.Duration {
	lo, hi := r.pacing.OverrideMin, r.pacing.OverrideMax
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo+1)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// decodeList accepts a top-level JSON array, or an object holding exactly one
// array field. JSON modes of OpenAI-style endpoints only emit objects, so
// models wrap the list as {"questions":[...]} or similar.
func decodeList(text string, dst any) error {
	raw := []byte(engine.CleanJSON(text))
	arrErr := json.Unmarshal(raw, dst)
	if arrErr == nil {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return arrErr
	}
	var list json.RawMessage
	for field, v := range obj {
		if !strings.HasPrefix(strings.TrimSpace(string(v)), "[") {
			continue
		}
		if list != nil {
			return fmt.Errorf("object has more than one array field (%s)", field)
		}
		list = v
	}
	if list == nil {
		return arrErr
	}
	return json.Unmarshal(list, dst)
}

var (
	errEmptyChapters = errors.New("upstream returned no chapters")
	errEmptyQuiz     = errors.New("upstream returned no questions")
)

func parseChapters(text string) ([]types.Chapter, error) {
	var items []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := decodeList(text, &items); err != nil {
		return nil, fmt.Errorf("decode chapters: %w", err)
	}
	if len(items) == 0 {
		return nil, errEmptyChapters
	}
	out := make([]types.Chapter, 0, len(items))
	for i, it := range items {
		title := strings.TrimSpace(it.Title)
		if title == "" {
			return nil, fmt.Errorf("chapter %d has no title", i+1)
		}
		out = append(out, types.Chapter{
			ID:          fmt.Sprintf("ch-%d", i+1),
			Title:       title,
			Description: it.Description,
		})
	}
	return out, nil
}

func parseMCQs(text string) ([]types.MCQItem, error) {
	var items []types.MCQItem
	if err := decodeList(text, &items); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	if len(items) == 0 {
		return nil, errEmptyQuiz
	}
	for i, it := range items {
		if !it.Valid() {
			return nil, fmt.Errorf("question %d: answer index %d out of range for %d options", i+1, it.CorrectAnswer, len(it.Options))
		}
	}
	return items, nil
}
