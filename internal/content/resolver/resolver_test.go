package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/nst-content-backend/internal/content/cache"
	"github.com/yungbote/nst-content-backend/internal/content/config"
	"github.com/yungbote/nst-content-backend/internal/content/engine"
	"github.com/yungbote/nst-content-backend/internal/content/grounding"
	"github.com/yungbote/nst-content-backend/internal/content/keystore"
	"github.com/yungbote/nst-content-backend/internal/content/override"
	"github.com/yungbote/nst-content-backend/internal/content/rotation"
	"github.com/yungbote/nst-content-backend/internal/content/settings"
	"github.com/yungbote/nst-content-backend/internal/content/storage"
	"github.com/yungbote/nst-content-backend/internal/content/types"
)

// scriptedEngine answers by credential and records every call.
type scriptedEngine struct {
	mu      sync.Mutex
	replies map[string]string
	calls   []engine.Request
	creds   []string
}

func (e *scriptedEngine) Generate(_ context.Context, credential string, req engine.Request) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, req)
	e.creds = append(e.creds, credential)
	reply, ok := e.replies[credential]
	if !ok {
		return "", errors.New("403 permission denied")
	}
	return reply, nil
}

func (e *scriptedEngine) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

type fixture struct {
	resolver  *Resolver
	engine    *scriptedEngine
	cache     *cache.Memory
	overrides *override.GormStore
	pauses    []time.Duration
}

func newFixture(t *testing.T, keys []string, replies map[string]string, style string) *fixture {
	t.Helper()
	db, err := storage.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	ov := override.NewGormStore(db, nil)
	if err := ov.AutoMigrate(); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	provider := settings.Static{Keys: keys, Style: style}
	ks := keystore.New(provider, config.UpstreamConfig{}, nil, keystore.WithEnvLookup(func(string) string { return "" }))
	exec := rotation.New(ks, nil, rotation.WithShuffle(func(int, func(i, j int)) {}))

	mem := cache.NewMemory()
	eng := &scriptedEngine{replies: replies}
	f := &fixture{engine: eng, cache: mem, overrides: ov}

	f.resolver = New(Deps{
		Cache:     mem,
		Overrides: ov,
		Grounding: grounding.NewFinder(mem, ov, 0),
		Style:     provider,
		Executor:  exec,
		Engine:    eng,
	}, config.UpstreamConfig{
		StandardModel: "gemini-2.5-flash",
		AdvancedModel: "gemini-3-pro-preview",
		Temperature:   0.3,
	}, config.PacingConfig{OverrideMin: 2500 * time.Millisecond, OverrideMax: 4500 * time.Millisecond, Offline: 2 * time.Second}, nil)

	f.resolver.now = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }
	f.resolver.newID = func() string { return "fixed-id" }
	f.resolver.pause = func(_ context.Context, d time.Duration) { f.pauses = append(f.pauses, d) }
	return f
}

var physics = types.Subject{ID: "phy", Name: "Physics"}

func chapterReq() ChapterRequest {
	return ChapterRequest{Board: "CBSE", Class: "10", Subject: physics, Language: "English"}
}

func lessonReq(t types.ContentType) LessonRequest {
	return LessonRequest{
		Board: "CBSE", Class: "10", Subject: physics,
		Chapter:  types.Chapter{ID: "ch-2", Title: "Electricity"},
		Language: "English", Type: t,
	}
}

func quizJSON(n int) string {
	items := make([]types.MCQItem, n)
	for i := range items {
		items[i] = types.MCQItem{Question: "Q?", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: i % 4, Explanation: "because"}
	}
	b, _ := json.Marshal(items)
	return "```json\n" + string(b) + "\n```"
}

func TestOfflineChaptersWithoutCredentials(t *testing.T) {
	f := newFixture(t, nil, nil, "")
	chapters, src := f.resolver.ResolveChapters(context.Background(), chapterReq())
	if src != SourceOffline {
		t.Fatalf("source=%s", src)
	}
	if len(chapters) != 7 || chapters[0].Title != "Introduction to Physics" {
		t.Fatalf("chapters=%v", chapters)
	}
	if f.engine.callCount() != 0 {
		t.Fatalf("no upstream call expected")
	}

	// Offline output is cached for the session.
	again, src := f.resolver.ResolveChapters(context.Background(), chapterReq())
	if src != SourceCached || len(again) != 7 {
		t.Fatalf("second source=%s", src)
	}
}

func TestSimpleQuizGenerated(t *testing.T) {
	f := newFixture(t, []string{"good"}, map[string]string{"good": quizJSON(5)}, "")
	lesson, src := f.resolver.ResolveLesson(context.Background(), lessonReq(types.MCQSimple))
	if src != SourceGenerated {
		t.Fatalf("source=%s", src)
	}
	if lesson.Content != types.MCQSentinel || len(lesson.MCQData) != 5 {
		t.Fatalf("lesson content=%q mcqs=%d", lesson.Content, len(lesson.MCQData))
	}
	if lesson.Subtitle != "Physics - Class 10 (MCQ SIMPLE)" || lesson.Title != "Electricity" {
		t.Fatalf("lesson=%+v", lesson)
	}
	if lesson.ID != "fixed-id" || lesson.DateCreated != "2026-03-01T09:30:00Z" {
		t.Fatalf("id=%q date=%q", lesson.ID, lesson.DateCreated)
	}
	req := f.engine.calls[0]
	if req.Format != engine.FormatJSON || req.Model != "gemini-2.5-flash" || req.Temperature != 0.3 {
		t.Fatalf("request=%+v", req)
	}
}

func TestSecondIdenticalRequestHitsCache(t *testing.T) {
	f := newFixture(t, []string{"once"}, map[string]string{"once": "# Notes on electricity"}, "")
	ctx := context.Background()

	first, src := f.resolver.ResolveLesson(ctx, lessonReq(types.NotesSimple))
	if src != SourceGenerated {
		t.Fatalf("first source=%s", src)
	}
	delete(f.engine.replies, "once")

	second, src := f.resolver.ResolveLesson(ctx, lessonReq(types.NotesSimple))
	if src != SourceCached || second != first {
		t.Fatalf("second source=%s", src)
	}
	if n := f.engine.callCount(); n != 1 {
		t.Fatalf("upstream calls=%d", n)
	}
}

func TestOverrideServedWithoutCredentials(t *testing.T) {
	f := newFixture(t, nil, nil, "")
	ctx := context.Background()
	req := lessonReq(types.NotesPremium)
	curated := &types.LessonContent{ID: "curated", Title: "Electricity", Content: "# Curated notes", Type: types.NotesPremium}
	if err := f.overrides.PutLesson(ctx, req.Key(), curated); err != nil {
		t.Fatalf("PutLesson: %v", err)
	}

	lesson, src := f.resolver.ResolveLesson(ctx, req)
	if src != SourceOverride {
		t.Fatalf("source=%s", src)
	}
	if lesson.Content != "# Curated notes" || strings.Contains(lesson.Subtitle, "Offline") {
		t.Fatalf("lesson=%+v", lesson)
	}
	if len(f.pauses) != 1 || f.pauses[0] < 2500*time.Millisecond || f.pauses[0] > 4500*time.Millisecond {
		t.Fatalf("override pacing=%v", f.pauses)
	}
	if _, ok := f.cache.GetLesson(ctx, req.Key()); !ok {
		t.Fatalf("override must be cached")
	}
}

func TestChapterOverrideBeatsGeneration(t *testing.T) {
	f := newFixture(t, []string{"k"}, map[string]string{"k": `[{"title":"Generated"}]`}, "")
	ctx := context.Background()
	curated := []types.Chapter{{ID: "c-1", Title: "Light"}}
	if err := f.overrides.PutChapters(ctx, chapterReq().Key(), curated); err != nil {
		t.Fatalf("PutChapters: %v", err)
	}
	got, src := f.resolver.ResolveChapters(ctx, chapterReq())
	if src != SourceOverride || got[0].Title != "Light" {
		t.Fatalf("got=%v src=%s", got, src)
	}
	if f.engine.callCount() != 0 {
		t.Fatalf("override must short-circuit generation")
	}
}

func TestGeneratedChaptersGetSequentialIDs(t *testing.T) {
	f := newFixture(t, []string{"k"}, map[string]string{"k": "```json\n[{\"title\":\"Light\",\"description\":\"Reflection\"},{\"title\":\"Sound\"}]\n```"}, "")
	got, src := f.resolver.ResolveChapters(context.Background(), chapterReq())
	if src != SourceGenerated || len(got) != 2 {
		t.Fatalf("got=%v src=%s", got, src)
	}
	if got[0].ID != "ch-1" || got[1].ID != "ch-2" || got[0].Description != "Reflection" {
		t.Fatalf("got=%+v", got)
	}
}

func TestMalformedPayloadRotatesToNextCredential(t *testing.T) {
	f := newFixture(t, []string{"broken", "good"}, map[string]string{
		"broken": `[{"question":"Q","options":["a"],"correctAnswer":4}]`,
		"good":   quizJSON(15),
	}, "")
	lesson, src := f.resolver.ResolveLesson(context.Background(), lessonReq(types.MCQAnalysis))
	if src != SourceGenerated || len(lesson.MCQData) != 15 {
		t.Fatalf("src=%s lesson=%+v", src, lesson)
	}
	if len(f.engine.creds) != 2 || f.engine.creds[1] != "good" {
		t.Fatalf("creds=%v", f.engine.creds)
	}
	if f.engine.calls[0].Model != "gemini-3-pro-preview" {
		t.Fatalf("analysis quiz must use the advanced model, got %s", f.engine.calls[0].Model)
	}
}

func TestAllCredentialsFailServesOffline(t *testing.T) {
	f := newFixture(t, []string{"a", "b", "c"}, nil, "")
	lesson, src := f.resolver.ResolveLesson(context.Background(), lessonReq(types.MCQSimple))
	if src != SourceOffline {
		t.Fatalf("source=%s", src)
	}
	if f.engine.callCount() != 3 {
		t.Fatalf("each credential must be tried once, calls=%d", f.engine.callCount())
	}
	if lesson.Subtitle != "Physics (Offline Mode)" || len(lesson.MCQData) != 5 || lesson.ID == "" || lesson.DateCreated == "" {
		t.Fatalf("lesson=%+v", lesson)
	}
	if len(f.pauses) != 1 || f.pauses[0] != 2*time.Second {
		t.Fatalf("offline pacing=%v", f.pauses)
	}
}

func TestModelTierSelection(t *testing.T) {
	cases := []struct {
		typ        types.ContentType
		privileged bool
		want       string
	}{
		{types.NotesSimple, false, "gemini-2.5-flash"},
		{types.MCQSimple, false, "gemini-2.5-flash"},
		{types.PDFNotes, false, "gemini-2.5-flash"},
		{types.NotesPremium, false, "gemini-3-pro-preview"},
		{types.MCQAnalysis, false, "gemini-3-pro-preview"},
		{types.NotesSimple, true, "gemini-3-pro-preview"},
	}
	f := newFixture(t, nil, nil, "")
	for _, tc := range cases {
		req := lessonReq(tc.typ)
		req.Privileged = tc.privileged
		if got := f.resolver.modelFor(req); got != tc.want {
			t.Fatalf("%s privileged=%v: got %s want %s", tc.typ, tc.privileged, got, tc.want)
		}
	}
}

func TestQuizGroundedOnCachedNotes(t *testing.T) {
	notes := strings.Repeat("Ohm's law relates voltage, current and resistance. ", 5)
	f := newFixture(t, []string{"k"}, map[string]string{"k": quizJSON(5)}, "")
	ctx := context.Background()

	notesKey := lessonReq(types.NotesSimple).Key()
	f.cache.PutLesson(ctx, notesKey, &types.LessonContent{Content: notes})

	req := lessonReq(types.MCQSimple)
	req.PriorAttempts = 2
	if _, src := f.resolver.ResolveLesson(ctx, req); src != SourceGenerated {
		t.Fatalf("source=%s", src)
	}
	prompt := f.engine.calls[0].Prompt
	if !strings.Contains(prompt, "IMPORTANT: Base the questions STRICTLY") || !strings.Contains(prompt, "Ohm's law") {
		t.Fatalf("prompt not grounded:\n%s", prompt)
	}
}

func TestStyleAppliedToNotesOnly(t *testing.T) {
	style := "Explain with cricket analogies throughout."
	f := newFixture(t, []string{"k"}, map[string]string{"k": "# Notes"}, style)
	ctx := context.Background()

	f.resolver.ResolveLesson(ctx, lessonReq(types.NotesPremium))
	if !strings.Contains(f.engine.calls[0].Prompt, style) {
		t.Fatalf("notes prompt missing style")
	}
	if f.engine.calls[0].Format != engine.FormatText {
		t.Fatalf("notes must request text")
	}
}

func TestDifferentAttemptCountsAreDistinctCacheEntries(t *testing.T) {
	f := newFixture(t, []string{"k"}, map[string]string{"k": quizJSON(5)}, "")
	ctx := context.Background()
	req := lessonReq(types.MCQSimple)
	f.resolver.ResolveLesson(ctx, req)
	req.PriorAttempts = 1
	if _, src := f.resolver.ResolveLesson(ctx, req); src != SourceGenerated {
		t.Fatalf("new attempt must regenerate, source=%s", src)
	}
	if f.engine.callCount() != 2 {
		t.Fatalf("calls=%d", f.engine.callCount())
	}
}

func TestOverrideDelayBounds(t *testing.T) {
	r := &Resolver{pacing: config.PacingConfig{OverrideMin: time.Second, OverrideMax: 2 * time.Second}}
	for i := 0; i < 200; i++ {
		d := r.overrideDelay()
		if d < time.Second || d > 2*time.Second {
			t.Fatalf("delay out of range: %v", d)
		}
	}
	r.pacing = config.PacingConfig{}
	if d := r.overrideDelay(); d != 0 {
		t.Fatalf("disabled pacing must be zero, got %v", d)
	}
}

func TestSleepCtxReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	sleepCtx(ctx, time.Hour)
	if time.Since(start) > time.Second {
		t.Fatalf("sleep ignored cancellation")
	}
}

func TestParseChaptersRejectsEmpty(t *testing.T) {
	if _, err := parseChapters("[]"); err == nil {
		t.Fatalf("expected error for empty list")
	}
	if _, err := parseChapters(`[{"title":"  "}]`); err == nil {
		t.Fatalf("expected error for blank title")
	}
	if _, err := parseMCQs("not json"); err == nil {
		t.Fatalf("expected decode error")
	}
}


func TestObjectWrappedListsAreGenerated(t *testing.T) {
	item := `{"question":"Unit of charge?","options":["Coulomb","Volt"],"correctAnswer":0,"explanation":"SI unit."}`
	f := newFixture(t, []string{"quiz", "chap"}, nil, "")
	f.engine.replies = map[string]string{"quiz": `{"questions":[` + item + `]}`}

	lesson, src := f.resolver.ResolveLesson(context.Background(), lessonReq(types.MCQSimple))
	if src != SourceGenerated || len(lesson.MCQData) != 1 || lesson.MCQData[0].Options[0] != "Coulomb" {
		t.Fatalf("source=%s lesson=%+v", src, lesson)
	}

	f.engine.replies = map[string]string{"chap": `{"chapters":[{"title":"Motion","description":"Kinematics"},{"title":"Force"}]}`, "quiz": ""}
	chapters, src := f.resolver.ResolveChapters(context.Background(), chapterReq())
	if src != SourceGenerated || len(chapters) != 2 || chapters[1].ID != "ch-2" {
		t.Fatalf("source=%s chapters=%v", src, chapters)
	}
}

func TestDecodeListRejectsAmbiguousObject(t *testing.T) {
	var out []types.MCQItem
	if err := decodeList(`{"a":[],"b":[]}`, &out); err == nil {
		t.Fatalf("expected error for two array fields")
	}
	if _, err := parseChapters(`{"chapters":"none"}`); err == nil {
		t.Fatalf("expected error for object without an array")
	}
}
