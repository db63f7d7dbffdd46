package mock

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/nst-content-backend/internal/content/engine"
)

// RejectPrefix marks credentials the mock refuses, to exercise rotation locally.
const RejectPrefix = "invalid"

type Engine struct{}

func New() *Engine { return &Engine{} }

func (e *Engine) Generate(ctx context.Context, credential string, req engine.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.HasPrefix(credential, RejectPrefix) {
		return "", errors.New("mock: credential rejected")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return "", errors.New("mock: empty prompt")
	}

	if req.Format != engine.FormatJSON {
		return fmt.Sprintf("# Mock notes\n\nGenerated by %s.\n\n%s", req.Model, firstLine(req.Prompt)), nil
	}

	seed := seedOf(req.Model + "\n" + req.Prompt)
	if strings.Contains(req.Prompt, "MCQ") {
		n := 5
		if strings.Contains(req.Prompt, "Generate 15") {
			n = 15
		}
		items := make([]map[string]any, n)
		for i := range items {
			items[i] = map[string]any{
				"question":      fmt.Sprintf("Mock question %d?", i+1),
				"options":       []string{"A", "B", "C", "D"},
				"correctAnswer": int((seed + uint32(i)) % 4),
				"explanation":   "Mock explanation.",
			}
		}
		b, _ := json.Marshal(items)
		return "```json\n" + string(b) + "\n```", nil
	}

	chapters := make([]map[string]string, 10)
	for i := range chapters {
		chapters[i] = map[string]string{
			"title":       fmt.Sprintf("Mock Chapter %d", i+1),
			"description": "Mock chapter description.",
		}
	}
	b, _ := json.Marshal(chapters)
	return string(b), nil
}

func seedOf(s string) uint32 {
	h := sha256.Sum256([]byte(s))
	return binary.LittleEndian.Uint32(h[:4])
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
