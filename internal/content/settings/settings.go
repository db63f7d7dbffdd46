// Package settings is the single source of operator-maintained configuration
// consulted during resolution: the credential list and the note style instruction.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/nst-content-backend/internal/platform/logger"
)

type Provider interface {
	Credentials(ctx context.Context) ([]string, error)
	StyleInstruction(ctx context.Context) (string, error)
}

// Static serves fixed values; it seeds Store and stands in for it in tests.
type Static struct {
	Keys  []string
	Style string
}

func (s Static) Credentials(context.Context) ([]string, error) {
	return append([]string(nil), s.Keys...), nil
}

func (s Static) StyleInstruction(context.Context) (string, error) {
	return s.Style, nil
}

const settingsRowID = 1

type SystemSettings struct {
	ID                   uint           `gorm:"primaryKey;autoIncrement:false" json:"id"`
	APIKeys              datatypes.JSON `gorm:"column:api_keys" json:"-"`
	NoteGenerationPrompt string         `gorm:"column:note_generation_prompt;type:text" json:"note_generation_prompt"`
	UpdatedAt            time.Time      `gorm:"not null" json:"updated_at"`
}

func (SystemSettings) TableName() string { return "system_settings" }

// Update carries a partial change; nil fields are left as they are.
type Update struct {
	APIKeys          *[]string
	StyleInstruction *string
}

// Snapshot is the admin-facing view. It never exposes key material.
type Snapshot struct {
	CredentialCount  int    `json:"credential_count"`
	StyleInstruction string `json:"style_instruction"`
	Persisted        bool   `json:"persisted"`
}

type Store struct {
	db       *gorm.DB
	log      *logger.Logger
	fallback Static
}

func NewStore(db *gorm.DB, log *logger.Logger, fallback Static) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{db: db, log: log.With("component", "SettingsStore"), fallback: fallback}
}

func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(&SystemSettings{})
}

func (s *Store) load(ctx context.Context) (*SystemSettings, error) {
	var row SystemSettings
	err := s.db.WithContext(ctx).Where("id = ?", settingsRowID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load system settings: %w", err)
	}
	return &row, nil
}

func (s *Store) Credentials(ctx context.Context) ([]string, error) {
	row, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return s.fallback.Credentials(ctx)
	}
	return decodeKeys(row.APIKeys)
}

func (s *Store) StyleInstruction(ctx context.Context) (string, error) {
	row, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	if row == nil {
		return s.fallback.StyleInstruction(ctx)
	}
	return row.NoteGenerationPrompt, nil
}

func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	row, err := s.load(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if row == nil {
		return Snapshot{CredentialCount: countNonEmpty(s.fallback.Keys), StyleInstruction: s.fallback.Style}, nil
	}
	keys, err := decodeKeys(row.APIKeys)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{CredentialCount: countNonEmpty(keys), StyleInstruction: row.NoteGenerationPrompt, Persisted: true}, nil
}

// Save applies u on top of the current values (stored row, or the seed when
// nothing is stored yet) and upserts the single settings row.
func (s *Store) Save(ctx context.Context, u Update) error {
	row, err := s.load(ctx)
	if err != nil {
		return err
	}
	if row == nil {
		seed, err := json.Marshal(s.fallback.Keys)
		if err != nil {
			return err
		}
		row = &SystemSettings{ID: settingsRowID, APIKeys: seed, NoteGenerationPrompt: s.fallback.Style}
	}
	if u.APIKeys != nil {
		keys := make([]string, 0, len(*u.APIKeys))
		for _, k := range *u.APIKeys {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
		raw, err := json.Marshal(keys)
		if err != nil {
			return err
		}
		row.APIKeys = raw
	}
	if u.StyleInstruction != nil {
		row.NoteGenerationPrompt = *u.StyleInstruction
	}
	row.UpdatedAt = time.Now().UTC()

	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(row).Error
	if err != nil {
		return fmt.Errorf("save system settings: %w", err)
	}
	s.log.Info("system settings saved", "key_count", countNonEmpty(mustDecode(row.APIKeys)))
	return nil
}

func decodeKeys(raw datatypes.JSON) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var keys []string
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, fmt.Errorf("decode stored api keys: %w", err)
	}
	return keys, nil
}

func mustDecode(raw datatypes.JSON) []string {
	keys, _ := decodeKeys(raw)
	return keys
}

func countNonEmpty(keys []string) int {
	n := 0
	for _, k := range keys {
		if strings.TrimSpace(k) != "" {
			n++
		}
	}
	return n
}
