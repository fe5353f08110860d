package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// builtinPrompt describes a prompt askdocs knows how to fill.
type builtinPrompt struct {
	text         string
	placeholders []string
}

var builtinPrompts = map[string]builtinPrompt{
	driven.PromptAnswer: {
		text:         driven.DefaultAnswerPrompt,
		placeholders: []string{"{context}", "{input}"},
	},
}

// PromptStore serves prompt templates from <data_dir>/prompts/<name>.txt.
//
// The directory is seeded with the built-in templates on the first Load, so
// operators have a file to edit. An edited template that drops one of its
// placeholders is ignored in favour of the built-in one, since the model
// would otherwise never see the question or the retrieved passages.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu     sync.RWMutex
	loaded map[string]string
}

// PromptDir returns the prompt directory inside a data directory.
func PromptDir(dataDir string) string {
	return filepath.Join(dataDir, "prompts")
}

// NewPromptStore creates a store rooted at dir, db/prompts when empty.
// Nothing touches the disk until Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		dir = PromptDir("db")
	}
	return &PromptStore{dir: dir, loaded: make(map[string]string)}, nil
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the template called name. Results are cached until Reload.
func (s *PromptStore) Load(name string) (string, error) {
	builtin, known := builtinPrompts[name]
	if !known {
		return "", fmt.Errorf("load prompt %q: unknown prompt", name)
	}

	s.seedOnce.Do(s.seed)
	if s.seedErr != nil {
		logger.Debug("Prompt directory unavailable: %v", s.seedErr)
		return builtin.text, nil
	}

	s.mu.RLock()
	cached, ok := s.loaded[name]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	text := builtin.text
	custom, err := s.read(name)
	switch {
	case err != nil:
		logger.Debug("Prompt %s: %v, using built-in", name, err)
	case !hasPlaceholders(custom, builtin.placeholders):
		logger.Warn("Prompt %s must contain %s; using built-in",
			s.path(name), strings.Join(builtin.placeholders, " and "))
	default:
		text = custom
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.loaded[name]; ok {
		return existing, nil
	}
	s.loaded[name] = text
	return text, nil
}

// Reload forgets cached templates so the next Load reads the files again.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.loaded = make(map[string]string)
	s.mu.Unlock()
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

func (s *PromptStore) read(name string) (string, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// seed writes any missing built-in template. Existing files are kept as is.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}
	for name, p := range builtinPrompts {
		_, err := os.Stat(s.path(name))
		if !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := os.WriteFile(s.path(name), []byte(p.text+"\n"), 0600); err != nil {
			s.seedErr = fmt.Errorf("seed prompt %q: %w", name, err)
			return
		}
	}
}

func hasPlaceholders(text string, placeholders []string) bool {
	for _, p := range placeholders {
		if !strings.Contains(text, p) {
			return false
		}
	}
	return true
}
