package criteria

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/codebuildervaibhav/presentation-analysis/internal/types"
)

var invalidChars = regexp.MustCompile(`[\\/*?:"<>|]`)

// Store persists user-defined scoring rubrics as JSON files keyed by
// competition name.
type Store struct {
	dir string
}

// NewStore creates the criteria directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create criteria directory: %v", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes the rubric for the given competition name, replacing
// any previous version.
func (s *Store) Save(competitionName string, criteria []types.Criterion) error {
	data, err := json.MarshalIndent(criteria, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal criteria: %v", err)
	}

	path := filepath.Join(s.dir, SanitizeName(competitionName)+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to save criteria: %v", err)
	}
	return nil
}

// Load returns the rubric stored under the given competition name, or
// an empty slice when none exists.
func (s *Store) Load(competitionName string) ([]types.Criterion, error) {
	path := filepath.Join(s.dir, SanitizeName(competitionName)+".json")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []types.Criterion{}, nil
		}
		return nil, fmt.Errorf("failed to read criteria file: %v", err)
	}

	var criteria []types.Criterion
	if err := json.Unmarshal(data, &criteria); err != nil {
		return nil, fmt.Errorf("failed to parse criteria file: %v", err)
	}
	return criteria, nil
}

// SanitizeName strips filesystem-unsafe characters and maps spaces to
// underscores so the competition name can serve as a filename.
func SanitizeName(name string) string {
	safe := invalidChars.ReplaceAllString(name, "")
	safe = strings.ReplaceAll(safe, " ", "_")
	if safe == "" {
		safe = "default_criteria"
	}
	return safe
}
