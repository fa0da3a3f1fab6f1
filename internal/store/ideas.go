package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/extremevalue/research-kit/internal/domain"
	"github.com/extremevalue/research-kit/internal/pipeline"
)

func (s *Store) ideaPath(id string) string {
	return filepath.Join(s.root, "ideas", id+".yaml")
}

// CreateIdea persists a new idea record in `proposed` status.
func (s *Store) CreateIdea(idea domain.IdeaRecord) error {
	path := s.ideaPath(idea.ID)
	if _, err := os.Stat(path); err == nil {
		return pipeline.Wrap("store", pipeline.KindConflict, fmt.Errorf("idea %s already exists", idea.ID))
	}
	return writeYAMLFile(path, idea)
}

// GetIdea loads an idea by ID.
func (s *Store) GetIdea(id string) (domain.IdeaRecord, error) {
	var idea domain.IdeaRecord
	data, err := os.ReadFile(s.ideaPath(id))
	if os.IsNotExist(err) {
		return idea, pipeline.Wrap("store", pipeline.KindNotFound, fmt.Errorf("idea %s not found", id))
	}
	if err != nil {
		return idea, fmt.Errorf("read idea %s: %w", id, err)
	}
	if err := unmarshalYAML(data, &idea); err != nil {
		return idea, fmt.Errorf("parse idea %s: %w", id, err)
	}
	return idea, nil
}

// UpdateIdea rewrites an idea record in place.
func (s *Store) UpdateIdea(idea domain.IdeaRecord) error {
	return writeYAMLFile(s.ideaPath(idea.ID), idea)
}

// HasCycle reports whether adding candidateParent as a parent of id would
// create a cycle in the idea DAG, walking candidateParent's own parent
// chain looking for id.
func (s *Store) HasCycle(id, candidateParent string) (bool, error) {
	if id == candidateParent {
		return true, nil
	}
	visited := map[string]bool{}
	frontier := []string{candidateParent}
	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]
		if cur == id {
			return true, nil
		}
		if visited[cur] {
			continue
		}
		visited[cur] = true
		idea, err := s.GetIdea(cur)
		if pipeline.IsKind(err, pipeline.KindNotFound) {
			continue
		}
		if err != nil {
			return false, err
		}
		frontier = append(frontier, idea.Parents...)
	}
	return false, nil
}

// ListIdeas returns every idea with the given status.
func (s *Store) ListIdeas(status domain.IdeaStatus) ([]domain.IdeaRecord, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, "ideas"))
	if err != nil {
		return nil, fmt.Errorf("list ideas: %w", err)
	}
	var out []domain.IdeaRecord
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.root, "ideas", e.Name()))
		if err != nil {
			return nil, err
		}
		var idea domain.IdeaRecord
		if err := unmarshalYAML(data, &idea); err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		if status == "" || idea.Status == status {
			out = append(out, idea)
		}
	}
	return out, nil
}
