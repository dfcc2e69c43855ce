package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// FileSource is a CourseSource backed by a directory of JSON course files.
// Each *.json file holds one course. Files are read on every call, so edits
// take effect without a restart.
type FileSource struct {
	dir string
}

// NewFileSource creates a FileSource over dir.
func NewFileSource(dir string) (*FileSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("course directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("course directory %q is not a directory", dir)
	}
	return &FileSource{dir: dir}, nil
}

// Course implements CourseSource.
func (f *FileSource) Course(_ context.Context, courseID string) (Course, error) {
	courses, err := f.load()
	if err != nil {
		return Course{}, err
	}
	for _, c := range courses {
		if c.ID == courseID {
			return c, nil
		}
	}
	return Course{}, fmt.Errorf("course %q not found in %s", courseID, f.dir)
}

// Courses implements CourseSource. Courses are returned in file-name order so
// reindex runs are deterministic.
func (f *FileSource) Courses(_ context.Context) ([]Course, error) {
	return f.load()
}

func (f *FileSource) load() ([]Course, error) {
	paths, err := filepath.Glob(filepath.Join(f.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list course files: %w", err)
	}
	sort.Strings(paths)

	courses := make([]Course, 0, len(paths))
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read course file %s: %w", path, err)
		}
		var c courseFile
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("parse course file %s: %w", path, err)
		}
		courses = append(courses, c.toCourse())
	}
	return courses, nil
}

// File shapes; kept separate from the indexer types so the on-disk format can
// evolve without touching indexing.
type courseFile struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Modules     []moduleFile `json:"modules"`
}

type moduleFile struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Lessons     []lessonFile `json:"lessons"`
}

type lessonFile struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (c courseFile) toCourse() Course {
	out := Course{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Modules:     make([]Module, 0, len(c.Modules)),
	}
	for _, m := range c.Modules {
		mod := Module{
			ID:          m.ID,
			Title:       m.Title,
			Description: m.Description,
			Lessons:     make([]Lesson, 0, len(m.Lessons)),
		}
		for _, l := range m.Lessons {
			mod.Lessons = append(mod.Lessons, Lesson{ID: l.ID, Title: l.Title, Body: l.Body})
		}
		out.Modules = append(out.Modules, mod)
	}
	return out
}
