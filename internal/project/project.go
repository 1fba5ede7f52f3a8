// Package project reads and writes scene scripts: YAML files listing the user
// actions that build a page, replayed headlessly by the CLI.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// CurrentVersion is the scene file format version written by Save.
const CurrentVersion = 1

// File is a scene script (.scene.yaml).
type File struct {
	Version  int       `yaml:"version"`
	Name     string    `yaml:"name,omitempty"`
	Created  time.Time `yaml:"created,omitempty"`
	Modified time.Time `yaml:"modified,omitempty"`

	// ImagesDir holds the images and stickers referenced by steps, relative
	// to the scene file.
	ImagesDir string `yaml:"images_dir,omitempty"`

	Steps []Step `yaml:"steps"`
}

// Point is an [x, y] pair in screen coordinates.
type Point [2]float64

// Drag moves the pointer from From to To in Steps equal moves.
type Drag struct {
	From  Point `yaml:"from"`
	To    Point `yaml:"to"`
	Steps int   `yaml:"steps,omitempty"`
}

// Pen changes the ink style. Color turns erase off; Erase turns it on.
type Pen struct {
	Color string  `yaml:"color,omitempty"`
	Width float64 `yaml:"width,omitempty"`
	Erase bool    `yaml:"erase,omitempty"`
}

// Step is one user action. Exactly one field must be set.
type Step struct {
	Tool       string  `yaml:"tool,omitempty"`
	Type       *string `yaml:"type,omitempty"`
	SetText    *string `yaml:"set_text,omitempty"`
	Key        string  `yaml:"key,omitempty"`
	Click      *Point  `yaml:"click,omitempty"`
	Drag       *Drag   `yaml:"drag,omitempty"`
	Stroke     []Point `yaml:"stroke,omitempty"`
	Image      string  `yaml:"image,omitempty"`
	Sticker    string  `yaml:"sticker,omitempty"`
	Background string  `yaml:"background,omitempty"`
	Pen        *Pen    `yaml:"pen,omitempty"`
	TextColor  string  `yaml:"text_color,omitempty"`
	Font       int     `yaml:"font,omitempty"`
}

// ErrInvalidStep is returned for a step with no action or more than one.
var ErrInvalidStep = errors.New("step must set exactly one action")

// Validate checks that exactly one action is set.
func (s Step) Validate() error {
	n := 0
	for _, set := range []bool{
		s.Tool != "", s.Type != nil, s.SetText != nil, s.Key != "",
		s.Click != nil, s.Drag != nil, len(s.Stroke) > 0,
		s.Image != "", s.Sticker != "", s.Background != "",
		s.Pen != nil, s.TextColor != "", s.Font != 0,
	} {
		if set {
			n++
		}
	}
	if n != 1 {
		return fmt.Errorf("%w (found %d)", ErrInvalidStep, n)
	}
	return nil
}

// New creates an empty scene.
func New(name string) *File {
	now := time.Now()
	return &File{
		Version:  CurrentVersion,
		Name:     name,
		Created:  now,
		Modified: now,
	}
}

// Load loads and validates a scene file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse scene: %w", err)
	}
	if f.Version == 0 {
		f.Version = CurrentVersion
	}
	if f.Version > CurrentVersion {
		return nil, fmt.Errorf("scene version %d is newer than supported version %d", f.Version, CurrentVersion)
	}
	for i, s := range f.Steps {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return &f, nil
}

// Save writes the scene to path.
func (f *File) Save(path string) error {
	f.Modified = time.Now()
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode scene: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// GetImagesDir returns the absolute images directory for a scene at scenePath.
func (f *File) GetImagesDir(scenePath string) string {
	if f.ImagesDir == "" {
		return filepath.Dir(scenePath)
	}
	if filepath.IsAbs(f.ImagesDir) {
		return f.ImagesDir
	}
	return filepath.Join(filepath.Dir(scenePath), f.ImagesDir)
}
