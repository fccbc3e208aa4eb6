// Package guide tracks a player's progress through a step-by-step account guide.
package guide

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/ironman.yaml
var ironmanYAML []byte

const maxStepRunes = 500

type Step struct {
	ID    string `yaml:"id"`
	Text  string `yaml:"text"`
	Items string `yaml:"items"`
	Time  string `yaml:"time"`
}

type Section struct {
	Title string `yaml:"title"`
	Steps []Step `yaml:"steps"`
}

type Chapter struct {
	Title    string    `yaml:"title"`
	Sections []Section `yaml:"sections"`
}

type Definition struct {
	Title    string    `yaml:"title"`
	Chapters []Chapter `yaml:"chapters"`
}

// position locates a step inside the guide.
type position struct {
	chapter int
	section int
	step    Step
}

// Tracker holds the guide and the set of completed step IDs, persisted as a
// JSON array of IDs.
type Tracker struct {
	mu        sync.Mutex
	title     string
	chapters  []Chapter
	steps     []position
	completed map[string]bool
	path      string
}

// Parse reads a guide definition. Steps without an ID get "step_<n>" by position.
func Parse(data []byte) (Definition, error) {
	var definition Definition
	if err := yaml.Unmarshal(data, &definition); err != nil {
		return Definition{}, fmt.Errorf("parse guide: %w", err)
	}

	n := 0
	for c := range definition.Chapters {
		for s := range definition.Chapters[c].Sections {
			steps := definition.Chapters[c].Sections[s].Steps
			for i := range steps {
				if steps[i].ID == "" {
					steps[i].ID = fmt.Sprintf("step_%d", n)
				}
				n++
			}
		}
	}
	if n == 0 {
		return Definition{}, errors.New("parse guide: no steps")
	}
	return definition, nil
}

// Open loads the embedded ironman guide with progress from path.
func Open(path string) (*Tracker, error) {
	definition, err := Parse(ironmanYAML)
	if err != nil {
		return nil, err
	}
	return New(definition, path)
}

// New creates a tracker for definition. A missing progress file means no progress.
func New(definition Definition, path string) (*Tracker, error) {
	tracker := &Tracker{
		title:     definition.Title,
		chapters:  definition.Chapters,
		completed: make(map[string]bool),
		path:      path,
	}

	for c, chapter := range definition.Chapters {
		for s, section := range chapter.Sections {
			for _, step := range section.Steps {
				tracker.steps = append(tracker.steps, position{chapter: c, section: s, step: step})
			}
		}
	}

	if err := tracker.load(); err != nil {
		return nil, err
	}
	return tracker, nil
}

// Current describes the first step not yet completed.
func (t *Tracker) Current() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentLocked()
}

// Advance marks the current step complete and describes the next one.
func (t *Tracker) Advance() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	current, ok := t.current()
	if !ok {
		return "All steps complete!", nil
	}

	t.completed[current.step.ID] = true
	if err := t.save(); err != nil {
		delete(t.completed, current.step.ID)
		return "", err
	}
	return "Step completed! " + t.currentLocked(), nil
}

// Undo reopens the last completed step in guide order.
func (t *Tracker) Undo() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := len(t.steps) - 1; i >= 0; i-- {
		id := t.steps[i].step.ID
		if !t.completed[id] {
			continue
		}

		delete(t.completed, id)
		if err := t.save(); err != nil {
			t.completed[id] = true
			return "", err
		}
		return "Undid last step. " + t.currentLocked(), nil
	}
	return "Nothing to undo.", nil
}

// Status summarizes overall progress and where the player is.
func (t *Tracker) Status() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	done := t.doneCount()
	total := len(t.steps)
	percent := float64(done) * 100 / float64(total)

	var builder strings.Builder
	fmt.Fprintf(&builder, "**%s Progress**\n\n", t.title)
	fmt.Fprintf(&builder, "%.1f%% complete (%d / %d steps)\n", percent, done, total)

	if current, ok := t.current(); ok {
		fmt.Fprintf(&builder, "Currently on: Chapter %d, %s", current.chapter+1, t.chapters[current.chapter].Sections[current.section].Title)
	} else {
		builder.WriteString("All steps completed!")
	}
	return builder.String()
}

// Reset clears all progress.
func (t *Tracker) Reset() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	previous := t.completed
	t.completed = make(map[string]bool)
	if err := t.save(); err != nil {
		t.completed = previous
		return "", err
	}
	return "Progress reset. " + t.currentLocked(), nil
}

// Completed returns the completed step IDs in guide order.
func (t *Tracker) Completed() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completedIDs()
}

func (t *Tracker) currentLocked() string {
	current, ok := t.current()
	if !ok {
		return fmt.Sprintf("You've completed the entire %s guide! Congrats!", t.title)
	}

	chapter := t.chapters[current.chapter]
	section := chapter.Sections[current.section]

	text := current.step.Text
	if runes := []rune(text); len(runes) > maxStepRunes {
		text = string(runes[:maxStepRunes]) + "..."
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "**%s**\nSection: %s\n\n%s", chapter.Title, section.Title, text)
	if items := current.step.Items; items != "" && !strings.EqualFold(items, "none") {
		builder.WriteString("\n\nItems: " + items)
	}
	if current.step.Time != "" {
		builder.WriteString("\nEst. time: " + current.step.Time)
	}
	builder.WriteString("\n\nType /iron next to mark complete, /iron status for progress.")
	return builder.String()
}

func (t *Tracker) current() (position, bool) {
	for _, pos := range t.steps {
		if !t.completed[pos.step.ID] {
			return pos, true
		}
	}
	return position{}, false
}

func (t *Tracker) doneCount() int {
	n := 0
	for _, pos := range t.steps {
		if t.completed[pos.step.ID] {
			n++
		}
	}
	return n
}

func (t *Tracker) completedIDs() []string {
	ids := make([]string, 0, len(t.completed))
	for _, pos := range t.steps {
		if t.completed[pos.step.ID] {
			ids = append(ids, pos.step.ID)
		}
	}
	return ids
}

func (t *Tracker) load() error {
	if t.path == "" {
		return nil
	}

	data, err := os.ReadFile(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read guide progress: %w", err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		slog.Warn("ignoring unreadable guide progress", "path", t.path, "error", err)
		return nil
	}
	for _, id := range ids {
		t.completed[id] = true
	}
	return nil
}

// save rewrites the progress file through a temp file and rename.
func (t *Tracker) save() error {
	if t.path == "" {
		return nil
	}

	data, err := json.Marshal(t.completedIDs())
	if err != nil {
		return err
	}

	dir := filepath.Dir(t.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create guide progress directory: %w", err)
	}

	file, err := os.CreateTemp(dir, ".guide_progress-*.json")
	if err != nil {
		return fmt.Errorf("create guide progress file: %w", err)
	}
	tempPath := file.Name()
	defer os.Remove(tempPath)

	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("write guide progress: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("sync guide progress: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close guide progress: %w", err)
	}

	if err := os.Rename(tempPath, t.path); err != nil {
		return fmt.Errorf("replace guide progress: %w", err)
	}
	return nil
}
