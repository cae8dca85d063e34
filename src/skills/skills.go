// Package skills reads the skill graph file shown by the skill-graph window.
//
// The file holds groups of tasks:
//
//	skills:
//	  - name: Git
//	    level: Basic
//	    prerequisites: [Shell]
//	    tasks:
//	      - name: Commit a change
//	        steps: [{tag: "1", text: "Stage files"}]
//	        commands: ["git add -A", {code: "git commit", label: "commit"}]
//
// JSON and YAML are both accepted; the extension decides.
package skills

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type Step struct {
	Tag  string `json:"tag,omitempty" yaml:"tag"`
	Text string `json:"text" yaml:"text"`
}

// RawTask is a task as written in the file.
type RawTask struct {
	Name          string   `json:"name,omitempty" yaml:"name"`
	Task          string   `json:"task,omitempty" yaml:"task"`
	Prerequisites []string `json:"prerequisites,omitempty" yaml:"prerequisites"`
	Steps         []Step   `json:"steps,omitempty" yaml:"steps"`
	// Commands are plain strings or objects with code/cmd/text/label/tag.
	Commands []any `json:"commands,omitempty" yaml:"commands"`
}

type Group struct {
	Name          string    `json:"name,omitempty" yaml:"name"`
	Skill         string    `json:"skill,omitempty" yaml:"skill"`
	Level         string    `json:"level" yaml:"level"`
	Prerequisites []string  `json:"prerequisites,omitempty" yaml:"prerequisites"`
	Tasks         []RawTask `json:"tasks" yaml:"tasks"`
}

type File struct {
	Skills []Group `json:"skills" yaml:"skills"`
}

// Task is one flattened task with its group's name, level and prerequisites.
type Task struct {
	Skill         string   `json:"skill"`
	Level         string   `json:"level"`
	Prerequisites []string `json:"prerequisites"`
	Task          string   `json:"task"`
	Steps         []Step   `json:"steps"`
	Commands      []any    `json:"commands,omitempty"`
}

// GroupedSkill is the per-skill view rendered by the window.
type GroupedSkill struct {
	Name  string `json:"name"`
	Level string `json:"level"`
	Tasks []Task `json:"tasks"`
}

// Levels in display order. Unknown levels sort last.
var Levels = []string{"Basic", "Intermediate", "Advanced"}

func levelRank(l string) int {
	for i, v := range Levels {
		if v == l {
			return i
		}
	}
	return len(Levels)
}

// Load reads path. A missing file yields an empty graph.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("skills: %s not found, showing an empty graph", path)
		return &File{Skills: []Group{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read skills file: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes data as YAML for .yaml/.yml and JSON otherwise.
func Parse(data []byte, ext string) (*File, error) {
	var f File
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse skills YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse skills JSON: %w", err)
		}
	}
	if f.Skills == nil {
		f.Skills = []Group{}
	}
	return &f, nil
}

// JSON returns the file normalised to JSON, whatever its source format.
func (f *File) JSON() (string, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("failed to serialize skills: %w", err)
	}
	return string(data), nil
}

// Flatten expands groups into tasks, sorted by level then skill name.
func (f *File) Flatten() []Task {
	tasks := []Task{}
	for _, g := range f.Skills {
		name := g.Name
		if name == "" {
			name = g.Skill
		}
		for _, t := range g.Tasks {
			title := t.Name
			if title == "" {
				title = t.Task
			}
			prereq := make([]string, 0, len(g.Prerequisites)+len(t.Prerequisites))
			prereq = append(prereq, g.Prerequisites...)
			prereq = append(prereq, t.Prerequisites...)
			steps := t.Steps
			if steps == nil {
				steps = []Step{}
			}
			tasks = append(tasks, Task{
				Skill:         name,
				Level:         g.Level,
				Prerequisites: prereq,
				Task:          title,
				Steps:         steps,
				Commands:      t.Commands,
			})
		}
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		if ri, rj := levelRank(tasks[i].Level), levelRank(tasks[j].Level); ri != rj {
			return ri < rj
		}
		return tasks[i].Skill < tasks[j].Skill
	})
	return tasks
}

// GroupBySkill collects tasks per skill, keeping first-seen order.
func GroupBySkill(tasks []Task) []GroupedSkill {
	out := []GroupedSkill{}
	index := map[string]int{}
	for _, t := range tasks {
		i, ok := index[t.Skill]
		if !ok {
			i = len(out)
			index[t.Skill] = i
			out = append(out, GroupedSkill{Name: t.Skill, Level: t.Level})
		}
		out[i].Tasks = append(out[i].Tasks, t)
	}
	return out
}

// Filter keeps skills whose name contains search (case-insensitive) and,
// unless level is empty, whose level matches.
func Filter(groups []GroupedSkill, search, level string) []GroupedSkill {
	search = strings.ToLower(strings.TrimSpace(search))
	out := []GroupedSkill{}
	for _, g := range groups {
		if search != "" && !strings.Contains(strings.ToLower(g.Name), search) {
			continue
		}
		if level != "" && g.Level != level {
			continue
		}
		out = append(out, g)
	}
	return out
}

// CommandText renders one command entry for display.
func CommandText(c any) string {
	switch v := c.(type) {
	case string:
		return v
	case map[string]any:
		for _, k := range []string{"code", "cmd", "text", "label"} {
			if s, ok := v[k].(string); ok && s != "" {
				return s
			}
		}
	}
	return fmt.Sprint(c)
}
