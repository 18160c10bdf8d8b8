package scan

import (
	"io"

	"gopkg.in/yaml.v3"
)

type Report struct {
	Games []GameReport `yaml:"games"`
}

type GameReport struct {
	Game    string         `yaml:"game"`
	Root    string         `yaml:"root"`
	Courses []CourseReport `yaml:"courses,omitempty"`
	Error   string         `yaml:"error,omitempty"`
}

type CourseReport struct {
	Name        string         `yaml:"name,omitempty"`
	File        string         `yaml:"file"`
	Skipped     bool           `yaml:"skipped,omitempty"`
	Files       int            `yaml:"files,omitempty"`
	Arrange     string         `yaml:"arrange,omitempty"`
	ArrangeSize int            `yaml:"arrange_size,omitempty"`
	ObjectLists map[string]int `yaml:"object_lists,omitempty"`
	MapModel    int            `yaml:"map_model,omitempty"`
	Error       string         `yaml:"error,omitempty"`
}

// Failures counts targets and courses that could not be scanned. Skipped
// courses are not failures.
func (r *Report) Failures() int {
	n := 0
	for _, g := range r.Games {
		if g.Error != "" {
			n++
		}
		for _, c := range g.Courses {
			if c.Error != "" {
				n++
			}
		}
	}
	return n
}

func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}
