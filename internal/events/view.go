package events

import "sync"

// View collects what handlers want rendered on the host page.
type View struct {
	mu           sync.Mutex
	assignments  map[string]any
	templateDirs []string
	templates    []string
}

// NewView returns an empty View.
func NewView() *View {
	return &View{assignments: map[string]any{}}
}

// Assign sets a template variable, replacing any earlier value.
func (v *View) Assign(key string, value any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.assignments[key] = value
}

// Get returns an assigned template variable.
func (v *View) Get(key string) (any, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	val, ok := v.assignments[key]
	return val, ok
}

// AddTemplateDir registers a directory the host should resolve templates in.
func (v *View) AddTemplateDir(dir string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, d := range v.templateDirs {
		if d == dir {
			return
		}
	}
	v.templateDirs = append(v.templateDirs, dir)
}

// ExtendsTemplate asks the host to extend the current page with template.
func (v *View) ExtendsTemplate(template string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.templates = append(v.templates, template)
}

// Rendered is the wire form of a View.
type Rendered struct {
	Assignments  map[string]any `json:"assignments"`
	TemplateDirs []string       `json:"templateDirs"`
	Templates    []string       `json:"templates"`
}

// Render snapshots the view.
func (v *View) Render() Rendered {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := Rendered{
		Assignments:  make(map[string]any, len(v.assignments)),
		TemplateDirs: append([]string{}, v.templateDirs...),
		Templates:    append([]string{}, v.templates...),
	}
	for k, val := range v.assignments {
		out.Assignments[k] = val
	}
	return out
}
