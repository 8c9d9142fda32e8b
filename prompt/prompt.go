package prompt

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"text/template"
)

// Template represents a prompt template with variables
type Template struct {
	Name     string
	Version  string
	Content  string
	template *template.Template
}

// NewTemplate creates a new prompt template
func NewTemplate(name, version, content string) (*Template, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	return &Template{
		Name:     name,
		Version:  version,
		Content:  content,
		template: tmpl,
	}, nil
}

// MustTemplate is like NewTemplate but panics on parse errors. Intended for package-level defaults.
func MustTemplate(name, version, content string) *Template {
	tmpl, err := NewTemplate(name, version, content)
	if err != nil {
		panic(err)
	}
	return tmpl
}

// Render renders the template with given variables
func (t *Template) Render(vars map[string]any) (string, error) {
	var buf strings.Builder
	if err := t.template.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", t.Name, err)
	}
	return buf.String(), nil
}

// Key identifies a template inside a Manager.
func (t *Template) Key() string {
	return Key(t.Name, t.Version)
}

// Key joins a template name and version.
func Key(name, version string) string {
	if version == "" {
		return name
	}
	return name + "@" + version
}

// Manager manages prompt templates
// All operations are thread-safe using RWMutex protection
type Manager struct {
	mu        sync.RWMutex // Protects templates map
	templates map[string]*Template
}

// NewManager creates a new prompt manager
func NewManager() *Manager {
	return &Manager{
		templates: make(map[string]*Template),
	}
}

// Register adds a template to the manager
func (m *Manager) Register(tmpl *Template) error {
	if tmpl == nil || tmpl.Name == "" {
		return fmt.Errorf("template name cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := tmpl.Key()
	if _, exists := m.templates[key]; exists {
		return fmt.Errorf("template %s already registered", key)
	}
	m.templates[key] = tmpl
	return nil
}

// Replace registers tmpl, overwriting any template with the same key.
func (m *Manager) Replace(tmpl *Template) error {
	if tmpl == nil || tmpl.Name == "" {
		return fmt.Errorf("template name cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[tmpl.Key()] = tmpl
	return nil
}

// RegisterString registers a template from string content
func (m *Manager) RegisterString(name, version, content string) error {
	tmpl, err := NewTemplate(name, version, content)
	if err != nil {
		return err
	}
	return m.Register(tmpl)
}

// Get retrieves a template by name and version
func (m *Manager) Get(name, version string) (*Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := Key(name, version)
	tmpl, ok := m.templates[key]
	if !ok {
		return nil, fmt.Errorf("template %s not found", key)
	}
	return tmpl, nil
}

// Render renders a template by name with given variables
func (m *Manager) Render(name, version string, vars map[string]any) (string, error) {
	tmpl, err := m.Get(name, version)
	if err != nil {
		return "", err
	}
	return tmpl.Render(vars)
}

// List returns all registered template keys in sorted order
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.templates))
	for name := range m.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
