package artifacts

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/KyberNetwork/logger"

	"github.com/tranvictor/fixturearmy"
)

// Registry resolves templates by contract name ("External") or fully qualified
// name ("contracts/External.sol:External"). It is safe for concurrent use.
type Registry struct {
	mu sync.RWMutex

	// byFQN maps "source:name" => template
	byFQN map[string]*fixturearmy.Template
	// byName maps contract name => every template with that name
	byName map[string][]*fixturearmy.Template

	// unlinked maps the contract and fully qualified names of artifacts
	// skipped for unlinked libraries => the parse error
	unlinked map[string]error
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		byFQN:    make(map[string]*fixturearmy.Template),
		byName:   make(map[string][]*fixturearmy.Template),
		unlinked: make(map[string]error),
	}
}

// Load parses every artifact under root in fsys. Debug files (*.dbg.json) and
// the build-info directory are skipped, so are interfaces and abstract
// contracts which can't be deployed. Artifacts with unlinked libraries are
// skipped too; resolving one of them returns ErrUnlinkedLibraries.
func Load(fsys fs.FS, root string) (*Registry, error) {
	r := NewRegistry()

	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "build-info" {
				return fs.SkipDir
			}
			return nil
		}
		if path.Ext(p) != ".json" || strings.HasSuffix(p, ".dbg.json") {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("couldn't read artifact %s: %w", p, err)
		}
		tmpl, err := Parse(data)
		if errors.Is(err, ErrNoBytecode) {
			logger.WithFields(logger.Fields{
				"path": p,
			}).Debug("skipping artifact without bytecode")
			return nil
		}
		if errors.Is(err, ErrUnlinkedLibraries) {
			name, source := identify(data)
			logger.WithFields(logger.Fields{
				"path":     p,
				"contract": name,
			}).Debug("skipping artifact with unlinked libraries")
			r.addUnlinked(name, source, fmt.Errorf("artifact %s: %w", p, err))
			return nil
		}
		if err != nil {
			return fmt.Errorf("artifact %s: %w", p, err)
		}
		return r.Add(tmpl)
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(logger.Fields{
		"root":      root,
		"artifacts": len(r.byFQN),
	}).Debug("artifacts loaded")

	return r, nil
}

// Add registers a template. Registering the same fully qualified name twice is an error.
func (r *Registry) Add(tmpl *fixturearmy.Template) error {
	if tmpl == nil {
		return ErrTemplateNil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	fqn := tmpl.FullyQualifiedName()
	if _, exists := r.byFQN[fqn]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateArtifact, fqn)
	}
	r.byFQN[fqn] = tmpl
	r.byName[tmpl.Name] = append(r.byName[tmpl.Name], tmpl)
	return nil
}

// Resolve looks a template up by contract name or fully qualified name
func (r *Registry) Resolve(name string) (*fixturearmy.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if strings.Contains(name, ":") {
		if tmpl, ok := r.byFQN[name]; ok {
			return tmpl, nil
		}
		return nil, r.notFound(name)
	}

	candidates := r.byName[name]
	switch len(candidates) {
	case 0:
		return nil, r.notFound(name)
	case 1:
		return candidates[0], nil
	default:
		sources := make([]string, 0, len(candidates))
		for _, c := range candidates {
			sources = append(sources, c.FullyQualifiedName())
		}
		sort.Strings(sources)
		return nil, fmt.Errorf("%w: %s is one of %s", ErrAmbiguous, name, strings.Join(sources, ", "))
	}
}

// addUnlinked remembers why an artifact was left out so resolving it explains itself
func (r *Registry) addUnlinked(name, source string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		return
	}
	r.unlinked[name] = err
	if source != "" {
		r.unlinked[source+":"+name] = err
	}
}

// notFound returns the error for a name with no template. MUST be called with the lock held.
func (r *Registry) notFound(name string) error {
	if err, ok := r.unlinked[name]; ok {
		return err
	}
	return fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Names returns the fully qualified names of all registered templates, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byFQN))
	for fqn := range r.byFQN {
		names = append(names, fqn)
	}
	sort.Strings(names)
	return names
}
