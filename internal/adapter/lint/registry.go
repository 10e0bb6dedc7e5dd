package lint

import (
	"path/filepath"
	"sort"
	"strings"
)

// Logger is the slice of logging the registry needs.
type Logger interface {
	Debugf(format string, args ...interface{})
}

// Registry maps file extensions to the lint handlers available on this
// host. Probing happens once, at construction.
type Registry struct {
	byExt map[string][]Handler
}

// NewRegistry probes PATH for each known lint tool and registers the ones
// present. Missing tools are logged and skipped; the bot reviews whatever
// it can.
func NewRegistry(logger Logger) *Registry {
	registry := &Registry{byExt: make(map[string][]Handler)}

	for _, probe := range []func() (Handler, error){
		NewFlake8,
		NewPydocstyle,
		NewRubocop,
		NewESLint,
	} {
		handler, err := probe()
		if err != nil {
			logger.Debugf("lint handler unavailable: %v", err)
			continue
		}
		logger.Debugf("loaded lint handler %s", handler.Name())
		registry.add(handler)
	}

	return registry
}

// NewRegistryWith builds a registry from pre-constructed handlers. Local
// mode and tests use it to inject fakes.
func NewRegistryWith(handlers ...Handler) *Registry {
	registry := &Registry{byExt: make(map[string][]Handler)}
	for _, handler := range handlers {
		registry.add(handler)
	}
	return registry
}

func (r *Registry) add(handler Handler) {
	for _, ext := range handler.Extensions() {
		ext = strings.ToLower(ext)
		r.byExt[ext] = append(r.byExt[ext], handler)
	}
}

// HandlersFor returns the handlers registered for the file's extension,
// or nil when its file type has none.
func (r *Registry) HandlersFor(path string) []Handler {
	return r.byExt[strings.ToLower(filepath.Ext(path))]
}

// Extensions returns every extension with at least one handler, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
