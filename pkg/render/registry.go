package render

import (
	"fmt"
	"strings"

	"screening-bot-be/internal/pkg/apperror"
	"screening-bot-be/internal/pkg/logger"
	"screening-bot-be/pkg/llm/factory"
)

// ModelSpec is one entry of the model registry configuration.
type ModelSpec struct {
	Name     string
	Provider string
	Model    string
	Mode     Mode
}

// ParseModelSpecs reads "Name=provider|model|mode" entries separated by commas.
// Mode may be omitted and defaults to stream.
func ParseModelSpecs(raw string) ([]ModelSpec, error) {
	var specs []ModelSpec
	seen := make(map[string]struct{})

	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, rest, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("model entry %q: missing '='", entry)
		}
		parts := strings.Split(rest, "|")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("model entry %q: want provider|model|mode", entry)
		}

		spec := ModelSpec{
			Name:     strings.TrimSpace(name),
			Provider: strings.ToLower(strings.TrimSpace(parts[0])),
			Model:    strings.TrimSpace(parts[1]),
			Mode:     ModeStream,
		}
		if len(parts) == 3 {
			spec.Mode = Mode(strings.ToLower(strings.TrimSpace(parts[2])))
		}

		if spec.Name == "" || spec.Provider == "" || spec.Model == "" {
			return nil, fmt.Errorf("model entry %q: empty field", entry)
		}
		if spec.Mode != ModeStream && spec.Mode != ModeOnce {
			return nil, fmt.Errorf("model entry %q: unknown mode %q", entry, spec.Mode)
		}
		if _, dup := seen[spec.Name]; dup {
			return nil, fmt.Errorf("model %q configured twice", spec.Name)
		}
		seen[spec.Name] = struct{}{}
		specs = append(specs, spec)
	}

	if len(specs) == 0 {
		return nil, fmt.Errorf("no models configured")
	}
	return specs, nil
}

// Registry maps the public model names to their renderers.
type Registry struct {
	names     []string
	renderers map[string]*Renderer
}

func NewRegistry() *Registry {
	return &Registry{renderers: make(map[string]*Renderer)}
}

// BuildRegistry constructs a renderer per spec through the provider factory.
func BuildRegistry(specs []ModelSpec, ep factory.Endpoints, settings Settings, log logger.ILogger) (*Registry, error) {
	reg := NewRegistry()
	for _, spec := range specs {
		switch spec.Mode {
		case ModeStream:
			p, err := factory.NewStreamingProvider(spec.Provider, spec.Model, ep)
			if err != nil {
				return nil, fmt.Errorf("model %s: %w", spec.Name, err)
			}
			reg.Register(NewStreamRenderer(spec.Name, p, settings, log))
		default:
			p, err := factory.NewLLMProvider(spec.Provider, spec.Model, ep)
			if err != nil {
				return nil, fmt.Errorf("model %s: %w", spec.Name, err)
			}
			reg.Register(NewOnceRenderer(spec.Name, p, settings, log))
		}
	}
	return reg, nil
}

func (r *Registry) Register(renderer *Renderer) {
	if _, exists := r.renderers[renderer.Name()]; !exists {
		r.names = append(r.names, renderer.Name())
	}
	r.renderers[renderer.Name()] = renderer
}

func (r *Registry) Lookup(name string) (*Renderer, error) {
	renderer, ok := r.renderers[name]
	if !ok {
		return nil, apperror.NotFound(apperror.CodeModelUnavailable, fmt.Sprintf("model %q is not available", name))
	}
	return renderer, nil
}

// Names lists models in configuration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}
