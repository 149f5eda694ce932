package genkit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/fogfish/opts"

	"github.com/casualjim/genkit/internal/registry"
	"github.com/casualjim/genkit/pkg/slogx"
)

// Plugin contributes actions to a Genkit instance.
type Plugin interface {
	// Name returns the plugin name, also used as the provider prefix of the actions
	// it defines. Names must be unique within one Genkit instance.
	Name() string
	// Init defines the plugin's actions on g. It is called once, from Init.
	Init(ctx context.Context, g *Genkit) error
}

// Genkit holds the actions contributed by plugins and the defaults used by
// Generate.
type Genkit struct {
	actions      registry.Registry[*action]
	byName       registry.Registry[Plugin]
	plugins      []Plugin
	defaultModel string
	log          *slog.Logger
}

type config struct {
	plugins      []Plugin
	defaultModel string
}

// Option configures Init.
type Option = opts.Option[config]

// WithDefaultModel sets the model Generate falls back to, as "provider/name".
var WithDefaultModel = opts.ForName[config, string]("defaultModel")

// WithPlugins adds plugins, initialised in the given order.
func WithPlugins(plugins ...Plugin) Option {
	return opts.Type[config](func(c *config) error {
		c.plugins = append(c.plugins, plugins...)
		return nil
	})
}

// Init creates a Genkit instance and initialises its plugins.
// The first plugin that fails aborts Init, and the plugins initialised before it
// are closed when they implement io.Closer.
func Init(ctx context.Context, options ...Option) (*Genkit, error) {
	var cfg config
	if err := opts.Apply(&cfg, options); err != nil {
		return nil, err
	}

	g := &Genkit{
		actions:      registry.New[*action](),
		byName:       registry.New[Plugin](),
		defaultModel: cfg.defaultModel,
		log:          slog.Default().With(slogx.LoggerName("genkit")),
	}

	for _, p := range cfg.plugins {
		if p == nil {
			g.closePlugins()
			return nil, fmt.Errorf("plugin cannot be nil")
		}
		name := p.Name()
		if _, dup := g.byName.GetOrAdd(name, func() Plugin { return p }); dup {
			g.closePlugins()
			return nil, fmt.Errorf("plugin %q registered more than once", name)
		}

		if err := p.Init(ctx, g); err != nil {
			g.closePlugins()
			return nil, fmt.Errorf("failed to initialize plugin %q: %w", name, err)
		}
		g.plugins = append(g.plugins, p)
		g.log.Debug("plugin initialized", slogx.Plugin(name))
	}

	return g, nil
}

// closePlugins closes the initialised plugins in reverse order.
func (g *Genkit) closePlugins() {
	for _, p := range slices.Backward(g.plugins) {
		c, ok := p.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			g.log.Warn("failed to close plugin", slogx.Plugin(p.Name()), slogx.Error(err))
		}
	}
}

// Plugins returns the initialised plugins in initialisation order.
func (g *Genkit) Plugins() []Plugin {
	return append([]Plugin(nil), g.plugins...)
}

// LookupPlugin returns the initialised plugin called name, or nil.
func (g *Genkit) LookupPlugin(name string) Plugin {
	p, ok := g.byName.Get(name)
	if !ok {
		return nil
	}
	return p
}

// DefaultModel returns the "provider/name" of the default model, if any.
func (g *Genkit) DefaultModel() string {
	return g.defaultModel
}
