package provider

import (
	"github.com/valpere/lingodoc/internal/config"
)

// Spec declares one supported provider: its wire name, the settings key its
// credential lives under, and how to build a client from resolved settings.
type Spec struct {
	Name  string
	Build func(cfg config.Settings) Client
}

// Registry lists every supported provider in fallback priority order. When
// the requested provider has no credential the resolver walks this list and
// picks the first entry that does.
var Registry = []Spec{
	{Name: "openai", Build: func(cfg config.Settings) Client { return NewOpenAI(cfg) }},
	{Name: "anthropic", Build: func(cfg config.Settings) Client { return NewAnthropic(cfg) }},
	{Name: "google", Build: func(cfg config.Settings) Client { return NewGoogle(cfg) }},
	{Name: "groq", Build: func(cfg config.Settings) Client { return NewGroq(cfg) }},
	{Name: "cohere", Build: func(cfg config.Settings) Client { return NewCohere(cfg) }},
	{Name: "huggingface", Build: func(cfg config.Settings) Client { return NewHuggingFace(cfg) }},
	{Name: "deepseek", Build: func(cfg config.Settings) Client { return NewDeepSeek(cfg) }},
	{Name: "siliconflow", Build: func(cfg config.Settings) Client { return NewSiliconFlow(cfg) }},
}

// Resolver maps a requested provider name plus available credentials to a
// concrete client. Pure lookup over injected settings; no side effects.
type Resolver struct {
	cfg config.Settings
}

func NewResolver(cfg config.Settings) *Resolver {
	return &Resolver{cfg: cfg}
}

// Resolve picks the provider for a job.
//
// Order of precedence:
//  1. A user whose settings forbid free provider selection is pinned to
//     their configured provider, ignoring the request.
//  2. An unset provider falls back to the system default.
//  3. An unknown provider name also falls back to the default rather than
//     erroring, so a merely unrecognized label does not kill the request.
//  4. A resolved provider without a credential triggers a walk over the
//     Registry priority list; the first credentialed entry wins.
//
// When no provider at all has a credential, ErrNoProviderAvailable is
// returned and the job must not start.
func (r *Resolver) Resolve(requested, userID string) (Client, error) {
	if userID != "" && !r.cfg.ProviderSelectionAllowed(userID) {
		requested = r.cfg.UserProvider(userID)
	}
	if requested == "" {
		requested = r.cfg.DefaultProvider
	}

	spec := specFor(requested)
	if spec == nil {
		spec = specFor(r.cfg.DefaultProvider)
	}

	if spec != nil && r.cfg.Provider(spec.Name).APIKey != "" {
		return spec.Build(r.cfg), nil
	}

	for i := range Registry {
		if r.cfg.Provider(Registry[i].Name).APIKey != "" {
			return Registry[i].Build(r.cfg), nil
		}
	}

	return nil, ErrNoProviderAvailable
}

func specFor(name string) *Spec {
	for i := range Registry {
		if Registry[i].Name == name {
			return &Registry[i]
		}
	}
	return nil
}
