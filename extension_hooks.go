package seoreports

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-seo-reports/core"
)

type ProviderPack struct {
	Name      string
	Providers []core.ReportProvider
}

// ReportKindPack advertises extra report kinds a downstream deployment layers
// on top of a provider, so dashboards can render them without probing.
type ReportKindPack struct {
	Name       string
	ProviderID string
	Kinds      []string
}

type CommandQueryBundleFactory func(service CommandQueryService) (any, error)

type ExtensionHooks struct {
	mu sync.RWMutex

	providerPacks map[string]ProviderPack
	kindPacks     map[string]ReportKindPack
	bundles       map[string]CommandQueryBundleFactory
}

func NewExtensionHooks() *ExtensionHooks {
	return &ExtensionHooks{
		providerPacks: map[string]ProviderPack{},
		kindPacks:     map[string]ReportKindPack{},
		bundles:       map[string]CommandQueryBundleFactory{},
	}
}

func (h *ExtensionHooks) RegisterProviderPack(pack ProviderPack) error {
	if h == nil {
		return fmt.Errorf("seoreports: extension hooks are nil")
	}
	name := strings.TrimSpace(pack.Name)
	if name == "" {
		return fmt.Errorf("seoreports: provider pack name is required")
	}
	if len(pack.Providers) == 0 {
		return fmt.Errorf("seoreports: provider pack %q has no providers", name)
	}

	normalized := ProviderPack{
		Name:      name,
		Providers: append([]core.ReportProvider(nil), pack.Providers...),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.providerPacks[name]; exists {
		return fmt.Errorf("seoreports: provider pack %q already registered", name)
	}
	h.providerPacks[name] = normalized
	return nil
}

func (h *ExtensionHooks) RegisterReportKindPack(pack ReportKindPack) error {
	if h == nil {
		return fmt.Errorf("seoreports: extension hooks are nil")
	}
	name := strings.TrimSpace(pack.Name)
	providerID := strings.TrimSpace(strings.ToLower(pack.ProviderID))
	if name == "" {
		return fmt.Errorf("seoreports: report kind pack name is required")
	}
	if providerID == "" {
		return fmt.Errorf("seoreports: report kind pack %q provider id is required", name)
	}
	if len(pack.Kinds) == 0 {
		return fmt.Errorf("seoreports: report kind pack %q has no kinds", name)
	}

	normalized := ReportKindPack{
		Name:       name,
		ProviderID: providerID,
		Kinds:      append([]string(nil), pack.Kinds...),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.kindPacks[name]; exists {
		return fmt.Errorf("seoreports: report kind pack %q already registered", name)
	}
	h.kindPacks[name] = normalized
	return nil
}

func (h *ExtensionHooks) RegisterCommandQueryBundle(
	name string,
	factory CommandQueryBundleFactory,
) error {
	if h == nil {
		return fmt.Errorf("seoreports: extension hooks are nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("seoreports: command/query bundle name is required")
	}
	if factory == nil {
		return fmt.Errorf("seoreports: command/query bundle %q factory is required", name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.bundles[name]; exists {
		return fmt.Errorf("seoreports: command/query bundle %q already registered", name)
	}
	h.bundles[name] = factory
	return nil
}

func (h *ExtensionHooks) ApplyProviderPacks(registry core.Registry) error {
	if h == nil {
		return nil
	}
	if registry == nil {
		return fmt.Errorf("seoreports: registry is required")
	}

	packs := h.ProviderPacks()
	for _, pack := range packs {
		for _, provider := range pack.Providers {
			if provider == nil {
				return fmt.Errorf("seoreports: provider pack %q contains nil provider", pack.Name)
			}
			if err := registry.Register(provider); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *ExtensionHooks) BuildCommandQueryBundles(
	service CommandQueryService,
) (map[string]any, error) {
	if h == nil {
		return map[string]any{}, nil
	}
	if service == nil {
		return nil, fmt.Errorf("seoreports: command/query service is required")
	}

	h.mu.RLock()
	names := make([]string, 0, len(h.bundles))
	for name := range h.bundles {
		names = append(names, name)
	}
	sort.Strings(names)
	factories := make(map[string]CommandQueryBundleFactory, len(h.bundles))
	for name, factory := range h.bundles {
		factories[name] = factory
	}
	h.mu.RUnlock()

	result := make(map[string]any, len(names))
	for _, name := range names {
		bundle, err := factories[name](service)
		if err != nil {
			return nil, err
		}
		result[name] = bundle
	}
	return result, nil
}

func (h *ExtensionHooks) ProviderPacks() []ProviderPack {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.providerPacks))
	for name := range h.providerPacks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]ProviderPack, 0, len(names))
	for _, name := range names {
		pack := h.providerPacks[name]
		out = append(out, ProviderPack{
			Name:      pack.Name,
			Providers: append([]core.ReportProvider(nil), pack.Providers...),
		})
	}
	return out
}

func (h *ExtensionHooks) ReportKinds(providerID string) []string {
	if h == nil {
		return nil
	}
	providerID = strings.TrimSpace(strings.ToLower(providerID))
	h.mu.RLock()
	defer h.mu.RUnlock()

	packNames := make([]string, 0, len(h.kindPacks))
	for name, pack := range h.kindPacks {
		if pack.ProviderID == providerID {
			packNames = append(packNames, name)
		}
	}
	sort.Strings(packNames)

	out := []string{}
	for _, name := range packNames {
		pack := h.kindPacks[name]
		out = append(out, pack.Kinds...)
	}
	return append([]string(nil), out...)
}

func (h *ExtensionHooks) BundleNames() []string {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.bundles))
	for name := range h.bundles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
