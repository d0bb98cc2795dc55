package seoreports

import (
	"context"
	"testing"

	"github.com/goliatone/go-seo-reports/core"
)

func TestExtensionHooks_RegisterAndApplyProviderPacks(t *testing.T) {
	hooks := NewExtensionHooks()
	pack := ProviderPack{
		Name: "downstream-pack",
		Providers: []core.ReportProvider{
			extensionProvider{id: "custom_provider"},
		},
	}
	if err := hooks.RegisterProviderPack(pack); err != nil {
		t.Fatalf("register provider pack: %v", err)
	}
	if err := hooks.RegisterProviderPack(pack); err == nil {
		t.Fatalf("expected duplicate provider pack registration error")
	}

	registry := core.NewReportProviderRegistry()
	if err := hooks.ApplyProviderPacks(registry); err != nil {
		t.Fatalf("apply provider packs: %v", err)
	}
	if _, ok := registry.Get("custom_provider"); !ok {
		t.Fatalf("expected provider pack registration in registry")
	}
}

func TestExtensionHooks_ReportKindsAndBundles(t *testing.T) {
	hooks := NewExtensionHooks()
	if err := hooks.RegisterReportKindPack(ReportKindPack{
		Name:       "pack_b",
		ProviderID: "custom_provider",
		Kinds:      []string{"conversions"},
	}); err != nil {
		t.Fatalf("register kind pack b: %v", err)
	}
	if err := hooks.RegisterReportKindPack(ReportKindPack{
		Name:       "pack_a",
		ProviderID: "custom_provider",
		Kinds:      []string{"revenue"},
	}); err != nil {
		t.Fatalf("register kind pack a: %v", err)
	}
	kinds := hooks.ReportKinds("custom_provider")
	if len(kinds) != 2 {
		t.Fatalf("expected two report kinds, got %d", len(kinds))
	}
	if kinds[0] != "revenue" || kinds[1] != "conversions" {
		t.Fatalf("expected deterministic kind pack ordering, got %#v", kinds)
	}

	if err := hooks.RegisterCommandQueryBundle("reports_bundle", func(service CommandQueryService) (any, error) {
		return map[string]any{
			"fetch_fn":      service.FetchReport,
			"disconnect_fn": service.Disconnect,
		}, nil
	}); err != nil {
		t.Fatalf("register bundle: %v", err)
	}
	if err := hooks.RegisterCommandQueryBundle("reports_bundle", func(CommandQueryService) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected duplicate bundle registration error")
	}

	svc := &stubFacadeService{}
	bundles, err := hooks.BuildCommandQueryBundles(svc)
	if err != nil {
		t.Fatalf("build bundles: %v", err)
	}
	if len(bundles) != 1 {
		t.Fatalf("expected one bundle, got %d", len(bundles))
	}
	if _, ok := bundles["reports_bundle"]; !ok {
		t.Fatalf("expected reports_bundle entry in built bundles")
	}
}

type extensionProvider struct {
	id string
}

func (p extensionProvider) ID() string { return p.id }

func (extensionProvider) AuthKind() string { return core.AuthKindAPIKey }

func (extensionProvider) Kinds() []string { return []string{"traffic"} }

func (extensionProvider) Fetch(context.Context, core.ReportRequest) (core.ReportResult, error) {
	return core.ReportResult{}, nil
}
