package platform

import (
	"testing"

	"github.com/eimribar/ads-command-center/pkg/models"
)

func TestRegistryOrderingAndFiltering(t *testing.T) {
	meta := &Fake{PlatformID: models.PlatformMeta, Configured: true}
	reddit := &Fake{PlatformID: models.PlatformReddit}
	analytics := &Fake{PlatformID: models.PlatformAnalytics, Configured: true}
	google := &Fake{PlatformID: models.PlatformGoogle, Configured: true}

	reg, err := NewRegistry(meta, reddit, analytics, google)
	if err != nil {
		t.Fatal(err)
	}

	configured := reg.Configured()
	if len(configured) != 3 || configured[0].ID() != models.PlatformMeta || configured[1].ID() != models.PlatformAnalytics {
		t.Fatalf("unexpected configured set %v", ids(configured))
	}

	ads := reg.AdPlatforms()
	if len(ads) != 2 || ads[0].ID() != models.PlatformMeta || ads[1].ID() != models.PlatformGoogle {
		t.Fatalf("unexpected ad platforms %v", ids(ads))
	}
}

func TestRegistryReevaluatesConfiguration(t *testing.T) {
	tiktok := &Fake{PlatformID: models.PlatformTikTok}
	reg, _ := NewRegistry(tiktok)
	if len(reg.Configured()) != 0 {
		t.Fatal("expected nothing configured")
	}
	tiktok.Configured = true
	if len(reg.Configured()) != 1 {
		t.Fatal("configuration change should be visible without rebuilding the registry")
	}
	statuses := reg.Statuses()
	if len(statuses) != 1 || !statuses[0].Configured || statuses[0].Name != "TikTok" {
		t.Fatalf("unexpected statuses %+v", statuses)
	}
}

func TestRegistryLookup(t *testing.T) {
	reg, _ := NewRegistry(&Fake{PlatformID: models.PlatformGoogle})
	a, err := reg.Lookup("google-ads")
	if err != nil || a.ID() != models.PlatformGoogle {
		t.Fatalf("expected google adapter, got %v %v", a, err)
	}
	if _, err := reg.Lookup("reddit"); err == nil {
		t.Fatal("expected error for platform without adapter")
	}
	if _, err := reg.Lookup("friendster"); err == nil {
		t.Fatal("expected error for unknown platform")
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	if _, err := NewRegistry(&Fake{PlatformID: models.PlatformMeta}, &Fake{PlatformID: models.PlatformMeta}); err == nil {
		t.Fatal("expected duplicate error")
	}
}

func ids(adapters []Adapter) []models.PlatformID {
	out := make([]models.PlatformID, 0, len(adapters))
	for _, a := range adapters {
		out = append(out, a.ID())
	}
	return out
}
