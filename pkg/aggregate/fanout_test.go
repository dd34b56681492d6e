package aggregate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/eimribar/ads-command-center/pkg/daterange"
	"github.com/eimribar/ads-command-center/pkg/models"
	"github.com/eimribar/ads-command-center/pkg/platform"
)

var testRange = daterange.Range{StartDate: "2024-03-08", EndDate: "2024-03-14"}

func recordFake(id models.PlatformID, spend, conversions float64) *platform.Fake {
	return &platform.Fake{
		PlatformID: id,
		Configured: true,
		InsightsFunc: func(context.Context, daterange.Range) (models.PlatformRecord, error) {
			return models.PlatformRecord{
				Spend:       models.Float64(spend),
				Conversions: models.Float64(conversions),
				Impressions: models.Int64(1000),
				Clicks:      models.Int64(20),
			}, nil
		},
	}
}

type countingObserver struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *countingObserver) ObserveOutcome(platform, operation, outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = map[string]int{}
	}
	c.counts[platform+"/"+operation+"/"+outcome]++
}

func TestFanOutAllSettled(t *testing.T) {
	boom := errors.New("vendor exploded")
	adapters := []platform.Adapter{
		recordFake(models.PlatformMeta, 100, 4),
		&platform.Fake{PlatformID: models.PlatformReddit, Configured: true, InsightsFunc: func(context.Context, daterange.Range) (models.PlatformRecord, error) {
			return models.PlatformRecord{}, boom
		}},
		recordFake(models.PlatformGoogle, 50, 5),
		&platform.Fake{PlatformID: models.PlatformTikTok, Configured: true, InsightsFunc: func(context.Context, daterange.Range) (models.PlatformRecord, error) {
			panic("nil map")
		}},
	}
	obs := &countingObserver{}

	records, failures := Insights(context.Background(), adapters, testRange, Options{Observer: obs})
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}
	wantOrder := []models.PlatformID{models.PlatformMeta, models.PlatformReddit, models.PlatformGoogle, models.PlatformTikTok}
	for i, id := range wantOrder {
		if records[i].Platform != id {
			t.Fatalf("record %d: expected %s, got %s", i, id, records[i].Platform)
		}
	}
	if !records[1].Failed() || records[1].Error != "vendor exploded" {
		t.Fatalf("expected reddit failure record, got %+v", records[1])
	}
	if !records[3].Failed() {
		t.Fatal("panicking adapter should become a failure")
	}
	if records[0].CPA == nil || *records[0].CPA != 25 {
		t.Fatalf("expected normalized cpa 25, got %v", records[0].CPA)
	}
	if len(failures) != 2 || failures[0].Platform != models.PlatformReddit || !errors.Is(failures[0].Err, boom) {
		t.Fatalf("unexpected failures %+v", failures)
	}
	if obs.counts["meta/insights/ok"] != 1 || obs.counts["reddit/insights/failed"] != 1 {
		t.Fatalf("unexpected observations %v", obs.counts)
	}
}

func TestFanOutSkipsNotConfiguredAndUnsupported(t *testing.T) {
	adapters := []platform.Adapter{
		&platform.Fake{PlatformID: models.PlatformMeta},
		&platform.Fake{PlatformID: models.PlatformAnalytics, Configured: true},
		recordFake(models.PlatformGoogle, 10, 1),
	}
	outcomes := FanOut(context.Background(), adapters, Options{}, func(ctx context.Context, a platform.Adapter) (models.PlatformRecord, error) {
		return a.Insights(ctx, testRange)
	})
	if outcomes[0].Status != StatusNotConfigured || outcomes[1].Status != StatusUnsupported || outcomes[2].Status != StatusOK {
		t.Fatalf("unexpected statuses %s %s %s", outcomes[0].Status, outcomes[1].Status, outcomes[2].Status)
	}
	values, failures := Split(outcomes)
	if len(values) != 1 || len(failures) != 0 {
		t.Fatalf("expected 1 value and no failures, got %d/%d", len(values), len(failures))
	}
	if calls := adapters[0].(*platform.Fake).Calls(); len(calls) != 0 {
		t.Fatalf("unconfigured adapter must not be called, got %v", calls)
	}
}

func TestFanOutPerCallTimeoutDoesNotCancelSiblings(t *testing.T) {
	slow := &platform.Fake{PlatformID: models.PlatformTikTok, Configured: true, InsightsFunc: func(ctx context.Context, _ daterange.Range) (models.PlatformRecord, error) {
		<-ctx.Done()
		return models.PlatformRecord{}, ctx.Err()
	}}
	fast := recordFake(models.PlatformMeta, 20, 2)

	start := time.Now()
	records, failures := Insights(context.Background(), []platform.Adapter{slow, fast}, testRange, Options{Timeout: 30 * time.Millisecond})
	if time.Since(start) > time.Second {
		t.Fatal("fan-out should finish shortly after the per-call timeout")
	}
	if len(failures) != 1 || !errors.Is(failures[0].Err, context.DeadlineExceeded) {
		t.Fatalf("expected timeout failure, got %+v", failures)
	}
	if records[1].Failed() || records[1].SpendValue() != 20 {
		t.Fatalf("sibling should succeed, got %+v", records[1])
	}
}

func TestCampaignsMergesAndFilters(t *testing.T) {
	meta := &platform.Fake{PlatformID: models.PlatformMeta, Configured: true, CampaignsFunc: func(context.Context, models.CampaignFilter) ([]models.Campaign, error) {
		return []models.Campaign{
			{ID: "1", Name: "Spring", Status: models.CampaignActive, Spend: 10},
			{ID: "2", Name: "Winter", Status: models.CampaignPaused, Spend: 99},
		}, nil
	}}
	reddit := &platform.Fake{PlatformID: models.PlatformReddit, Configured: true, CampaignsFunc: func(context.Context, models.CampaignFilter) ([]models.Campaign, error) {
		return []models.Campaign{{ID: "1", Name: "Launch", Status: models.CampaignActive, Spend: 30}}, nil
	}}
	analytics := &platform.Fake{PlatformID: models.PlatformAnalytics, Configured: true}

	campaigns, failures := Campaigns(context.Background(), []platform.Adapter{meta, reddit, analytics}, models.CampaignFilter{Status: models.CampaignActive}, Options{})
	if len(failures) != 0 {
		t.Fatalf("unsupported analytics should not fail: %+v", failures)
	}
	if len(campaigns) != 2 {
		t.Fatalf("expected 2 active campaigns, got %d", len(campaigns))
	}
	if campaigns[0].Key() != "meta:1" || campaigns[1].Key() != "reddit:1" {
		t.Fatalf("ids must be platform qualified, got %s %s", campaigns[0].Key(), campaigns[1].Key())
	}

	SortCampaigns(campaigns)
	if campaigns[0].Platform != models.PlatformReddit {
		t.Fatal("expected highest spend first")
	}
}

func TestSendConversionSharesEventID(t *testing.T) {
	var mu sync.Mutex
	seen := map[models.PlatformID]string{}
	sender := func(id models.PlatformID) *platform.Fake {
		return &platform.Fake{PlatformID: id, Configured: true, SendConversionFunc: func(_ context.Context, e models.ConversionEvent) (models.ConversionResult, error) {
			mu.Lock()
			seen[id] = e.SharedEventID
			mu.Unlock()
			return models.ConversionResult{Success: true, EventID: e.SharedEventID}, nil
		}}
	}
	failing := &platform.Fake{PlatformID: models.PlatformGoogle, Configured: true, SendConversionFunc: func(context.Context, models.ConversionEvent) (models.ConversionResult, error) {
		return models.ConversionResult{}, errors.New("gclid required")
	}}
	analytics := &platform.Fake{PlatformID: models.PlatformAnalytics, Configured: true}

	event := models.ConversionEvent{EventType: models.EventPurchase, SharedEventID: "evt_1_aaaa"}
	results, failures := SendConversion(context.Background(), []platform.Adapter{sender(models.PlatformMeta), failing, sender(models.PlatformTikTok), analytics}, event, Options{})

	if seen[models.PlatformMeta] != "evt_1_aaaa" || seen[models.PlatformTikTok] != "evt_1_aaaa" {
		t.Fatalf("every platform must get the shared id, got %v", seen)
	}
	if len(results) != 4 || !results[0].Result.Success || results[1].Error != "gclid required" || !results[3].Skipped {
		t.Fatalf("unexpected results %+v", results)
	}
	if len(failures) != 1 || failures[0].Platform != models.PlatformGoogle {
		t.Fatalf("unexpected failures %+v", failures)
	}
}

func TestSendConversionCountsRejectionsAsFailures(t *testing.T) {
	rejecting := &platform.Fake{PlatformID: models.PlatformMeta, Configured: true, SendConversionFunc: func(context.Context, models.ConversionEvent) (models.ConversionResult, error) {
		return models.ConversionResult{Success: false, Message: "events_received=0"}, nil
	}}
	silent := &platform.Fake{PlatformID: models.PlatformReddit, Configured: true, SendConversionFunc: func(context.Context, models.ConversionEvent) (models.ConversionResult, error) {
		return models.ConversionResult{}, nil
	}}
	accepting := &platform.Fake{PlatformID: models.PlatformTikTok, Configured: true, SendConversionFunc: func(context.Context, models.ConversionEvent) (models.ConversionResult, error) {
		return models.ConversionResult{Success: true}, nil
	}}

	event := models.ConversionEvent{EventType: models.EventLead, SharedEventID: "evt_2_bbbb"}
	results, failures := SendConversion(context.Background(), []platform.Adapter{rejecting, silent, accepting}, event, Options{})

	if len(results) != 3 || results[0].Result.Success || results[0].Error != "" {
		t.Fatalf("unexpected results %+v", results)
	}
	if len(failures) != 2 {
		t.Fatalf("expected 2 failures, got %+v", failures)
	}
	if failures[0].Platform != models.PlatformMeta || failures[0].Message != "events_received=0" {
		t.Fatalf("unexpected first failure %+v", failures[0])
	}
	if failures[1].Platform != models.PlatformReddit || failures[1].Message != "event rejected" || failures[1].Err == nil {
		t.Fatalf("unexpected second failure %+v", failures[1])
	}
}
