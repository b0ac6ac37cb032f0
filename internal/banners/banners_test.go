package banners_test

import (
	"context"
	"testing"
	"time"

	"razorkart/internal/banners"
	"razorkart/internal/store/storetest"
)

func TestLiveWindow(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		banner banners.Banner
		want   bool
	}{
		{"active inside window", banners.Banner{Active: true, StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour)}, true},
		{"inactive inside window", banners.Banner{Active: false, StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour)}, false},
		{"not started yet", banners.Banner{Active: true, StartsAt: now.Add(time.Hour), EndsAt: now.Add(2 * time.Hour)}, false},
		{"already ended", banners.Banner{Active: true, StartsAt: now.Add(-2 * time.Hour), EndsAt: now.Add(-time.Hour)}, false},
		{"starts exactly now", banners.Banner{Active: true, StartsAt: now, EndsAt: now.Add(time.Hour)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.banner.Live(now); got != tt.want {
				t.Errorf("Live() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInsertBannerDefaultsOpenEndedWindow(t *testing.T) {
	conf, err := banners.NewConf(storetest.New())
	if err != nil {
		t.Fatalf("NewConf: %v", err)
	}

	banner, err := conf.InsertBanner(context.Background(), banners.NewBanner{
		Title:    "Summer Sale",
		ImageURL: "https://cdn.example.com/sale.png",
		Active:   true,
	})
	if err != nil {
		t.Fatalf("InsertBanner: %v", err)
	}
	if banner.EndsAt.IsZero() || !banner.EndsAt.After(time.Now().AddDate(5, 0, 0)) {
		t.Errorf("banner without an explicit window must stay up, got EndsAt %v", banner.EndsAt)
	}
	if !banner.Live(time.Now().UTC()) {
		t.Error("active banner without a window must be live immediately")
	}
}
