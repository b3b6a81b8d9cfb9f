package service

import (
	"context"
	"io"
	"testing"
	"time"

	"clinic-management-api/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func testCatalog() *Catalog {
	return NewStaticCatalog(
		[]entity.BillingCode{
			{Code: "98941", Description: "Chiropractic manipulation, 3-4 regions", DefaultPrice: decimal.NewFromInt(65)},
			{Code: "98940", Description: "Chiropractic manipulation, 1-2 regions", DefaultPrice: decimal.NewFromInt(50)},
			{Code: "97140", Description: "Manual therapy techniques", DefaultPrice: decimal.NewFromInt(40)},
		},
		[]entity.DiagnosticCode{
			{Code: "M54.5", Description: "Low back pain"},
			{Code: "m54.2", Description: "Cervicalgia"},
		},
	)
}

func TestCatalogLookup(t *testing.T) {
	c := testCatalog()

	if bc, ok := c.BillingCode(" 98941 "); !ok || !bc.DefaultPrice.Equal(decimal.NewFromInt(65)) {
		t.Errorf("BillingCode(98941) = %+v, %v", bc, ok)
	}
	if _, ok := c.BillingCode("00000"); ok {
		t.Error("unknown billing code found")
	}
	if dc, ok := c.DiagnosticCode("M54.2"); !ok || dc.Description != "Cervicalgia" {
		t.Errorf("codes are matched case-insensitively, got %+v, %v", dc, ok)
	}
}

func TestCatalogSearch(t *testing.T) {
	c := testCatalog()

	tests := []struct {
		query string
		want  []string
	}{
		{query: "", want: []string{"97140", "98940", "98941"}},
		{query: "989", want: []string{"98940", "98941"}},
		{query: "MANUAL", want: []string{"97140"}},
		{query: "acupuncture", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := c.SearchBillingCodes(tt.query)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d codes, want %v", len(got), tt.want)
			}
			for i, code := range tt.want {
				if got[i].Code != code {
					t.Errorf("got[%d] = %s, want %s", i, got[i].Code, code)
				}
			}
		})
	}

	if got := c.SearchDiagnosticCodes("back"); len(got) != 1 || got[0].Code != "M54.5" {
		t.Errorf("diagnostic search = %+v", got)
	}
}

func TestSlotKey(t *testing.T) {
	clinicID := uuid.MustParse("7d3c0a52-6f8e-4c57-9a43-21f5b0f0c9e1")
	want := "slot:7d3c0a52-6f8e-4c57-9a43-21f5b0f0c9e1:2024-03-04:09:30"
	if got := slotKey(clinicID, "2024-03-04", "09:30"); got != want {
		t.Errorf("slotKey = %q, want %q", got, want)
	}
}

func TestSlotLockerDegradesWithoutRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer client.Close()
	log := logrus.New()
	log.SetOutput(io.Discard)

	var locker SlotLocker = NewRedisSlotLocker(client, log, time.Second)
	release, err := locker.Acquire(context.Background(), uuid.New(), "2024-03-04", "09:30")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	release()
}
