package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"clinic-management-api/config"
	"clinic-management-api/internal/usecase"

	"github.com/sirupsen/logrus"
)

type fakeClinics struct {
	usecase.ClinicUsecase
	zones []string
	err   error
}

func (f *fakeClinics) TimeZones(ctx context.Context) ([]string, error) {
	return f.zones, f.err
}

// fakeAppointments serves SweepNoShows from a queue of batch sizes.
type fakeAppointments struct {
	usecase.AppointmentUsecase
	batches []int
	failAt  int
	calls   int
	before  map[string][]string
}

func (f *fakeAppointments) SweepNoShows(ctx context.Context, timeZone, before string, limit int) (int, error) {
	f.calls++
	if f.before == nil {
		f.before = map[string][]string{}
	}
	f.before[timeZone] = append(f.before[timeZone], before)
	if f.failAt > 0 && f.calls == f.failAt {
		return 0, errors.New("connection reset")
	}
	if len(f.batches) == 0 {
		return 0, nil
	}
	n := f.batches[0]
	f.batches = f.batches[1:]
	return n, nil
}

type fakeReminders struct {
	dates map[string]string
}

func (f *fakeReminders) SendReminders(ctx context.Context, timeZone, date string) (int, error) {
	if f.dates == nil {
		f.dates = map[string]string{}
	}
	f.dates[timeZone] = date
	return 3, nil
}

func newTestScheduler(appts usecase.AppointmentUsecase, reminders usecase.ReminderUsecase) *Scheduler {
	return newZonedScheduler(&fakeClinics{zones: []string{"UTC"}}, appts, reminders)
}

func newZonedScheduler(clinics usecase.ClinicUsecase, appts usecase.AppointmentUsecase, reminders usecase.ReminderUsecase) *Scheduler {
	log := logrus.New()
	log.SetOutput(io.Discard)
	s := New(config.SchedulerConfig{NoShowSpec: "5 0 * * *", ReminderSpec: "0 18 * * *"}, log, clinics, appts, reminders)
	s.now = func() time.Time { return time.Date(2024, 3, 4, 0, 5, 0, 0, time.UTC) }
	return s
}

func TestSweepNoShowsDrainsBatches(t *testing.T) {
	tests := []struct {
		name      string
		batches   []int
		wantTotal int
		wantCalls int
	}{
		{name: "nothing due", batches: nil, wantTotal: 0, wantCalls: 1},
		{name: "single partial batch", batches: []int{12}, wantTotal: 12, wantCalls: 1},
		{name: "full batches then remainder", batches: []int{sweepBatchSize, sweepBatchSize, 7}, wantTotal: 2*sweepBatchSize + 7, wantCalls: 3},
		{name: "exact multiple", batches: []int{sweepBatchSize}, wantTotal: sweepBatchSize, wantCalls: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appts := &fakeAppointments{batches: tt.batches}
			s := newTestScheduler(appts, &fakeReminders{})

			total, err := s.SweepNoShows(context.Background())
			if err != nil {
				t.Fatalf("SweepNoShows: %v", err)
			}
			if total != tt.wantTotal || appts.calls != tt.wantCalls {
				t.Errorf("total = %d in %d calls, want %d in %d", total, appts.calls, tt.wantTotal, tt.wantCalls)
			}
			for _, before := range appts.before["UTC"] {
				if before != "2024-03-04" {
					t.Errorf("swept before %s, want today", before)
				}
			}
		})
	}
}

func TestSweepNoShowsStopsOnError(t *testing.T) {
	appts := &fakeAppointments{batches: []int{sweepBatchSize, sweepBatchSize}, failAt: 2}
	s := newTestScheduler(appts, &fakeReminders{})

	total, err := s.SweepNoShows(context.Background())
	if err == nil {
		t.Fatal("expected the batch error")
	}
	if total != sweepBatchSize || appts.calls != 2 {
		t.Errorf("total = %d in %d calls", total, appts.calls)
	}
}

func TestSendRemindersTargetsTomorrow(t *testing.T) {
	reminders := &fakeReminders{}
	s := newTestScheduler(&fakeAppointments{}, reminders)

	sent, err := s.SendReminders(context.Background())
	if err != nil {
		t.Fatalf("SendReminders: %v", err)
	}
	if sent != 3 || len(reminders.dates) != 1 || reminders.dates["UTC"] != "2024-03-05" {
		t.Errorf("sent %d for %v", sent, reminders.dates)
	}
}

func TestJobsUseEachClinicsLocalDate(t *testing.T) {
	for _, zone := range []string{"America/Los_Angeles", "Asia/Tokyo"} {
		if _, err := time.LoadLocation(zone); err != nil {
			t.Skipf("zone database unavailable: %v", err)
		}
	}

	// 2024-03-04 00:05 UTC is still March 3rd in Los Angeles.
	clinics := &fakeClinics{zones: []string{"UTC", "America/Los_Angeles", "Asia/Tokyo"}}
	appts := &fakeAppointments{}
	reminders := &fakeReminders{}
	s := newZonedScheduler(clinics, appts, reminders)

	if _, err := s.SweepNoShows(context.Background()); err != nil {
		t.Fatalf("SweepNoShows: %v", err)
	}
	sent, err := s.SendReminders(context.Background())
	if err != nil {
		t.Fatalf("SendReminders: %v", err)
	}
	if sent != 9 {
		t.Errorf("sent = %d, want 3 per zone", sent)
	}

	tests := []struct {
		zone         string
		wantToday    string
		wantTomorrow string
	}{
		{zone: "UTC", wantToday: "2024-03-04", wantTomorrow: "2024-03-05"},
		{zone: "America/Los_Angeles", wantToday: "2024-03-03", wantTomorrow: "2024-03-04"},
		{zone: "Asia/Tokyo", wantToday: "2024-03-04", wantTomorrow: "2024-03-05"},
	}
	for _, tt := range tests {
		t.Run(tt.zone, func(t *testing.T) {
			if got := appts.before[tt.zone]; len(got) != 1 || got[0] != tt.wantToday {
				t.Errorf("swept before %v, want %s", got, tt.wantToday)
			}
			if got := reminders.dates[tt.zone]; got != tt.wantTomorrow {
				t.Errorf("reminded for %s, want %s", got, tt.wantTomorrow)
			}
		})
	}
}

func TestJobsFailWhenZonesUnavailable(t *testing.T) {
	appts := &fakeAppointments{}
	s := newZonedScheduler(&fakeClinics{err: errors.New("connection refused")}, appts, &fakeReminders{})

	if _, err := s.SweepNoShows(context.Background()); err == nil {
		t.Error("expected the zone lookup error")
	}
	if _, err := s.SendReminders(context.Background()); err == nil {
		t.Error("expected the zone lookup error")
	}
	if appts.calls != 0 {
		t.Errorf("swept %d times without zones", appts.calls)
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	s := New(config.SchedulerConfig{NoShowSpec: "not a spec", ReminderSpec: "0 18 * * *"}, log, &fakeClinics{}, &fakeAppointments{}, &fakeReminders{})

	if err := s.Start(); err == nil {
		t.Fatal("expected an invalid spec to fail Start")
	}
}

func TestStartAndStop(t *testing.T) {
	s := newTestScheduler(&fakeAppointments{}, &fakeReminders{})
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if n := len(s.cron.Entries()); n != 2 {
		t.Errorf("registered %d jobs, want 2", n)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
