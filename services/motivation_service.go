package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"streakWardenAPI/internal/chat"

	"github.com/go-co-op/gocron/v2"
)

var defaultQuotes = []string{
	"One day at a time. Today counts.",
	"The streak is built on the days you did not feel like it.",
	"Check in, even when the day was rough. Especially then.",
	"Progress over perfection.",
	"You are one honest reflection away from keeping the chain alive.",
	"Hard days build longer streaks.",
	"Show up for tomorrow-you.",
}

// MotivationService posts a rotating quote to a bound channel once a day. The
// scheduler handle is owned here and restartable; start/stop only affect
// future posts, never data.
type MotivationService struct {
	settings *SettingsService
	gateway  chat.Gateway

	mu    sync.Mutex
	sched gocron.Scheduler
}

func NewMotivationService(settings *SettingsService, gateway chat.Gateway) *MotivationService {
	return &MotivationService{settings: settings, gateway: gateway}
}

// Bind stores the target channel and posting hour.
func (m *MotivationService) Bind(ctx context.Context, channelID string, hour int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("hour must be between 0 and 23")
	}
	if err := m.settings.Set(ctx, SettingMotivationChannel, channelID); err != nil {
		return err
	}
	return m.settings.Set(ctx, SettingMotivationHour, strconv.Itoa(hour))
}

// Start schedules the daily post at the bound hour. Calling it while running
// replaces the previous schedule.
func (m *MotivationService) Start(ctx context.Context) error {
	hour := 9
	if raw, ok, err := m.settings.Get(ctx, SettingMotivationHour); err != nil {
		return err
	} else if ok {
		if h, err := strconv.Atoi(raw); err == nil {
			hour = h
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sched != nil {
		_ = m.sched.Shutdown()
		m.sched = nil
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create motivation scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(uint(hour), 0, 0))),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := m.Trigger(ctx); err != nil {
				log.Printf("MotivationService: scheduled post failed: %v", err)
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule motivation job: %w", err)
	}

	m.sched = sched
	sched.Start()
	log.Printf("MotivationService: posting daily at %02d:00", hour)
	return nil
}

func (m *MotivationService) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sched != nil {
		_ = m.sched.Shutdown()
		m.sched = nil
	}
}

func (m *MotivationService) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sched != nil
}

// Trigger posts the next quote immediately and advances the rotation cursor.
func (m *MotivationService) Trigger(ctx context.Context) error {
	channelID, ok, err := m.settings.Get(ctx, SettingMotivationChannel)
	if err != nil {
		return err
	}
	if !ok || channelID == "" {
		return fmt.Errorf("no motivation channel bound")
	}

	cursor := 0
	if raw, ok, err := m.settings.Get(ctx, SettingQuoteCursor); err != nil {
		return err
	} else if ok {
		if c, err := strconv.Atoi(raw); err == nil {
			cursor = c
		}
	}

	quote := NextQuote(cursor)
	if err := m.settings.Set(ctx, SettingQuoteCursor, strconv.Itoa(cursor+1)); err != nil {
		return err
	}

	return m.gateway.PostMotivation(ctx, channelID, quote)
}

// NextQuote returns the quote the given cursor points at.
func NextQuote(cursor int) string {
	if cursor < 0 {
		cursor = 0
	}
	return defaultQuotes[cursor%len(defaultQuotes)]
}
