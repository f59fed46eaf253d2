package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"rebuy/internal/config"
	"rebuy/internal/models"
	"rebuy/internal/schedule"
	"rebuy/internal/utils"
)

// sendDelay spaces consecutive outbound messages to stay under the provider
// rate limit.
const sendDelay = 200 * time.Millisecond

// defaultDisplayName stands in when neither the user record nor the
// membership carries a name.
const defaultDisplayName = "Player"

// Store is the slice of the backend entity API the worker needs.
type Store interface {
	ListGroupSettings(ctx context.Context) ([]models.GroupSettings, error)
	ListGroups(ctx context.Context) ([]models.Group, error)
	GetGroup(ctx context.Context, id string) (*models.Group, error)
	GamesByGroup(ctx context.Context, groupID string) ([]models.Game, error)
	OpenGames(ctx context.Context) ([]models.Game, error)
	UpdateGame(ctx context.Context, id string, fields map[string]any) error
	ActiveMembers(ctx context.Context, groupID string) ([]models.GroupMember, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// Sender delivers one templated message to a normalized phone number.
type Sender interface {
	SendTemplate(to, templateSID string, vars map[string]string) error
}

// Recipient is a resolved group member ready for message fan-out.
type Recipient struct {
	UserID      string
	Phone       string
	DisplayName string
}

// RunSummary describes the last completed tick, served by /status.
type RunSummary struct {
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
	GamesOpened      int       `json:"games_opened"`
	RegistrationSent int       `json:"registration_messages_sent"`
	RemindersSent    int       `json:"reminder_messages_sent"`
	Errors           int       `json:"errors"`
}

// NotifyWorker runs the scheduled checks: auto-open registration,
// registration-opened notifications, and game-day reminders.
type NotifyWorker struct {
	store  Store
	sender Sender
	cfg    config.Config
	loc    *time.Location
	log    *zap.Logger
	delay  time.Duration

	tickMu sync.Mutex

	mu   sync.Mutex
	last RunSummary
}

func NewNotifyWorker(store Store, sender Sender, cfg config.Config, loc *time.Location, log *zap.Logger) *NotifyWorker {
	return &NotifyWorker{
		store:  store,
		sender: sender,
		cfg:    cfg,
		loc:    loc,
		log:    log,
		delay:  sendDelay,
	}
}

// Run ticks once immediately, then on every interval until ctx is canceled.
func (w *NotifyWorker) Run(ctx context.Context) {
	w.Tick(ctx)

	ticker := time.NewTicker(w.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("notify worker stopping")
			return
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick runs the three checks strictly in sequence. A tick that would overlap
// a still-running one is skipped; the monotonic flags let the next tick pick
// up whatever this one would have done.
func (w *NotifyWorker) Tick(ctx context.Context) {
	if !w.tickMu.TryLock() {
		w.log.Warn("previous tick still running, skipping")
		return
	}
	defer w.tickMu.Unlock()

	now := time.Now().In(w.loc)
	sum := RunSummary{StartedAt: now}
	w.log.Info("tick start", zap.Time("now", now))

	if err := w.runAutoOpen(ctx, now, &sum); err != nil {
		sum.Errors++
		w.log.Error("auto-open check failed", zap.Error(err))
	}
	if err := w.runRegistrationNotifications(ctx, &sum); err != nil {
		sum.Errors++
		w.log.Error("registration notification check failed", zap.Error(err))
	}
	if err := w.runGameDayReminders(ctx, now, &sum); err != nil {
		sum.Errors++
		w.log.Error("game-day reminder check failed", zap.Error(err))
	}

	sum.FinishedAt = time.Now().In(w.loc)
	w.mu.Lock()
	w.last = sum
	w.mu.Unlock()

	w.log.Info("tick done",
		zap.Int("games_opened", sum.GamesOpened),
		zap.Int("registration_sent", sum.RegistrationSent),
		zap.Int("reminders_sent", sum.RemindersSent),
		zap.Int("errors", sum.Errors))
}

// Snapshot returns the last completed tick's summary.
func (w *NotifyWorker) Snapshot() RunSummary {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// runAutoOpen flips registration open on eligible games of groups whose
// configured weekly open time matches now. Notification is deliberately left
// to the next check so a delivery failure cannot block the state transition.
func (w *NotifyWorker) runAutoOpen(ctx context.Context, now time.Time, sum *RunSummary) error {
	settings, err := w.store.ListGroupSettings(ctx)
	if err != nil {
		return fmt.Errorf("list group settings: %w", err)
	}

	for _, s := range settings {
		if !s.AutoOpenRegistrationEnabled {
			continue
		}
		day, ok := schedule.ParseWeekday(s.AutoOpenRegistrationDay)
		if !ok {
			w.log.Debug("unknown auto-open weekday, skipping group",
				zap.String("group_id", s.GroupID),
				zap.String("day", s.AutoOpenRegistrationDay))
			continue
		}
		hour, minute, ok := schedule.ParseClock(s.AutoOpenRegistrationTime)
		if !ok {
			w.log.Debug("invalid auto-open time, skipping group",
				zap.String("group_id", s.GroupID),
				zap.String("time", s.AutoOpenRegistrationTime))
			continue
		}
		if !schedule.MatchWeekly(now, day, hour, minute, schedule.Tolerance) {
			continue
		}

		games, err := w.store.GamesByGroup(ctx, s.GroupID)
		if err != nil {
			sum.Errors++
			w.log.Error("fetch games failed", zap.String("group_id", s.GroupID), zap.Error(err))
			continue
		}
		for _, g := range games {
			if g.Status != models.GameStatusScheduled || g.RegistrationOpen || !g.StartAt.After(now) {
				continue
			}
			if err := w.markGame(ctx, g.ID, "registrationOpen"); err != nil {
				sum.Errors++
				w.log.Error("open registration failed", zap.String("game_id", g.ID), zap.Error(err))
				continue
			}
			sum.GamesOpened++
			w.log.Info("registration opened",
				zap.String("group_id", s.GroupID),
				zap.String("game_id", g.ID),
				zap.Time("start_at", g.StartAt))
		}
	}
	return nil
}

// runRegistrationNotifications fans out the registration-opened template for
// any open game not yet notified, regardless of which tick opened it. The
// sent flag records an attempted dispatch, not delivery.
func (w *NotifyWorker) runRegistrationNotifications(ctx context.Context, sum *RunSummary) error {
	open, err := w.store.OpenGames(ctx)
	if err != nil {
		return fmt.Errorf("list open games: %w", err)
	}
	var pending []models.Game
	for _, g := range open {
		if !g.RegistrationNotificationSent {
			pending = append(pending, g)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	settings, err := w.store.ListGroupSettings(ctx)
	if err != nil {
		return fmt.Errorf("list group settings: %w", err)
	}
	settingsByGroup := make(map[string]models.GroupSettings, len(settings))
	for _, s := range settings {
		settingsByGroup[s.GroupID] = s
	}

	groups, err := w.store.ListGroups(ctx)
	if err != nil {
		return fmt.Errorf("list groups: %w", err)
	}
	nameByGroup := make(map[string]string, len(groups))
	for _, g := range groups {
		nameByGroup[g.ID] = g.Name
	}

	for _, g := range pending {
		if s, ok := settingsByGroup[g.GroupID]; ok && !s.SendReminderOnRegistrationOpen {
			// The group opted out. Mark the game anyway so it is not
			// reconsidered on every tick.
			if err := w.markGame(ctx, g.ID, "registrationNotificationSent"); err != nil {
				sum.Errors++
				w.log.Error("mark notification sent failed", zap.String("game_id", g.ID), zap.Error(err))
				continue
			}
			w.log.Info("registration notification disabled, marked without dispatch",
				zap.String("game_id", g.ID))
			continue
		}

		recipients := w.resolveMembers(ctx, g.GroupID)
		link := w.cfg.RegistrationLinkBase + "/" + g.GroupID + "/register"
		groupName := utils.SanitizeText(nameByGroup[g.GroupID])

		delivered, failed := 0, 0
		for _, r := range recipients {
			vars := map[string]string{
				"1": utils.SanitizeText(r.DisplayName),
				"2": groupName,
				"3": link,
			}
			if err := w.sender.SendTemplate(r.Phone, w.cfg.RegistrationTemplateSID, vars); err != nil {
				failed++
				sum.Errors++
				w.log.Error("registration message failed",
					zap.String("game_id", g.ID),
					zap.String("to", r.Phone),
					zap.Error(err))
			} else {
				delivered++
			}
			w.pause()
		}

		if err := w.markGame(ctx, g.ID, "registrationNotificationSent"); err != nil {
			sum.Errors++
			w.log.Error("mark notification sent failed", zap.String("game_id", g.ID), zap.Error(err))
		}
		sum.RegistrationSent += delivered
		w.log.Info("registration notifications dispatched",
			zap.String("game_id", g.ID),
			zap.Int("delivered", delivered),
			zap.Int("failed", failed))
	}
	return nil
}

// runGameDayReminders sends the reminder template to seated players when the
// offset-before-start instant matches now.
func (w *NotifyWorker) runGameDayReminders(ctx context.Context, now time.Time, sum *RunSummary) error {
	settings, err := w.store.ListGroupSettings(ctx)
	if err != nil {
		return fmt.Errorf("list group settings: %w", err)
	}

	for _, s := range settings {
		if !s.DayOfGamePushEnabled {
			continue
		}
		games, err := w.store.GamesByGroup(ctx, s.GroupID)
		if err != nil {
			sum.Errors++
			w.log.Error("fetch games failed", zap.String("group_id", s.GroupID), zap.Error(err))
			continue
		}

		var due []models.Game
		for _, g := range games {
			if g.Status != models.GameStatusScheduled && g.Status != models.GameStatusActive {
				continue
			}
			if g.ReminderSent {
				continue
			}
			target := g.StartAt.Add(-time.Duration(s.DayOfGamePushOffsetMinutes) * time.Minute)
			if schedule.MatchInstant(now, target, schedule.Tolerance) {
				due = append(due, g)
			}
		}
		if len(due) == 0 {
			continue
		}

		groupName := ""
		if group, err := w.store.GetGroup(ctx, s.GroupID); err != nil {
			w.log.Warn("fetch group failed", zap.String("group_id", s.GroupID), zap.Error(err))
		} else {
			groupName = group.Name
		}
		groupName = utils.SanitizeText(groupName)

		members := w.resolveMembers(ctx, s.GroupID)
		byUser := make(map[string]Recipient, len(members))
		for _, r := range members {
			byUser[r.UserID] = r
		}

		for _, g := range due {
			delivered, failed := 0, 0
			for _, seat := range g.Seats {
				r, ok := byUser[seat.UserID]
				if !ok {
					continue
				}
				vars := map[string]string{
					"1": utils.SanitizeText(r.DisplayName),
					"2": groupName,
					"3": g.StartAt.In(w.loc).Format("15:04"),
				}
				if err := w.sender.SendTemplate(r.Phone, w.cfg.ReminderTemplateSID, vars); err != nil {
					failed++
					sum.Errors++
					w.log.Error("reminder message failed",
						zap.String("game_id", g.ID),
						zap.String("to", r.Phone),
						zap.Error(err))
				} else {
					delivered++
				}
				w.pause()
			}

			if err := w.markGame(ctx, g.ID, "reminderSent"); err != nil {
				sum.Errors++
				w.log.Error("mark reminder sent failed", zap.String("game_id", g.ID), zap.Error(err))
			}
			sum.RemindersSent += delivered
			w.log.Info("game-day reminders dispatched",
				zap.String("game_id", g.ID),
				zap.Int("delivered", delivered),
				zap.Int("failed", failed))
		}
	}
	return nil
}

// resolveMembers left-joins a group's active memberships with the user
// directory. The user record's phone and name win over the membership's; a
// member with no resolvable phone is excluded. A fetch failure on either
// list yields an empty set so one broken group cannot take down the tick.
func (w *NotifyWorker) resolveMembers(ctx context.Context, groupID string) []Recipient {
	members, err := w.store.ActiveMembers(ctx, groupID)
	if err != nil {
		w.log.Error("fetch members failed", zap.String("group_id", groupID), zap.Error(err))
		return nil
	}
	users, err := w.store.ListUsers(ctx)
	if err != nil {
		w.log.Error("fetch users failed", zap.String("group_id", groupID), zap.Error(err))
		return nil
	}

	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	var out []Recipient
	for _, m := range members {
		u := byID[m.UserID]
		phone := u.Phone
		if phone == "" {
			phone = m.Phone
		}
		normalized, ok := utils.NormalizePhone(phone)
		if !ok {
			continue
		}
		name := u.DisplayName
		if name == "" {
			name = m.DisplayName
		}
		if name == "" {
			name = defaultDisplayName
		}
		out = append(out, Recipient{UserID: m.UserID, Phone: normalized, DisplayName: name})
	}
	return out
}

func (w *NotifyWorker) markGame(ctx context.Context, id, flag string) error {
	return w.store.UpdateGame(ctx, id, map[string]any{flag: true})
}

func (w *NotifyWorker) pause() {
	if w.delay > 0 {
		time.Sleep(w.delay)
	}
}
