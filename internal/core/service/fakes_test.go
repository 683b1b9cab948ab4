package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"gorod-sporta/internal/core/domain/entities"
	"gorod-sporta/internal/core/domain/exceptions"
	"gorod-sporta/internal/core/ports"
)

// memState is the whole fake database. Values are copied on snapshot, so
// pointer fields inside entities must be replaced, never mutated in place.
type memState struct {
	nextID      int64
	users       map[int64]entities.User
	tasks       map[int64]entities.Task
	completions map[[2]int64]entities.Completion
	staffCodes  map[int64]entities.StaffCode
	reviews     map[int64]entities.Review
	referrals   []entities.Referral
	items       map[int64]entities.ShopItem
	purchases   []entities.Purchase
	adjustments []entities.BalanceAdjustment
	locked      []int64
}

func (s *memState) clone() memState {
	out := *s
	out.users = make(map[int64]entities.User, len(s.users))
	for k, v := range s.users {
		out.users[k] = v
	}
	out.tasks = make(map[int64]entities.Task, len(s.tasks))
	for k, v := range s.tasks {
		out.tasks[k] = v
	}
	out.completions = make(map[[2]int64]entities.Completion, len(s.completions))
	for k, v := range s.completions {
		out.completions[k] = v
	}
	out.staffCodes = make(map[int64]entities.StaffCode, len(s.staffCodes))
	for k, v := range s.staffCodes {
		out.staffCodes[k] = v
	}
	out.reviews = make(map[int64]entities.Review, len(s.reviews))
	for k, v := range s.reviews {
		out.reviews[k] = v
	}
	out.items = make(map[int64]entities.ShopItem, len(s.items))
	for k, v := range s.items {
		out.items[k] = v
	}
	out.referrals = append([]entities.Referral(nil), s.referrals...)
	out.purchases = append([]entities.Purchase(nil), s.purchases...)
	out.adjustments = append([]entities.BalanceAdjustment(nil), s.adjustments...)
	out.locked = append([]int64(nil), s.locked...)
	return out
}

func (s *memState) id() int64 {
	s.nextID++
	return s.nextID
}

// memStore serializes transactions: Begin holds the lock until Commit or
// Rollback.
type memStore struct {
	mu    sync.Mutex
	state memState
}

func newMemStore() *memStore {
	return &memStore{state: memState{
		users:       map[int64]entities.User{},
		tasks:       map[int64]entities.Task{},
		completions: map[[2]int64]entities.Completion{},
		staffCodes:  map[int64]entities.StaffCode{},
		reviews:     map[int64]entities.Review{},
		items:       map[int64]entities.ShopItem{},
	}}
}

func (m *memStore) Begin(context.Context) (ports.UnitOfWork, error) {
	m.mu.Lock()
	return &memTx{store: m, snapshot: m.state.clone()}, nil
}

func (m *memStore) Do(ctx context.Context, fn func(uow ports.UnitOfWork) error) error {
	uow, err := m.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(uow); err != nil {
		_ = uow.Rollback(ctx)
		return err
	}
	return uow.Commit(ctx)
}

type memTx struct {
	store    *memStore
	snapshot memState
	closed   bool
}

func (t *memTx) Repositories() ports.Repositories {
	st := &t.store.state
	return ports.Repositories{
		Users:       memUsers{st},
		Tasks:       memTasks{st},
		Ledger:      memLedger{st},
		StaffCodes:  memStaffCodes{st},
		Reviews:     memReviews{st},
		Referrals:   memReferrals{st},
		Shop:        memShop{st},
		Adjustments: memAdjustments{st},
		Stats:       memStats{st},
	}
}

func (t *memTx) Commit(context.Context) error {
	if t.closed {
		return errors.New("unit of work already closed")
	}
	t.closed = true
	t.store.mu.Unlock()
	return nil
}

func (t *memTx) Rollback(context.Context) error {
	if t.closed {
		return errors.New("unit of work already closed")
	}
	t.closed = true
	t.store.state = t.snapshot
	t.store.mu.Unlock()
	return nil
}

// Seeding helpers run outside transactions; tests call them before any
// concurrent work starts.

func (m *memStore) addUser(u entities.User) entities.User {
	u.ID = m.state.id()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	m.state.users[u.ID] = u
	return u
}

func (m *memStore) addTask(t entities.Task) entities.Task {
	t.ID = m.state.id()
	m.state.tasks[t.ID] = t
	return t
}

func (m *memStore) addStaffCode(c entities.StaffCode) entities.StaffCode {
	c.ID = m.state.id()
	m.state.staffCodes[c.ID] = c
	return c
}

func (m *memStore) addItem(i entities.ShopItem) entities.ShopItem {
	i.ID = m.state.id()
	m.state.items[i.ID] = i
	return i
}

func (m *memStore) addReview(r entities.Review) entities.Review {
	r.ID = m.state.id()
	m.state.reviews[r.ID] = r
	return r
}

func (m *memStore) user(id int64) entities.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.users[id]
}

func (m *memStore) completionCount(userID, taskID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.completions[[2]int64{userID, taskID}]; ok {
		return 1
	}
	return 0
}

func int64p(v int64) *int64 { return &v }

type memUsers struct{ st *memState }

func (r memUsers) GetByID(_ context.Context, id int64) (*entities.User, error) {
	u, ok := r.st.users[id]
	if !ok {
		return nil, exceptions.ErrUserNotFound
	}
	return &u, nil
}

func (r memUsers) GetForUpdate(ctx context.Context, id int64) (*entities.User, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.st.locked = append(r.st.locked, id)
	return u, nil
}

func (r memUsers) GetByPlatform(_ context.Context, ref entities.PlatformRef) (*entities.User, error) {
	for _, u := range r.st.users {
		if id := u.PlatformID(ref.Platform); id != nil && *id == ref.ID {
			return &u, nil
		}
	}
	return nil, exceptions.ErrUserNotFound
}

func (r memUsers) GetByPhone(_ context.Context, phone string) (*entities.User, error) {
	for _, u := range r.st.users {
		if u.Phone != nil && *u.Phone == phone {
			return &u, nil
		}
	}
	return nil, exceptions.ErrUserNotFound
}

func (r memUsers) phoneOwner(phone string) (int64, bool) {
	for _, u := range r.st.users {
		if u.Phone != nil && *u.Phone == phone {
			return u.ID, true
		}
	}
	return 0, false
}

func applyProfile(u *entities.User, p entities.Profile) {
	if p.FirstName != "" {
		u.FirstName = p.FirstName
	}
	if p.LastName != "" {
		u.LastName = p.LastName
	}
	if p.Username != "" {
		u.Username = p.Username
	}
	if p.Phone != "" {
		phone := p.Phone
		u.Phone = &phone
	}
	if p.MembershipType != "" {
		u.MembershipType = p.MembershipType
	}
	now := time.Now()
	u.LastActivityAt = &now
}

func setPlatformID(u *entities.User, ref entities.PlatformRef) {
	switch ref.Platform {
	case entities.PlatformTelegram:
		u.TelegramID = int64p(ref.ID)
	case entities.PlatformVK:
		u.VKID = int64p(ref.ID)
	}
}

func (r memUsers) UpsertByPlatform(ctx context.Context, ref entities.PlatformRef, p entities.Profile) (*entities.User, error) {
	u, err := r.GetByPlatform(ctx, ref)
	if errors.Is(err, exceptions.ErrUserNotFound) {
		u = &entities.User{ID: r.st.id(), CreatedAt: time.Now()}
		setPlatformID(u, ref)
	}
	if p.Phone != "" {
		if owner, ok := r.phoneOwner(p.Phone); ok && owner != u.ID {
			return nil, exceptions.ErrPhoneTaken
		}
	}
	applyProfile(u, p)
	r.st.users[u.ID] = *u
	return u, nil
}

func (r memUsers) LinkPlatform(ctx context.Context, userID int64, ref entities.PlatformRef, p entities.Profile) (*entities.User, error) {
	u, err := r.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if holder, err := r.GetByPlatform(ctx, ref); err == nil && holder.ID != userID {
		return nil, exceptions.ErrPhoneTaken
	}
	setPlatformID(u, ref)
	applyProfile(u, p)
	r.st.users[u.ID] = *u
	return u, nil
}

func (r memUsers) HasActivity(_ context.Context, userID int64) (bool, error) {
	u := r.st.users[userID]
	if u.Coins > 0 || u.XP > 0 || len(u.SurveyData) > 0 {
		return true, nil
	}
	for k := range r.st.completions {
		if k[0] == userID {
			return true, nil
		}
	}
	for _, v := range r.st.reviews {
		if v.UserID == userID {
			return true, nil
		}
	}
	for _, v := range r.st.referrals {
		if v.UserID == userID {
			return true, nil
		}
	}
	for _, v := range r.st.purchases {
		if v.UserID == userID {
			return true, nil
		}
	}
	for _, v := range r.st.adjustments {
		if v.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r memUsers) Delete(_ context.Context, id int64) error {
	if _, ok := r.st.users[id]; !ok {
		return exceptions.ErrUserNotFound
	}
	delete(r.st.users, id)
	for k := range r.st.completions {
		if k[0] == id {
			delete(r.st.completions, k)
		}
	}
	for k, v := range r.st.reviews {
		if v.UserID == id {
			delete(r.st.reviews, k)
		}
	}
	return nil
}

func (r memUsers) Credit(_ context.Context, userID int64, amount int64) (int64, error) {
	u, ok := r.st.users[userID]
	if !ok {
		return 0, exceptions.ErrUserNotFound
	}
	u.Coins += amount
	u.XP += amount
	r.st.users[userID] = u
	return u.Coins, nil
}

func (r memUsers) Debit(_ context.Context, userID int64, amount int64) (int64, error) {
	u, ok := r.st.users[userID]
	if !ok {
		return 0, exceptions.ErrUserNotFound
	}
	if u.Coins < amount {
		return 0, exceptions.ErrInsufficientBalance
	}
	u.Coins -= amount
	r.st.users[userID] = u
	return u.Coins, nil
}

func (r memUsers) SetBalance(_ context.Context, userID int64, coins, xp int64) (*entities.User, error) {
	u, ok := r.st.users[userID]
	if !ok {
		return nil, exceptions.ErrUserNotFound
	}
	u.Coins, u.XP = coins, xp
	r.st.users[userID] = u
	return &u, nil
}

func (r memUsers) SaveSurvey(_ context.Context, userID int64, answers json.RawMessage) error {
	u, ok := r.st.users[userID]
	if !ok {
		return exceptions.ErrUserNotFound
	}
	u.SurveyData = append(json.RawMessage(nil), answers...)
	r.st.users[userID] = u
	return nil
}

func (r memUsers) List(context.Context) ([]entities.UserSummary, error) {
	out := make([]entities.UserSummary, 0, len(r.st.users))
	for _, u := range r.st.users {
		var done int64
		for k := range r.st.completions {
			if k[0] == u.ID {
				done++
			}
		}
		out = append(out, entities.UserSummary{User: u, CompletedTasks: done})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memUsers) Leaderboard(_ context.Context, limit int) ([]entities.LeaderboardEntry, error) {
	out := make([]entities.LeaderboardEntry, 0, len(r.st.users))
	for _, u := range r.st.users {
		out = append(out, entities.LeaderboardEntry{
			UserID: u.ID, TelegramID: u.TelegramID, VKID: u.VKID,
			FirstName: u.FirstName, Coins: u.Coins, XP: u.XP,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].XP != out[j].XP {
			return out[i].XP > out[j].XP
		}
		return out[i].UserID < out[j].UserID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memTasks struct{ st *memState }

func (r memTasks) GetByID(_ context.Context, id int64) (*entities.Task, error) {
	t, ok := r.st.tasks[id]
	if !ok {
		return nil, exceptions.ErrTaskNotFound
	}
	return &t, nil
}

func (r memTasks) GetByDay(_ context.Context, day int) (*entities.Task, error) {
	for _, t := range r.st.tasks {
		if t.DayNumber == day {
			return &t, nil
		}
	}
	return nil, exceptions.ErrTaskNotFound
}

func (r memTasks) List(context.Context) ([]*entities.Task, error) {
	out := make([]*entities.Task, 0, len(r.st.tasks))
	for _, t := range r.st.tasks {
		t := t
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DayNumber < out[j].DayNumber })
	return out, nil
}

func (r memTasks) ListForUser(ctx context.Context, userID int64) ([]entities.TaskProgress, error) {
	tasks, _ := r.List(ctx)
	out := make([]entities.TaskProgress, 0, len(tasks))
	for _, t := range tasks {
		p := entities.TaskProgress{Task: *t}
		if c, ok := r.st.completions[[2]int64{userID, t.ID}]; ok {
			status := c.Status
			p.Status = &status
			p.CompletedAt = c.CompletedAt
		}
		var latest *entities.Review
		for _, rv := range r.st.reviews {
			rv := rv
			if rv.UserID == userID && rv.TaskID == t.ID && (latest == nil || rv.ID > latest.ID) {
				latest = &rv
			}
		}
		if latest != nil {
			status := latest.Status
			p.ReviewStatus = &status
		}
		out = append(out, p)
	}
	return out, nil
}

func (r memTasks) ListStats(ctx context.Context) ([]entities.TaskStats, error) {
	tasks, _ := r.List(ctx)
	out := make([]entities.TaskStats, 0, len(tasks))
	for _, t := range tasks {
		var n int64
		for k := range r.st.completions {
			if k[1] == t.ID {
				n++
			}
		}
		out = append(out, entities.TaskStats{Task: *t, CompletionCount: n})
	}
	return out, nil
}

func (r memTasks) Update(_ context.Context, id int64, u entities.TaskUpdate) (*entities.Task, error) {
	t, ok := r.st.tasks[id]
	if !ok {
		return nil, exceptions.ErrTaskNotFound
	}
	t.Title, t.Description, t.CoinsReward = u.Title, u.Description, u.CoinsReward
	t.VerificationType, t.VerificationData = u.VerificationType, u.VerificationData
	r.st.tasks[id] = t
	return &t, nil
}

type memLedger struct{ st *memState }

func (r memLedger) IsCompleted(_ context.Context, userID, taskID int64) (bool, error) {
	c, ok := r.st.completions[[2]int64{userID, taskID}]
	return ok && c.Status == entities.CompletionStatusCompleted, nil
}

func (r memLedger) Complete(_ context.Context, c *entities.Completion) error {
	key := [2]int64{c.UserID, c.TaskID}
	if existing, ok := r.st.completions[key]; ok && existing.Status == entities.CompletionStatusCompleted {
		return exceptions.ErrAlreadyCompleted
	}
	c.ID = r.st.id()
	r.st.completions[key] = *c
	return nil
}

func (r memLedger) ListByUser(_ context.Context, userID int64) ([]entities.CompletedTask, error) {
	out := []entities.CompletedTask{}
	for k, c := range r.st.completions {
		if k[0] != userID {
			continue
		}
		out = append(out, entities.CompletedTask{
			Task: r.st.tasks[k[1]], Status: c.Status, CompletedAt: c.CompletedAt, VerifiedBy: c.VerifiedBy,
		})
	}
	return out, nil
}

type memStaffCodes struct{ st *memState }

func (r memStaffCodes) Redeem(_ context.Context, code string, taskDay int) error {
	for id, c := range r.st.staffCodes {
		if !strings.EqualFold(c.Code, strings.TrimSpace(code)) {
			continue
		}
		if c.TaskDay != nil && *c.TaskDay != taskDay {
			continue
		}
		if c.UsedCount >= c.UsageLimit {
			continue
		}
		c.UsedCount++
		r.st.staffCodes[id] = c
		return nil
	}
	return exceptions.ErrInvalidCode
}

func (r memStaffCodes) List(context.Context) ([]entities.StaffCode, error) {
	out := make([]entities.StaffCode, 0, len(r.st.staffCodes))
	for _, c := range r.st.staffCodes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memStaffCodes) Create(_ context.Context, c *entities.StaffCode) error {
	c.ID = r.st.id()
	c.CreatedAt = time.Now()
	r.st.staffCodes[c.ID] = *c
	return nil
}

type memReviews struct{ st *memState }

func (r memReviews) HasActive(_ context.Context, userID, taskID int64) (bool, error) {
	for _, rv := range r.st.reviews {
		if rv.UserID == userID && rv.TaskID == taskID &&
			(rv.Status == entities.ReviewStatusPending || rv.Status == entities.ReviewStatusApproved) {
			return true, nil
		}
	}
	return false, nil
}

func (r memReviews) Create(ctx context.Context, rv *entities.Review) error {
	if active, _ := r.HasActive(ctx, rv.UserID, rv.TaskID); active {
		return exceptions.ErrReviewAlreadySubmitted
	}
	rv.ID = r.st.id()
	r.st.reviews[rv.ID] = *rv
	return nil
}

func (r memReviews) GetForUpdate(_ context.Context, id int64) (*entities.Review, error) {
	rv, ok := r.st.reviews[id]
	if !ok {
		return nil, exceptions.ErrReviewNotFound
	}
	return &rv, nil
}

func (r memReviews) Decide(_ context.Context, rv *entities.Review) error {
	if _, ok := r.st.reviews[rv.ID]; !ok {
		return exceptions.ErrReviewNotFound
	}
	r.st.reviews[rv.ID] = *rv
	return nil
}

func (r memReviews) List(_ context.Context, status *entities.ReviewStatus) ([]entities.ReviewView, error) {
	out := []entities.ReviewView{}
	for _, rv := range r.st.reviews {
		if status != nil && rv.Status != *status {
			continue
		}
		u, t := r.st.users[rv.UserID], r.st.tasks[rv.TaskID]
		out = append(out, entities.ReviewView{
			Review: rv, FirstName: u.FirstName, LastName: u.LastName,
			TelegramID: u.TelegramID, VKID: u.VKID,
			DayNumber: t.DayNumber, TaskTitle: t.Title, CoinsReward: t.CoinsReward,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memReviews) CountPending(context.Context) (int64, error) {
	var n int64
	for _, rv := range r.st.reviews {
		if rv.Status == entities.ReviewStatusPending {
			n++
		}
	}
	return n, nil
}

type memReferrals struct{ st *memState }

func (r memReferrals) Create(_ context.Context, ref *entities.Referral) error {
	ref.ID = r.st.id()
	ref.CreatedAt = time.Now()
	r.st.referrals = append(r.st.referrals, *ref)
	return nil
}

func (r memReferrals) List(context.Context) ([]entities.ReferralView, error) {
	out := make([]entities.ReferralView, 0, len(r.st.referrals))
	for _, ref := range r.st.referrals {
		u := r.st.users[ref.UserID]
		out = append(out, entities.ReferralView{Referral: ref, FirstName: u.FirstName, TelegramID: u.TelegramID, VKID: u.VKID})
	}
	return out, nil
}

type memShop struct{ st *memState }

func (r memShop) ListActive(context.Context) ([]entities.ShopItem, error) {
	out := []entities.ShopItem{}
	for _, i := range r.st.items {
		if i.IsActive {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Price < out[b].Price })
	return out, nil
}

func (r memShop) ListStats(context.Context) ([]entities.ShopItemStats, error) {
	out := []entities.ShopItemStats{}
	for _, i := range r.st.items {
		var n int64
		for _, p := range r.st.purchases {
			if p.ItemID == i.ID {
				n++
			}
		}
		out = append(out, entities.ShopItemStats{ShopItem: i, PurchaseCount: n})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Price < out[b].Price })
	return out, nil
}

func (r memShop) GetActiveItem(_ context.Context, id int64) (*entities.ShopItem, error) {
	i, ok := r.st.items[id]
	if !ok || !i.IsActive {
		return nil, exceptions.ErrItemNotFound
	}
	return &i, nil
}

func (r memShop) UpdateItem(_ context.Context, item *entities.ShopItem) error {
	if _, ok := r.st.items[item.ID]; !ok {
		return exceptions.ErrItemNotFound
	}
	r.st.items[item.ID] = *item
	return nil
}

func (r memShop) CreatePurchase(_ context.Context, p *entities.Purchase) error {
	p.ID = r.st.id()
	r.st.purchases = append(r.st.purchases, *p)
	return nil
}

func (r memShop) views(filter func(entities.Purchase) bool) []entities.PurchaseView {
	out := []entities.PurchaseView{}
	for i := len(r.st.purchases) - 1; i >= 0; i-- {
		p := r.st.purchases[i]
		if !filter(p) {
			continue
		}
		u := r.st.users[p.UserID]
		out = append(out, entities.PurchaseView{
			Purchase: p, ItemTitle: r.st.items[p.ItemID].Title,
			FirstName: u.FirstName, TelegramID: u.TelegramID, VKID: u.VKID,
		})
	}
	return out
}

func (r memShop) ListPurchases(_ context.Context, limit int) ([]entities.PurchaseView, error) {
	out := r.views(func(entities.Purchase) bool { return true })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memShop) ListPurchasesByUser(_ context.Context, userID int64) ([]entities.PurchaseView, error) {
	return r.views(func(p entities.Purchase) bool { return p.UserID == userID }), nil
}

type memAdjustments struct{ st *memState }

func (r memAdjustments) Record(_ context.Context, a *entities.BalanceAdjustment) error {
	a.ID = r.st.id()
	r.st.adjustments = append(r.st.adjustments, *a)
	return nil
}

func (r memAdjustments) ListByUser(_ context.Context, userID int64) ([]entities.BalanceAdjustment, error) {
	out := []entities.BalanceAdjustment{}
	for _, a := range r.st.adjustments {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

type memStats struct{ st *memState }

func (r memStats) Collect(_ context.Context, activeSince time.Time) (*entities.Stats, error) {
	stats := &entities.Stats{}
	for _, u := range r.st.users {
		stats.Users.Total++
		if u.LastActivityAt != nil && u.LastActivityAt.After(activeSince) {
			stats.Users.Active++
		}
	}
	stats.Tasks.Total = int64(len(r.st.tasks))
	stats.Tasks.Completed = int64(len(r.st.completions))
	stats.Prizes.Total = int64(len(r.st.items))
	for _, p := range r.st.purchases {
		stats.Prizes.Purchased++
		stats.Prizes.CoinsSpent += p.PricePaid
	}
	for _, rv := range r.st.reviews {
		if rv.Status == entities.ReviewStatusPending {
			stats.Reviews.Pending++
		}
	}
	return stats, nil
}

type sentMessage struct {
	UserID int64
	Text   string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, user *entities.User, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{UserID: user.ID, Text: text})
	return n.err
}

func (n *recordingNotifier) messages() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.sent...)
}

type memPhotoStorage struct {
	mu    sync.Mutex
	saved map[string][]byte
	err   error
}

func (s *memPhotoStorage) Save(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		s.saved = map[string][]byte{}
	}
	s.saved[key] = data
	return "https://cdn.test/" + key, nil
}

func syncRunner(fn func()) { fn() }
