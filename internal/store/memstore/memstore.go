// Package memstore is an in-process implementation of store.Store. Transactions
// run on a copy of the data that replaces the live state only on commit.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shuttleclub/backend/internal/models"
	"github.com/shuttleclub/backend/internal/store"
)

type data struct {
	members   map[string]models.Member
	teams     map[string]models.Team
	sessions  map[string]models.Session
	payments  map[string]models.Payment
	histories []models.TransactionHistory
}

func newData() *data {
	return &data{
		members:  map[string]models.Member{},
		teams:    map[string]models.Team{},
		sessions: map[string]models.Session{},
		payments: map[string]models.Payment{},
	}
}

func (d *data) clone() *data {
	c := newData()
	for k, v := range d.members {
		c.members[k] = v
	}
	for k, v := range d.teams {
		c.teams[k] = cloneTeam(v)
	}
	for k, v := range d.sessions {
		c.sessions[k] = cloneSession(v)
	}
	for k, v := range d.payments {
		c.payments[k] = v
	}
	c.histories = append([]models.TransactionHistory(nil), d.histories...)
	return c
}

type Store struct {
	mu   sync.Mutex
	data *data
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{data: newData()}
}

// AddMember registers a member record. Member management lives outside this
// service, so tests and LoadMembers seed members through it.
func (s *Store) AddMember(member models.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if member.CreatedAt.IsZero() {
		member.CreatedAt = time.Now().UTC()
		member.UpdatedAt = member.CreatedAt
	}
	s.data.members[member.ID] = member
}

// LoadMembers reads a JSON array of members and registers each of them. It
// returns the number of members loaded.
func (s *Store) LoadMembers(r io.Reader) (int, error) {
	var members []models.Member
	if err := json.NewDecoder(r).Decode(&members); err != nil {
		return 0, fmt.Errorf("failed to decode members: %w", err)
	}
	for i, m := range members {
		if m.ID == "" || m.Name == "" {
			return 0, fmt.Errorf("member %d: id and name are required", i)
		}
		if m.Role == "" {
			members[i].Role = models.RoleUser
		}
	}
	for _, m := range members {
		s.AddMember(m)
	}
	return len(members), nil
}

// LoadMembersFile is LoadMembers on the file at path.
func (s *Store) LoadMembersFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open member seed file: %w", err)
	}
	defer f.Close()
	return s.LoadMembers(f)
}

func (s *Store) WithTx(ctx context.Context, fn func(q store.Queries) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.data.clone()
	if err := fn(&queries{d: working}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data = working
	return nil
}

func (s *Store) locked() (*queries, func()) {
	s.mu.Lock()
	return &queries{d: s.data}, s.mu.Unlock
}

func (s *Store) FindActiveMembers(ctx context.Context, ids []string) ([]models.Member, error) {
	q, unlock := s.locked()
	defer unlock()
	return q.FindActiveMembers(ctx, ids)
}

func (s *Store) GetMember(ctx context.Context, id string) (*models.Member, error) {
	q, unlock := s.locked()
	defer unlock()
	return q.GetMember(ctx, id)
}

func (s *Store) SetMemberBalance(ctx context.Context, id string, balance int64) error {
	q, unlock := s.locked()
	defer unlock()
	return q.SetMemberBalance(ctx, id, balance)
}

func (s *Store) ListMemberBalances(ctx context.Context) ([]models.MemberBalance, error) {
	q, unlock := s.locked()
	defer unlock()
	return q.ListMemberBalances(ctx)
}

func (s *Store) CreateTeam(ctx context.Context, team *models.Team) error {
	q, unlock := s.locked()
	defer unlock()
	return q.CreateTeam(ctx, team)
}

func (s *Store) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	q, unlock := s.locked()
	defer unlock()
	return q.GetTeam(ctx, id)
}

func (s *Store) UpdateTeam(ctx context.Context, team *models.Team) error {
	q, unlock := s.locked()
	defer unlock()
	return q.UpdateTeam(ctx, team)
}

func (s *Store) CreateSession(ctx context.Context, session *models.Session) error {
	q, unlock := s.locked()
	defer unlock()
	return q.CreateSession(ctx, session)
}

func (s *Store) GetSession(ctx context.Context, id string) (*models.Session, error) {
	q, unlock := s.locked()
	defer unlock()
	return q.GetSession(ctx, id)
}

func (s *Store) UpdateSession(ctx context.Context, session *models.Session) error {
	q, unlock := s.locked()
	defer unlock()
	return q.UpdateSession(ctx, session)
}

func (s *Store) ListSessions(ctx context.Context, limit int) ([]models.Session, error) {
	q, unlock := s.locked()
	defer unlock()
	return q.ListSessions(ctx, limit)
}

func (s *Store) InsertHistory(ctx context.Context, entry *models.TransactionHistory) error {
	q, unlock := s.locked()
	defer unlock()
	return q.InsertHistory(ctx, entry)
}

func (s *Store) ListHistory(ctx context.Context, filter models.HistoryFilter) ([]models.TransactionHistory, int, error) {
	q, unlock := s.locked()
	defer unlock()
	return q.ListHistory(ctx, filter)
}

func (s *Store) CreatePayment(ctx context.Context, payment *models.Payment) error {
	q, unlock := s.locked()
	defer unlock()
	return q.CreatePayment(ctx, payment)
}

func (s *Store) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	q, unlock := s.locked()
	defer unlock()
	return q.GetPayment(ctx, id)
}

func (s *Store) UpdatePayment(ctx context.Context, payment *models.Payment) error {
	q, unlock := s.locked()
	defer unlock()
	return q.UpdatePayment(ctx, payment)
}

func (s *Store) ListPayments(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, int, error) {
	q, unlock := s.locked()
	defer unlock()
	return q.ListPayments(ctx, filter)
}

// queries operates on data without locking; callers hold Store.mu.
type queries struct {
	d *data
}

func (q *queries) FindActiveMembers(_ context.Context, ids []string) ([]models.Member, error) {
	members := []models.Member{}
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		m, ok := q.d.members[id]
		if ok && m.DeletedAt == nil {
			members = append(members, m)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members, nil
}

func (q *queries) GetMember(_ context.Context, id string) (*models.Member, error) {
	m, ok := q.d.members[id]
	if !ok || m.DeletedAt != nil {
		return nil, store.ErrNotFound
	}
	return &m, nil
}

func (q *queries) SetMemberBalance(_ context.Context, id string, balance int64) error {
	m, ok := q.d.members[id]
	if !ok {
		return store.ErrNotFound
	}
	m.Balance = balance
	m.UpdatedAt = time.Now().UTC()
	q.d.members[id] = m
	return nil
}

func (q *queries) ListMemberBalances(_ context.Context) ([]models.MemberBalance, error) {
	sums := map[string]*models.PaymentSums{}
	for _, p := range q.d.payments {
		s, ok := sums[p.MemberID]
		if !ok {
			s = &models.PaymentSums{}
			sums[p.MemberID] = s
		}
		switch p.Status {
		case models.PaymentStatusPending:
			s.Pending += p.Amount
		case models.PaymentStatusAccepted:
			s.Accepted += p.Amount
		}
	}

	balances := []models.MemberBalance{}
	for _, m := range q.d.members {
		if m.DeletedAt != nil {
			continue
		}
		b := models.MemberBalance{MemberID: m.ID, Name: m.Name, Balance: m.Balance}
		if s, ok := sums[m.ID]; ok {
			b.StatusAmounts = *s
		}
		balances = append(balances, b)
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].Name < balances[j].Name })
	return balances, nil
}

func (q *queries) CreateTeam(_ context.Context, team *models.Team) error {
	if team.ID == "" {
		team.ID = uuid.New().String()
	}
	if team.UpdateTime.IsZero() {
		team.UpdateTime = time.Now().UTC()
	}
	q.d.teams[team.ID] = cloneTeam(*team)
	return nil
}

func (q *queries) GetTeam(_ context.Context, id string) (*models.Team, error) {
	t, ok := q.d.teams[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	t = cloneTeam(t)
	return &t, nil
}

func (q *queries) UpdateTeam(_ context.Context, team *models.Team) error {
	if _, ok := q.d.teams[team.ID]; !ok {
		return store.ErrNotFound
	}
	q.d.teams[team.ID] = cloneTeam(*team)
	return nil
}

func (q *queries) CreateSession(_ context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	q.d.sessions[session.ID] = cloneSession(*session)
	return nil
}

func (q *queries) GetSession(_ context.Context, id string) (*models.Session, error) {
	s, ok := q.d.sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	s = cloneSession(s)
	return &s, nil
}

func (q *queries) UpdateSession(_ context.Context, session *models.Session) error {
	if _, ok := q.d.sessions[session.ID]; !ok {
		return store.ErrNotFound
	}
	q.d.sessions[session.ID] = cloneSession(*session)
	return nil
}

func (q *queries) ListSessions(_ context.Context, limit int) ([]models.Session, error) {
	sessions := make([]models.Session, 0, len(q.d.sessions))
	for _, s := range q.d.sessions {
		sessions = append(sessions, cloneSession(s))
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Time.After(sessions[j].Time) })
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

func (q *queries) InsertHistory(_ context.Context, entry *models.TransactionHistory) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	q.d.histories = append(q.d.histories, *entry)
	return nil
}

func (q *queries) ListHistory(_ context.Context, filter models.HistoryFilter) ([]models.TransactionHistory, int, error) {
	matched := []models.TransactionHistory{}
	for _, h := range q.d.histories {
		if filter.Type != "" && h.Type != filter.Type {
			continue
		}
		if filter.MemberID != "" && (h.MemberID == nil || *h.MemberID != filter.MemberID) {
			continue
		}
		if filter.GroupID != "" && (h.GroupID == nil || *h.GroupID != filter.GroupID) {
			continue
		}
		if filter.StartDate != nil && h.CreatedAt.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && h.CreatedAt.After(*filter.EndDate) {
			continue
		}
		matched = append(matched, h)
	}
	// Entries are appended in insertion order; newest first with a stable tie break.
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return paginate(matched, filter.Page, filter.Limit), len(matched), nil
}

func (q *queries) CreatePayment(_ context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	q.d.payments[payment.ID] = *payment
	return nil
}

func (q *queries) GetPayment(_ context.Context, id string) (*models.Payment, error) {
	p, ok := q.d.payments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (q *queries) UpdatePayment(_ context.Context, payment *models.Payment) error {
	if _, ok := q.d.payments[payment.ID]; !ok {
		return store.ErrNotFound
	}
	q.d.payments[payment.ID] = *payment
	return nil
}

func (q *queries) ListPayments(_ context.Context, filter models.PaymentFilter) ([]models.Payment, int, error) {
	matched := []models.Payment{}
	for _, p := range q.d.payments {
		if filter.MemberID != "" && p.MemberID != filter.MemberID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Date.After(matched[j].Date) })
	return paginate(matched, filter.Page, filter.Limit), len(matched), nil
}

func paginate[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func cloneTeam(t models.Team) models.Team {
	t.Members = append(models.TeamMembers(nil), t.Members...)
	return t
}

func cloneSession(s models.Session) models.Session {
	participants := make(models.Participants, len(s.Participants))
	for i, p := range s.Participants {
		p.SubParticipants = append([]models.SubParticipant(nil), p.SubParticipants...)
		participants[i] = p
	}
	s.Participants = participants
	return s
}
