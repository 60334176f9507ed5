package services

import (
	"context"
	"time"

	"github.com/trucoapp/tournament-manager/checkout"
	"github.com/trucoapp/tournament-manager/models"
	"github.com/trucoapp/tournament-manager/repositories"
)

// passthroughTxRunner runs the unit of work without a real transaction so
// the fakes below can stand in for the database.
type passthroughTxRunner struct{}

func (passthroughTxRunner) RunInTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type fakeRecordRepo struct {
	records map[int]*models.PaymentRecord
	nextID  int

	createErr error
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{records: make(map[int]*models.PaymentRecord), nextID: 1}
}

func (r *fakeRecordRepo) Create(ctx context.Context, exec repositories.SQLExecutor, rec *models.PaymentRecord) error {
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.records {
		if existing.TicketID == rec.TicketID {
			return repositories.ErrTicketIDConflict
		}
	}
	rec.ID = r.nextID
	r.nextID++
	if rec.SubmittedAt.IsZero() {
		rec.SubmittedAt = time.Now()
	}
	stored := *rec
	r.records[rec.ID] = &stored
	return nil
}

func (r *fakeRecordRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.PaymentRecord, error) {
	rec, ok := r.records[id]
	if !ok {
		return nil, repositories.ErrRecordNotFound
	}
	copied := *rec
	return &copied, nil
}

func (r *fakeRecordRepo) GetByTicketID(ctx context.Context, ticketID string) (*models.PaymentRecord, error) {
	for _, rec := range r.records {
		if rec.TicketID == ticketID {
			copied := *rec
			return &copied, nil
		}
	}
	return nil, repositories.ErrRecordNotFound
}

func (r *fakeRecordRepo) List(ctx context.Context, status *models.PaymentRecordStatus) ([]models.PaymentRecord, error) {
	out := make([]models.PaymentRecord, 0)
	for _, rec := range r.records {
		if status == nil || rec.Status == *status {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *fakeRecordRepo) ConfirmIfPending(ctx context.Context, exec repositories.SQLExecutor, id int, adminID int, at time.Time) error {
	return r.transition(id, adminID, models.RecordStatusConfirmed, at)
}

func (r *fakeRecordRepo) RejectIfPending(ctx context.Context, exec repositories.SQLExecutor, id int, adminID int, at time.Time) error {
	return r.transition(id, adminID, models.RecordStatusRejected, at)
}

func (r *fakeRecordRepo) transition(id, adminID int, to models.PaymentRecordStatus, at time.Time) error {
	rec, ok := r.records[id]
	if !ok || rec.Status != models.RecordStatusPendingConfirmation {
		return repositories.ErrRecordNotPending
	}
	rec.Status = to
	rec.ConfirmedByUserID = &adminID
	if to == models.RecordStatusConfirmed {
		rec.ConfirmedAt = &at
	} else {
		rec.RejectedAt = &at
	}
	return nil
}

type fakePlayerRepo struct {
	players map[int]*models.Player
	nextID  int

	deleteErr error
}

func newFakePlayerRepo() *fakePlayerRepo {
	return &fakePlayerRepo{players: make(map[int]*models.Player), nextID: 1}
}

func (r *fakePlayerRepo) Create(ctx context.Context, exec repositories.SQLExecutor, player *models.Player) error {
	player.ID = r.nextID
	r.nextID++
	player.RegisteredAt = time.Now()
	stored := *player
	r.players[player.ID] = &stored
	return nil
}

func (r *fakePlayerRepo) GetByID(ctx context.Context, id int) (*models.Player, error) {
	p, ok := r.players[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakePlayerRepo) FindByNameOrPhone(ctx context.Context, exec repositories.SQLExecutor, name, phone string) (*models.Player, error) {
	var phoneMatch *models.Player
	for _, p := range r.players {
		if p.Name == name {
			copied := *p
			return &copied, nil
		}
		if phone != "" && p.Phone != nil && *p.Phone == phone {
			phoneMatch = p
		}
	}
	if phoneMatch != nil {
		copied := *phoneMatch
		return &copied, nil
	}
	return nil, repositories.ErrPlayerNotFound
}

func (r *fakePlayerRepo) List(ctx context.Context) ([]models.Player, error) {
	out := make([]models.Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakePlayerRepo) Update(ctx context.Context, player *models.Player) error {
	if _, ok := r.players[player.ID]; !ok {
		return repositories.ErrPlayerNotFound
	}
	stored := *player
	r.players[player.ID] = &stored
	return nil
}

func (r *fakePlayerRepo) Delete(ctx context.Context, id int) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.players[id]; !ok {
		return repositories.ErrPlayerNotFound
	}
	delete(r.players, id)
	return nil
}

type fakeTournamentRepo struct {
	tournaments  map[int]*models.Tournament
	participants map[int][]int
	nextID       int
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{
		tournaments:  make(map[int]*models.Tournament),
		participants: make(map[int][]int),
		nextID:       1,
	}
}

func (r *fakeTournamentRepo) Create(ctx context.Context, t *models.Tournament) error {
	t.ID = r.nextID
	r.nextID++
	t.CreatedAt = time.Now()
	stored := *t
	r.tournaments[t.ID] = &stored
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTournamentRepo) GetByName(ctx context.Context, exec repositories.SQLExecutor, name string) (*models.Tournament, error) {
	for _, t := range r.tournaments {
		if t.Name == name {
			copied := *t
			return &copied, nil
		}
	}
	return nil, repositories.ErrTournamentNotFound
}

func (r *fakeTournamentRepo) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	out := make([]models.Tournament, 0)
	for _, t := range r.tournaments {
		if filter.Status == nil || t.Status == *filter.Status {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTournamentRepo) Update(ctx context.Context, t *models.Tournament) error {
	if _, ok := r.tournaments[t.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	stored := *t
	r.tournaments[t.ID] = &stored
	return nil
}

func (r *fakeTournamentRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.tournaments, id)
	delete(r.participants, id)
	return nil
}

func (r *fakeTournamentRepo) AddParticipant(ctx context.Context, tournamentID, playerID int) error {
	for _, id := range r.participants[tournamentID] {
		if id == playerID {
			return repositories.ErrParticipantConflict
		}
	}
	r.participants[tournamentID] = append(r.participants[tournamentID], playerID)
	return nil
}

func (r *fakeTournamentRepo) RemoveParticipant(ctx context.Context, tournamentID, playerID int) error {
	ids := r.participants[tournamentID]
	for i, id := range ids {
		if id == playerID {
			r.participants[tournamentID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return repositories.ErrParticipantNotFound
}

func (r *fakeTournamentRepo) ListParticipants(ctx context.Context, tournamentID int) ([]models.Player, error) {
	out := make([]models.Player, 0)
	for _, id := range r.participants[tournamentID] {
		out = append(out, models.Player{ID: id})
	}
	return out, nil
}

func (r *fakeTournamentRepo) CountParticipants(ctx context.Context, tournamentID int) (int, error) {
	return len(r.participants[tournamentID]), nil
}

type fakePaymentRepo struct {
	payments map[int]*models.Payment
	nextID   int
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[int]*models.Payment), nextID: 1}
}

func (r *fakePaymentRepo) Create(ctx context.Context, exec repositories.SQLExecutor, p *models.Payment) error {
	p.ID = r.nextID
	r.nextID++
	p.CreatedAt = time.Now()
	stored := *p
	r.payments[p.ID] = &stored
	return nil
}

func (r *fakePaymentRepo) GetByID(ctx context.Context, id int) (*models.Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, repositories.ErrPaymentNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakePaymentRepo) List(ctx context.Context, filter repositories.ListPaymentsFilter) ([]models.Payment, error) {
	out := make([]models.Payment, 0)
	for _, p := range r.payments {
		if filter.Type != nil && p.Type != *filter.Type {
			continue
		}
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakePaymentRepo) Update(ctx context.Context, p *models.Payment) error {
	if _, ok := r.payments[p.ID]; !ok {
		return repositories.ErrPaymentNotFound
	}
	stored := *p
	r.payments[p.ID] = &stored
	return nil
}

func (r *fakePaymentRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.payments[id]; !ok {
		return repositories.ErrPaymentNotFound
	}
	delete(r.payments, id)
	return nil
}

type fakeCheckoutClient struct {
	preference *checkout.Preference
	payment    *checkout.PaymentInfo
	lastReq    *checkout.PreferenceRequest
}

func (c *fakeCheckoutClient) CreatePreference(ctx context.Context, req checkout.PreferenceRequest) (*checkout.Preference, error) {
	c.lastReq = &req
	if c.preference != nil {
		return c.preference, nil
	}
	return &checkout.Preference{InitPoint: "https://mp.example.com/init", PreferenceID: "pref-1"}, nil
}

func (c *fakeCheckoutClient) GetPayment(ctx context.Context, paymentID string) (*checkout.PaymentInfo, error) {
	return c.payment, nil
}

type fakeQueue struct {
	entries []*models.PaymentRecord
}

func (q *fakeQueue) Enqueue(record *models.PaymentRecord) error {
	q.entries = append(q.entries, record)
	return nil
}

func (q *fakeQueue) Drain(submit func(record *models.PaymentRecord) error) (int, error) {
	remaining := q.entries[:0]
	drained := 0
	for _, rec := range q.entries {
		if err := submit(rec); err != nil {
			remaining = append(remaining, rec)
			continue
		}
		drained++
	}
	q.entries = remaining
	return drained, nil
}

func (q *fakeQueue) Len() (int, error) { return len(q.entries), nil }

type fakePublisher struct {
	events []string
}

func (p *fakePublisher) Publish(event string, payload interface{}) {
	p.events = append(p.events, event)
}
