package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"villagework/pkg/models"
)

// MemoryStore implements Store with in-process maps
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[string]*models.User
	phones        map[string]string
	sessions      map[string]*models.Session
	jobs          map[string]*models.Job
	applications  map[string]*models.Application
	notifications map[string]*models.Notification
	payments      map[string]*models.Payment
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[string]*models.User),
		phones:        make(map[string]string),
		sessions:      make(map[string]*models.Session),
		jobs:          make(map[string]*models.Job),
		applications:  make(map[string]*models.Application),
		notifications: make(map[string]*models.Notification),
		payments:      make(map[string]*models.Payment),
	}
}

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.phones[user.Phone]; exists {
		return ErrDuplicate
	}
	if _, exists := s.users[user.ID]; exists {
		return ErrDuplicate
	}

	u := *user
	s.users[u.ID] = &u
	s.phones[u.Phone] = u.ID
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

func (s *MemoryStore) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	s.mu.RLock()
	id, ok := s.phones[phone]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s.GetUser(ctx, id)
}

func (s *MemoryStore) CountUsersByRole(ctx context.Context) (map[models.Role]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.Role]int)
	for _, u := range s.users {
		counts[u.Role]++
	}
	return counts, nil
}

func (s *MemoryStore) CreateSession(ctx context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.Token]; exists {
		return ErrDuplicate
	}
	sess := *session
	s.sessions[sess.Token] = &sess
	return nil
}

func (s *MemoryStore) GetSession(ctx context.Context, token string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[token]
	if !ok {
		return nil, ErrNotFound
	}
	out := *sess
	return &out, nil
}

func (s *MemoryStore) DeleteSession(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[token]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, token)
	return nil
}

func (s *MemoryStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) CreateJob(ctx context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return ErrDuplicate
	}
	s.jobs[job.ID] = cloneJob(job)
	return nil
}

func (s *MemoryStore) GetJob(ctx context.Context, id string) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneJob(job), nil
}

func (s *MemoryStore) UpdateJob(ctx context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.jobs[job.ID]
	if !ok {
		return ErrNotFound
	}
	updated := cloneJob(job)
	// the applicant count is owned by CreateApplication
	updated.Applicants = existing.Applicants
	s.jobs[job.ID] = updated
	return nil
}

func (s *MemoryStore) DeleteJob(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return ErrNotFound
	}
	delete(s.jobs, id)
	for appID, app := range s.applications {
		if app.JobID == id {
			delete(s.applications, appID)
		}
	}
	return nil
}

func (s *MemoryStore) ListJobs(ctx context.Context) ([]models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]models.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, *cloneJob(job))
	}
	sort.SliceStable(jobs, func(i, j int) bool {
		if jobs[i].PostedAt.Equal(jobs[j].PostedAt) {
			return jobs[i].ID < jobs[j].ID
		}
		return jobs[i].PostedAt.After(jobs[j].PostedAt)
	})
	return jobs, nil
}

func (s *MemoryStore) CreateApplication(ctx context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[app.JobID]
	if !ok {
		return ErrNotFound
	}
	for _, existing := range s.applications {
		if existing.JobID == app.JobID && existing.WorkerID == app.WorkerID {
			return ErrDuplicate
		}
	}

	a := *app
	a.Job = nil
	s.applications[a.ID] = &a
	job.Applicants++
	return nil
}

func (s *MemoryStore) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.applications[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.withJob(app), nil
}

func (s *MemoryStore) UpdateApplicationStatus(ctx context.Context, id string, from, to models.ApplicationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[id]
	if !ok {
		return ErrNotFound
	}
	if app.Status != from {
		return ErrStale
	}
	app.Status = to
	return nil
}

func (s *MemoryStore) ListApplicationsByWorker(ctx context.Context, workerID string) ([]models.Application, error) {
	return s.listApplications(func(a *models.Application) bool { return a.WorkerID == workerID }), nil
}

func (s *MemoryStore) ListApplicationsByJob(ctx context.Context, jobID string) ([]models.Application, error) {
	return s.listApplications(func(a *models.Application) bool { return a.JobID == jobID }), nil
}

func (s *MemoryStore) FindApplication(ctx context.Context, jobID, workerID string) (*models.Application, error) {
	apps := s.listApplications(func(a *models.Application) bool {
		return a.JobID == jobID && a.WorkerID == workerID
	})
	if len(apps) == 0 {
		return nil, ErrNotFound
	}
	return &apps[0], nil
}

func (s *MemoryStore) CountApplications(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.applications), nil
}

func (s *MemoryStore) listApplications(match func(*models.Application) bool) []models.Application {
	s.mu.RLock()
	defer s.mu.RUnlock()

	apps := make([]models.Application, 0)
	for _, app := range s.applications {
		if match(app) {
			apps = append(apps, *s.withJob(app))
		}
	}
	sort.SliceStable(apps, func(i, j int) bool {
		if apps[i].AppliedAt.Equal(apps[j].AppliedAt) {
			return apps[i].ID < apps[j].ID
		}
		return apps[i].AppliedAt.After(apps[j].AppliedAt)
	})
	return apps
}

// withJob copies app and embeds a snapshot of its job. Caller holds the lock.
func (s *MemoryStore) withJob(app *models.Application) *models.Application {
	out := *app
	if job, ok := s.jobs[app.JobID]; ok {
		out.Job = cloneJob(job)
	}
	return &out
}

func (s *MemoryStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.notifications[n.ID]; exists {
		return ErrDuplicate
	}
	out := *n
	s.notifications[n.ID] = &out
	return nil
}

func (s *MemoryStore) ListNotifications(ctx context.Context, userID string) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]models.Notification, 0)
	for _, n := range s.notifications {
		if n.UserID == userID {
			list = append(list, *n)
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (s *MemoryStore) MarkNotificationRead(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return ErrNotFound
	}
	n.Read = true
	return nil
}

func (s *MemoryStore) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := 0
	for _, n := range s.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			updated++
		}
	}
	return updated, nil
}

func (s *MemoryStore) CreatePayment(ctx context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.payments[p.ID]; exists {
		return ErrDuplicate
	}
	out := *p
	s.payments[p.ID] = &out
	return nil
}

func (s *MemoryStore) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *p
	return &out, nil
}

func (s *MemoryStore) UpdatePayment(ctx context.Context, p *models.Payment, from models.PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.payments[p.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Status != from {
		return ErrStale
	}
	out := *p
	s.payments[p.ID] = &out
	return nil
}

func (s *MemoryStore) ListPayments(ctx context.Context, q PaymentQuery) ([]models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]models.Payment, 0)
	for _, p := range s.payments {
		if q.Matches(p) {
			list = append(list, *p)
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }
func (s *MemoryStore) Close() error                   { return nil }

func cloneJob(job *models.Job) *models.Job {
	out := *job
	out.Requirements = cloneStrings(job.Requirements)
	out.Benefits = cloneStrings(job.Benefits)
	return &out
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
