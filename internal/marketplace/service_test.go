package marketplace

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"villagework/internal/background"
	"villagework/internal/events"
	"villagework/internal/logging"
	"villagework/internal/logging/adapters"
	"villagework/internal/store"
	"villagework/pkg/models"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestService(t *testing.T) (*Service, *store.MemoryStore, *clock) {
	t.Helper()
	st := store.NewMemoryStore()
	clk := &clock{t: time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)}
	logger := logging.NewMultiLogger()
	svc := NewService(st, background.Inline{}, events.NewLogPublisher(logger), logger, Options{
		SessionTTL: time.Hour,
		BcryptCost: bcrypt.MinCost,
		Now:        clk.now,
	})
	return svc, st, clk
}

func register(t *testing.T, svc *Service, name, phone string, role models.Role) (*models.User, string) {
	t.Helper()
	user, token, err := svc.Register(context.Background(), models.RegisterRequest{
		Name:     name,
		Phone:    phone,
		Password: "secret123",
		Role:     role,
	})
	if err != nil {
		t.Fatalf("Register %s: %v", name, err)
	}
	return user, token
}

func postJob(t *testing.T, svc *Service, owner *models.User, title string) *models.Job {
	t.Helper()
	job, err := svc.CreateJob(context.Background(), owner, models.JobRequest{
		Title:           title,
		Location:        "Nashik",
		Salary:          "₹500/day",
		Category:        "daily",
		ExperienceLevel: "beginner",
		Requirements:    []string{" Own tools ", ""},
	})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	return job
}

func assertType(t *testing.T, err error, want ErrorType) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := TypeOf(err); got != want {
		t.Fatalf("error type = %s, want %s (%v)", got, want, err)
	}
}

func TestRegisterLoginAuthenticate(t *testing.T) {
	svc, _, clk := newTestService(t)
	ctx := context.Background()

	user, token := register(t, svc, "Sita", "9876543210", models.RoleWorker)
	if user.PasswordHash == "" || user.PasswordHash == "secret123" {
		t.Fatal("password was not hashed")
	}

	_, _, err := svc.Register(ctx, models.RegisterRequest{Name: "Dup", Phone: "9876543210", Password: "secret123", Role: models.RoleOwner})
	assertType(t, err, ErrTypeConflict)

	_, _, err = svc.Register(ctx, models.RegisterRequest{Name: "Root", Phone: "9000000000", Password: "secret123", Role: models.RoleAdmin})
	assertType(t, err, ErrTypeForbidden)

	_, _, err = svc.Register(ctx, models.RegisterRequest{Name: "Long", Phone: "9000000001", Password: strings.Repeat("é", 40), Role: models.RoleWorker})
	assertType(t, err, ErrTypeInvalidInput)

	_, _, err = svc.Login(ctx, "9876543210", "wrong")
	assertType(t, err, ErrTypeUnauthorized)

	_, loginToken, err := svc.Login(ctx, "98765 43210", "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if loginToken == token {
		t.Error("login reused the registration token")
	}

	me, err := svc.Authenticate(ctx, loginToken)
	if err != nil || me.ID != user.ID {
		t.Fatalf("Authenticate = %v, %v", me, err)
	}

	clk.t = clk.t.Add(2 * time.Hour)
	_, err = svc.Authenticate(ctx, loginToken)
	assertType(t, err, ErrTypeUnauthorized)

	_, err = svc.Authenticate(ctx, "")
	assertType(t, err, ErrTypeUnauthorized)
}

type stuckSessionStore struct {
	*store.MemoryStore
}

func (stuckSessionStore) DeleteSession(ctx context.Context, token string) error {
	return errors.New("connection reset")
}

func TestExpiredSessionCleanupFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewMultiLogger()
	logger.AddAdapter(adapters.NewStdoutAdapter("buf", adapters.StdoutConfig{Format: "text", Writer: &buf}))
	clk := &clock{t: time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)}
	svc := NewService(stuckSessionStore{store.NewMemoryStore()}, background.Inline{}, events.NewLogPublisher(logger), logger, Options{
		SessionTTL: time.Hour,
		BcryptCost: bcrypt.MinCost,
		Now:        clk.now,
	})

	_, token := register(t, svc, "Sita", "9876543210", models.RoleWorker)
	clk.t = clk.t.Add(2 * time.Hour)

	_, err := svc.Authenticate(context.Background(), token)
	assertType(t, err, ErrTypeUnauthorized)
	if out := buf.String(); !strings.Contains(out, "expired session not removed") || !strings.Contains(out, "connection reset") {
		t.Errorf("log output = %q", out)
	}
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := svc.EnsureAdmin(ctx, "Admin", "9000000000", "adminpass"); err != nil {
			t.Fatalf("EnsureAdmin #%d: %v", i, err)
		}
	}
	counts, _ := st.CountUsersByRole(ctx)
	if counts[models.RoleAdmin] != 1 {
		t.Errorf("admins = %d, want 1", counts[models.RoleAdmin])
	}
}

func TestJobLifecycle(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	owner, _ := register(t, svc, "Ramesh", "9111111111", models.RoleOwner)
	other, _ := register(t, svc, "Suresh", "9222222222", models.RoleOwner)
	worker, _ := register(t, svc, "Sita", "9333333333", models.RoleWorker)

	job := postJob(t, svc, owner, "Farm Helper")
	if job.ExperienceLevel != models.ExperienceHelper {
		t.Errorf("ExperienceLevel = %s, want helper", job.ExperienceLevel)
	}
	if len(job.Requirements) != 1 || job.Requirements[0] != "Own tools" {
		t.Errorf("Requirements = %q", job.Requirements)
	}
	if job.PostedBy != "Ramesh" || job.Status != models.JobStatusActive {
		t.Errorf("job = %+v", job)
	}

	_, err := svc.CreateJob(ctx, worker, models.JobRequest{Title: "x", Location: "y", Salary: "1", Category: "daily"})
	assertType(t, err, ErrTypeForbidden)

	_, err = svc.SetJobStatus(ctx, other, job.ID, models.JobStatusPaused)
	assertType(t, err, ErrTypeForbidden)

	paused, err := svc.SetJobStatus(ctx, owner, job.ID, models.JobStatusPaused)
	if err != nil || paused.Status != models.JobStatusPaused {
		t.Fatalf("SetJobStatus = %+v, %v", paused, err)
	}

	_, err = svc.Apply(ctx, worker, job.ID, "")
	assertType(t, err, ErrTypeInvalidInput)

	updated, err := svc.UpdateJob(ctx, owner, job.ID, models.JobRequest{
		Title: "Harvest Helper", Location: "Pune", Salary: "₹600/day", Category: "daily", ExperienceLevel: "experienced",
	})
	if err != nil {
		t.Fatalf("UpdateJob: %v", err)
	}
	if updated.Title != "Harvest Helper" || updated.ExperienceLevel != models.ExperienceWorker || updated.Status != models.JobStatusPaused {
		t.Errorf("updated = %+v", updated)
	}

	_, err = svc.UpdateJob(ctx, owner, job.ID, models.JobRequest{Title: "x", Location: "y", ExperienceLevel: "wizard"})
	assertType(t, err, ErrTypeInvalidInput)

	if err := svc.DeleteJob(ctx, owner, job.ID); err != nil {
		t.Fatalf("DeleteJob: %v", err)
	}
	_, err = svc.GetJob(ctx, job.ID)
	assertType(t, err, ErrTypeNotFound)
}

func TestApplyAndReview(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	owner, _ := register(t, svc, "Ramesh", "9111111111", models.RoleOwner)
	worker, _ := register(t, svc, "Sita", "9333333333", models.RoleWorker)
	job := postJob(t, svc, owner, "Farm Helper")

	app, err := svc.Apply(ctx, worker, job.ID, "  I have done this before ")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if app.Status != models.ApplicationPending || app.Job == nil || app.Job.Applicants != 1 || app.Message != "I have done this before" {
		t.Errorf("application = %+v", app)
	}

	_, err = svc.Apply(ctx, worker, job.ID, "again")
	assertType(t, err, ErrTypeConflict)

	_, err = svc.Apply(ctx, owner, job.ID, "")
	assertType(t, err, ErrTypeForbidden)

	_, err = svc.Apply(ctx, worker, "missing", "")
	assertType(t, err, ErrTypeNotFound)

	inbox, unread, err := svc.Notifications(ctx, owner)
	if err != nil || len(inbox) != 1 || unread != 1 || inbox[0].Type != models.NotificationApplication {
		t.Fatalf("owner inbox = %+v (unread %d), %v", inbox, unread, err)
	}

	mine, err := svc.MyApplications(ctx, worker)
	if err != nil || len(mine) != 1 || mine[0].TargetJobID() != job.ID {
		t.Fatalf("MyApplications = %+v, %v", mine, err)
	}

	_, err = svc.UpdateApplicationStatus(ctx, owner, app.ID, models.ApplicationPending)
	assertType(t, err, ErrTypeInvalidInput)

	decided, err := svc.UpdateApplicationStatus(ctx, owner, app.ID, models.ApplicationShortlisted)
	if err != nil || decided.Status != models.ApplicationShortlisted {
		t.Fatalf("UpdateApplicationStatus = %+v, %v", decided, err)
	}

	_, err = svc.UpdateApplicationStatus(ctx, owner, app.ID, models.ApplicationRejected)
	assertType(t, err, ErrTypeConflict)

	count, err := svc.UnreadCount(ctx, worker)
	if err != nil || count != 1 {
		t.Errorf("worker UnreadCount = %d, %v", count, err)
	}

	apps, err := svc.JobApplications(ctx, owner, job.ID)
	if err != nil || len(apps) != 1 || apps[0].ApplicantName != "Sita" {
		t.Errorf("JobApplications = %+v, %v", apps, err)
	}
}

func TestNotificationsMarkRead(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	owner, _ := register(t, svc, "Ramesh", "9111111111", models.RoleOwner)
	w1, _ := register(t, svc, "Sita", "9333333333", models.RoleWorker)
	w2, _ := register(t, svc, "Gita", "9444444444", models.RoleWorker)
	job := postJob(t, svc, owner, "Farm Helper")

	for _, w := range []*models.User{w1, w2} {
		if _, err := svc.Apply(ctx, w, job.ID, ""); err != nil {
			t.Fatal(err)
		}
	}

	inbox, _, _ := svc.Notifications(ctx, owner)
	if len(inbox) != 2 {
		t.Fatalf("inbox has %d notifications, want 2", len(inbox))
	}

	for i := 0; i < 2; i++ {
		if err := svc.MarkNotificationRead(ctx, owner, inbox[0].ID); err != nil {
			t.Fatalf("MarkNotificationRead #%d: %v", i, err)
		}
	}
	err := svc.MarkNotificationRead(ctx, w1, inbox[1].ID)
	assertType(t, err, ErrTypeNotFound)

	n, err := svc.MarkAllNotificationsRead(ctx, owner)
	if err != nil || n != 1 {
		t.Fatalf("MarkAllNotificationsRead = %d, %v", n, err)
	}
	if count, _ := svc.UnreadCount(ctx, owner); count != 0 {
		t.Errorf("UnreadCount = %d, want 0", count)
	}
}

func TestPaymentsAndEarnings(t *testing.T) {
	svc, _, clk := newTestService(t)
	ctx := context.Background()
	owner, _ := register(t, svc, "Ramesh", "9111111111", models.RoleOwner)
	worker, _ := register(t, svc, "Sita", "9333333333", models.RoleWorker)
	stranger, _ := register(t, svc, "Gita", "9444444444", models.RoleWorker)
	job := postJob(t, svc, owner, "Farm Helper")
	if _, err := svc.Apply(ctx, worker, job.ID, ""); err != nil {
		t.Fatal(err)
	}

	_, err := svc.CreatePayment(ctx, owner, models.PaymentRequest{JobID: job.ID, WorkerID: stranger.ID, Amount: 500, Method: "cash"})
	assertType(t, err, ErrTypeInvalidInput)

	_, err = svc.CreatePayment(ctx, owner, models.PaymentRequest{JobID: job.ID, WorkerID: worker.ID, Amount: 0, Method: "cash"})
	assertType(t, err, ErrTypeInvalidInput)

	first, err := svc.CreatePayment(ctx, owner, models.PaymentRequest{JobID: job.ID, WorkerID: worker.ID, Amount: 500, Method: "upi"})
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	second, err := svc.CreatePayment(ctx, owner, models.PaymentRequest{JobID: job.ID, WorkerID: worker.ID, Amount: 300, Method: "cash"})
	if err != nil {
		t.Fatal(err)
	}

	paid, err := svc.UpdatePaymentStatus(ctx, owner, first.ID, models.PaymentCompleted)
	if err != nil || paid.PaidAt == nil {
		t.Fatalf("UpdatePaymentStatus = %+v, %v", paid, err)
	}
	_, err = svc.UpdatePaymentStatus(ctx, owner, first.ID, models.PaymentFailed)
	assertType(t, err, ErrTypeConflict)

	_, err = svc.UpdatePaymentStatus(ctx, worker, second.ID, models.PaymentCompleted)
	assertType(t, err, ErrTypeForbidden)

	history, err := svc.PaymentHistory(ctx, worker, "pending")
	if err != nil || len(history) != 1 || history[0].ID != second.ID {
		t.Fatalf("pending history = %+v, %v", history, err)
	}
	_, err = svc.PaymentHistory(ctx, worker, "lost")
	assertType(t, err, ErrTypeInvalidInput)

	summary, err := svc.EarningsSummary(ctx, worker)
	if err != nil {
		t.Fatal(err)
	}
	want := models.EarningsSummary{TotalEarnings: 500, PendingAmount: 300, ThisMonth: 500, CompletedPayments: 1, PendingPayments: 1}
	if summary != want {
		t.Errorf("summary = %+v, want %+v", summary, want)
	}

	clk.t = clk.t.AddDate(0, 1, 0)
	summary, _ = svc.EarningsSummary(ctx, worker)
	if summary.ThisMonth != 0 || summary.TotalEarnings != 500 {
		t.Errorf("next month summary = %+v", summary)
	}

	inbox, _, _ := svc.Notifications(ctx, worker)
	payments := 0
	for _, n := range inbox {
		if n.Type == models.NotificationPayment {
			payments++
		}
	}
	if payments != 3 {
		t.Errorf("payment notifications = %d, want 3", payments)
	}
}

// lockstepStore holds every status read until both concurrent callers have
// loaded the record, so both see it pending before either writes
type lockstepStore struct {
	*store.MemoryStore
	reads *sync.WaitGroup
}

func (s lockstepStore) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	app, err := s.MemoryStore.GetApplication(ctx, id)
	s.wait()
	return app, err
}

func (s lockstepStore) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	p, err := s.MemoryStore.GetPayment(ctx, id)
	s.wait()
	return p, err
}

func (s lockstepStore) wait() {
	if s.reads != nil {
		s.reads.Done()
		s.reads.Wait()
	}
}

// race runs a and b at the same time and returns their errors in order
func race(a, b func() error) (error, error) {
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, fn := range []func() error{a, b} {
		wg.Add(1)
		go func(i int, fn func() error) {
			defer wg.Done()
			errs[i] = fn()
		}(i, fn)
	}
	wg.Wait()
	return errs[0], errs[1]
}

// oneWinner checks that exactly one of two racing decisions was applied and
// returns the index of the winner
func oneWinner(t *testing.T, errA, errB error) int {
	t.Helper()
	switch {
	case errA == nil && errB != nil:
		assertType(t, errB, ErrTypeConflict)
		return 0
	case errB == nil && errA != nil:
		assertType(t, errA, ErrTypeConflict)
		return 1
	default:
		t.Fatalf("want exactly one success, got %v and %v", errA, errB)
		return -1
	}
}

func TestConcurrentDecisionsKeepTheFirstWrite(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	logger := logging.NewMultiLogger()
	racing := lockstepStore{MemoryStore: mem}
	svc := NewService(racing, background.Inline{}, events.NewLogPublisher(logger), logger, Options{BcryptCost: bcrypt.MinCost})

	owner, _ := register(t, svc, "Ramesh", "9111111111", models.RoleOwner)
	worker, _ := register(t, svc, "Sita", "9333333333", models.RoleWorker)
	job := postJob(t, svc, owner, "Farm Helper")
	app, err := svc.Apply(ctx, worker, job.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	payment, err := svc.CreatePayment(ctx, owner, models.PaymentRequest{JobID: job.ID, WorkerID: worker.ID, Amount: 500, Method: "cash"})
	if err != nil {
		t.Fatal(err)
	}

	t.Run("application review", func(t *testing.T) {
		var reads sync.WaitGroup
		reads.Add(2)
		racing.reads = &reads
		svc.store = racing

		decisions := []models.ApplicationStatus{models.ApplicationShortlisted, models.ApplicationRejected}
		errA, errB := race(
			func() error { _, err := svc.UpdateApplicationStatus(ctx, owner, app.ID, decisions[0]); return err },
			func() error { _, err := svc.UpdateApplicationStatus(ctx, owner, app.ID, decisions[1]); return err },
		)
		winner := oneWinner(t, errA, errB)

		stored, err := mem.GetApplication(ctx, app.ID)
		if err != nil || stored.Status != decisions[winner] {
			t.Errorf("stored status = %v, %v; want %s", stored, err, decisions[winner])
		}
	})

	t.Run("payment settlement", func(t *testing.T) {
		var reads sync.WaitGroup
		reads.Add(2)
		racing.reads = &reads
		svc.store = racing

		outcomes := []models.PaymentStatus{models.PaymentCompleted, models.PaymentFailed}
		errA, errB := race(
			func() error { _, err := svc.UpdatePaymentStatus(ctx, owner, payment.ID, outcomes[0]); return err },
			func() error { _, err := svc.UpdatePaymentStatus(ctx, owner, payment.ID, outcomes[1]); return err },
		)
		winner := oneWinner(t, errA, errB)

		stored, err := mem.GetPayment(ctx, payment.ID)
		if err != nil || stored.Status != outcomes[winner] {
			t.Errorf("stored status = %v, %v; want %s", stored, err, outcomes[winner])
		}
	})
}

func TestAdminOverview(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	owner, _ := register(t, svc, "Ramesh", "9111111111", models.RoleOwner)
	worker, _ := register(t, svc, "Sita", "9333333333", models.RoleWorker)
	if err := svc.EnsureAdmin(ctx, "Admin", "9000000000", "adminpass"); err != nil {
		t.Fatal(err)
	}
	admin, _ := st.GetUserByPhone(ctx, "9000000000")

	job := postJob(t, svc, owner, "Farm Helper")
	postJob(t, svc, owner, "Welder")
	if _, err := svc.SetJobStatus(ctx, admin, job.ID, models.JobStatusPaused); err != nil {
		t.Fatalf("admin moderation: %v", err)
	}

	_, err := svc.AdminOverview(ctx, worker)
	assertType(t, err, ErrTypeForbidden)

	overview, err := svc.AdminOverview(ctx, admin)
	if err != nil {
		t.Fatal(err)
	}
	want := models.PlatformOverview{Workers: 1, Owners: 1, Admins: 1, Jobs: 2, ActiveJobs: 1}
	if overview != want {
		t.Errorf("overview = %+v, want %+v", overview, want)
	}
}

type failingDispatcher struct{}

func (failingDispatcher) Submit(ctx context.Context, name string, metadata map[string]interface{}, fn background.TaskFunc) (string, error) {
	return "", background.ErrQueueFull
}

func TestSideEffectFailureDoesNotFailAction(t *testing.T) {
	st := store.NewMemoryStore()
	logger := logging.NewMultiLogger()
	svc := NewService(st, failingDispatcher{}, events.NewLogPublisher(logger), logger, Options{BcryptCost: bcrypt.MinCost})
	ctx := context.Background()

	owner, _ := register(t, svc, "Ramesh", "9111111111", models.RoleOwner)
	worker, _ := register(t, svc, "Sita", "9333333333", models.RoleWorker)
	job := postJob(t, svc, owner, "Farm Helper")

	if _, err := svc.Apply(ctx, worker, job.ID, ""); err != nil {
		t.Fatalf("Apply failed because of a side effect: %v", err)
	}
	inbox, _, _ := svc.Notifications(ctx, owner)
	if len(inbox) != 0 {
		t.Errorf("inbox = %+v, want empty", inbox)
	}
}

func TestDomainError(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal("failed to save", cause)

	if !errors.Is(err, cause) {
		t.Error("DomainError does not unwrap to its cause")
	}
	if len(err.StackTrace()) == 0 {
		t.Error("missing stack trace")
	}
	if MessageOf(err) != "failed to save" {
		t.Errorf("MessageOf = %q", MessageOf(err))
	}
	if TypeOf(errors.New("plain")) != ErrTypeInternal {
		t.Error("plain errors should map to INTERNAL")
	}
}
