package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"villagework/internal/client"
	"villagework/internal/filter"
	"villagework/internal/logging"
	"villagework/internal/settings"
	"villagework/pkg/models"
)

// options carries every command's flag values
type options struct {
	filter, query, id, message, status string
	name, phone, password, role        string
	skill, language                    string
	title, description, location       string
	salary, category, experience       string
	training                           bool
	jobID, workerID, method            string
	amount                             int64
	key, value                         string
}

type cli struct {
	out      io.Writer
	output   string
	settings settings.Repository
	client   *client.Client
	feed     *client.Feed
	logger   logging.Logger
}

type command struct {
	usage string
	run   func(ctx context.Context, c *cli, o *options) error
}

var commands = map[string]command{
	"jobs":          {"List jobs (-filter, -q)", runJobs},
	"job":           {"Show one job (-id)", runJob},
	"apply":         {"Apply for a job (-id, -message)", runApply},
	"applications":  {"List your applications (-filter, -q)", runApplications},
	"notifications": {"List notifications", runNotifications},
	"read":          {"Mark a notification read (-id)", runRead},
	"read-all":      {"Mark every notification read", runReadAll},
	"payments":      {"List payments (-status)", runPayments},
	"earnings":      {"Show the earnings summary", runEarnings},
	"post-job":      {"Post a job (-title, -location, -salary, -category, -experience, -training, -desc)", runPostJob},
	"job-status":    {"Set a job Active or Paused (-id, -status)", runJobStatus},
	"delete-job":    {"Delete a job (-id)", runDeleteJob},
	"received":      {"List applications received for a job (-id)", runReceived},
	"review":        {"Shortlist or reject an application (-id, -status)", runReview},
	"pay":           {"Record a payment (-job, -worker, -amount, -method)", runPay},
	"settle":        {"Complete or fail a payment (-id, -status)", runSettle},
	"overview":      {"Show the platform overview (admin)", runOverview},
	"register":      {"Create an account (-name, -phone, -password, -role, -skill, -lang)", runRegister},
	"login":         {"Sign in (-phone, -password)", runLogin},
	"logout":        {"Sign out", runLogout},
	"whoami":        {"Show the signed-in user", runWhoami},
	"settings":      {"Show local settings", runSettings},
	"set":           {"Change a local setting (-key, -value)", runSet},
	"keys":          {"List filter keys", runKeys},
}

func newCLI(out io.Writer, output string, repo settings.Repository, baseURL string, timeout time.Duration, logger logging.Logger) *cli {
	c := newClient(repo, baseURL, timeout, logger)
	return &cli{
		out:      out,
		output:   output,
		settings: repo,
		client:   c,
		feed:     client.NewFeed(c),
		logger:   logger,
	}
}

func (c *cli) run(ctx context.Context, name string, o *options) error {
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q (see -help)", name)
	}
	if c.output != "console" && c.output != "json" {
		return fmt.Errorf("unknown output format %q", c.output)
	}
	return cmd.run(ctx, c, o)
}

// describe turns an error into the alert line shown to the user
func describe(err error) string {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrNotAuthenticated):
		return "you are not signed in; run -cmd login first"
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized:
		return "your session has expired; run -cmd login again"
	case errors.As(err, &apiErr):
		return apiErr.Message
	default:
		return err.Error()
	}
}

func require(values map[string]string) error {
	var missing []string
	for flag, v := range values {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, "-"+flag)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing required flag(s): %s", strings.Join(missing, ", "))
	}
	return nil
}

func runJobs(ctx context.Context, c *cli, o *options) error {
	if !filter.IsJobKey(o.filter) {
		c.logger.Warn("Unknown job filter, showing all jobs", map[string]interface{}{
			"filter": o.filter,
			"known":  strings.Join(filter.JobKeys(), ", "),
		})
	}
	jobs := filter.Jobs(c.feed.Jobs(ctx), o.filter, o.query)
	if c.output == "json" {
		return c.json(jobs)
	}
	c.jobTable(jobs)
	return nil
}

func runJob(ctx context.Context, c *cli, o *options) error {
	if err := require(map[string]string{"id": o.id}); err != nil {
		return err
	}
	job, err := c.client.GetJob(ctx, o.id)
	if err != nil {
		return err
	}
	if c.output == "json" {
		return c.json(job)
	}
	c.jobDetail(job)
	return nil
}

func runApply(ctx context.Context, c *cli, o *options) error {
	if err := require(map[string]string{"id": o.id}); err != nil {
		return err
	}
	apps, err := c.client.MyApplications(ctx)
	if err != nil {
		return err
	}
	if client.HasApplied(apps, o.id) {
		return errors.New("you have already applied for this job")
	}
	app, err := c.client.Apply(ctx, o.id, o.message)
	if err != nil {
		return err
	}
	if c.output == "json" {
		return c.json(app)
	}
	fmt.Fprintf(c.out, "Application sent (%s)\n", app.ID)
	return nil
}

func runApplications(ctx context.Context, c *cli, o *options) error {
	apps := filter.Applications(c.feed.MyApplications(ctx), o.filter, o.query)
	if c.output == "json" {
		return c.json(apps)
	}
	c.applicationTable(apps)
	return nil
}

func runNotifications(ctx context.Context, c *cli, o *options) error {
	items, unread := c.feed.Notifications(ctx)
	if c.output == "json" {
		return c.json(map[string]interface{}{"notifications": items, "unreadCount": unread})
	}
	c.notificationTable(items, unread)
	return nil
}

func runRead(ctx context.Context, c *cli, o *options) error {
	if err := require(map[string]string{"id": o.id}); err != nil {
		return err
	}
	if err := c.client.MarkNotificationRead(ctx, o.id); err != nil {
		return err
	}
	return c.done("Notification marked read")
}

func runReadAll(ctx context.Context, c *cli, o *options) error {
	n, err := c.client.MarkAllNotificationsRead(ctx)
	if err != nil {
		return err
	}
	if c.output == "json" {
		return c.json(map[string]int{"updated": n})
	}
	fmt.Fprintf(c.out, "%d notification(s) marked read\n", n)
	return nil
}

func runPayments(ctx context.Context, c *cli, o *options) error {
	payments := c.feed.Payments(ctx, o.status)
	if c.output == "json" {
		return c.json(payments)
	}
	c.paymentTable(payments)
	return nil
}

func runEarnings(ctx context.Context, c *cli, o *options) error {
	summary := c.feed.Earnings(ctx)
	if c.output == "json" {
		return c.json(summary)
	}
	c.earnings(summary)
	return nil
}

func runPostJob(ctx context.Context, c *cli, o *options) error {
	if err := require(map[string]string{"title": o.title, "location": o.location, "salary": o.salary}); err != nil {
		return err
	}
	job, err := c.client.CreateJob(ctx, models.JobRequest{
		Title:            o.title,
		Description:      o.description,
		Location:         o.location,
		Salary:           o.salary,
		Category:         o.category,
		ExperienceLevel:  o.experience,
		TrainingProvided: o.training,
	})
	if err != nil {
		return err
	}
	if c.output == "json" {
		return c.json(job)
	}
	fmt.Fprintf(c.out, "Job posted (%s)\n", job.ID)
	return nil
}

func runJobStatus(ctx context.Context, c *cli, o *options) error {
	if err := require(map[string]string{"id": o.id, "status": o.status}); err != nil {
		return err
	}
	job, err := c.client.SetJobStatus(ctx, o.id, models.JobStatus(o.status))
	if err != nil {
		return err
	}
	if c.output == "json" {
		return c.json(job)
	}
	fmt.Fprintf(c.out, "Job %s is now %s\n", job.ID, job.Status)
	return nil
}

func runDeleteJob(ctx context.Context, c *cli, o *options) error {
	if err := require(map[string]string{"id": o.id}); err != nil {
		return err
	}
	if err := c.client.DeleteJob(ctx, o.id); err != nil {
		return err
	}
	return c.done("Job deleted")
}

func runReceived(ctx context.Context, c *cli, o *options) error {
	if err := require(map[string]string{"id": o.id}); err != nil {
		return err
	}
	apps, err := c.client.JobApplications(ctx, o.id)
	if err != nil {
		return err
	}
	apps = filter.Applications(apps, o.filter, o.query)
	if c.output == "json" {
		return c.json(apps)
	}
	c.applicationTable(apps)
	return nil
}

func runReview(ctx context.Context, c *cli, o *options) error {
	if err := require(map[string]string{"id": o.id, "status": o.status}); err != nil {
		return err
	}
	app, err := c.client.UpdateApplicationStatus(ctx, o.id, models.ApplicationStatus(o.status))
	if err != nil {
		return err
	}
	if c.output == "json" {
		return c.json(app)
	}
	fmt.Fprintf(c.out, "Application %s is now %s\n", app.ID, app.Status)
	return nil
}

func runPay(ctx context.Context, c *cli, o *options) error {
	if err := require(map[string]string{"job": o.jobID, "worker": o.workerID}); err != nil {
		return err
	}
	if o.amount <= 0 {
		return errors.New("-amount must be greater than zero")
	}
	p, err := c.client.CreatePayment(ctx, models.PaymentRequest{
		JobID:    o.jobID,
		WorkerID: o.workerID,
		Amount:   o.amount,
		Method:   o.method,
	})
	if err != nil {
		return err
	}
	if c.output == "json" {
		return c.json(p)
	}
	fmt.Fprintf(c.out, "Payment of %s recorded (%s)\n", rupees(p.Amount), p.ID)
	return nil
}

func runSettle(ctx context.Context, c *cli, o *options) error {
	if err := require(map[string]string{"id": o.id, "status": o.status}); err != nil {
		return err
	}
	p, err := c.client.UpdatePaymentStatus(ctx, o.id, models.PaymentStatus(o.status))
	if err != nil {
		return err
	}
	if c.output == "json" {
		return c.json(p)
	}
	fmt.Fprintf(c.out, "Payment %s is now %s\n", p.ID, p.Status)
	return nil
}

func runOverview(ctx context.Context, c *cli, o *options) error {
	ov, err := c.client.AdminOverview(ctx)
	if err != nil {
		return err
	}
	if c.output == "json" {
		return c.json(ov)
	}
	c.overview(ov)
	return nil
}

func runRegister(ctx context.Context, c *cli, o *options) error {
	if err := require(map[string]string{"name": o.name, "phone": o.phone, "password": o.password}); err != nil {
		return err
	}
	resp, err := c.client.Register(ctx, models.RegisterRequest{
		Name:       o.name,
		Phone:      o.phone,
		Password:   o.password,
		Role:       models.Role(o.role),
		SkillLevel: o.skill,
		Language:   o.language,
	})
	if err != nil {
		return err
	}
	if err := c.saveSession(ctx, resp); err != nil {
		return err
	}
	if err := c.settings.Set(ctx, settings.KeyOnboardingComplete, "true"); err != nil {
		return err
	}
	return c.signedIn(resp)
}

func runLogin(ctx context.Context, c *cli, o *options) error {
	if err := require(map[string]string{"phone": o.phone, "password": o.password}); err != nil {
		return err
	}
	resp, err := c.client.Login(ctx, o.phone, o.password)
	if err != nil {
		return err
	}
	if err := c.saveSession(ctx, resp); err != nil {
		return err
	}
	return c.signedIn(resp)
}

func runLogout(ctx context.Context, c *cli, o *options) error {
	// the local session is cleared even when the server no longer knows the token
	err := c.client.Logout(ctx)
	for _, key := range []string{settings.KeyAuthToken, settings.KeyUserID} {
		if derr := c.settings.Delete(ctx, key); derr != nil && !errors.Is(derr, settings.ErrNotFound) {
			return derr
		}
	}
	if err != nil && !errors.Is(err, client.ErrNotAuthenticated) && !client.IsStatus(err, http.StatusUnauthorized) {
		return err
	}
	return c.done("Signed out")
}

func runWhoami(ctx context.Context, c *cli, o *options) error {
	u, err := c.client.Me(ctx)
	if err != nil {
		return err
	}
	if c.output == "json" {
		return c.json(u)
	}
	c.user(u)
	return nil
}

func runSettings(ctx context.Context, c *cli, o *options) error {
	all, err := c.settings.All(ctx)
	if err != nil {
		return err
	}
	if tok, ok := all[settings.KeyAuthToken]; ok && tok != "" {
		all[settings.KeyAuthToken] = mask(tok)
	}
	if c.output == "json" {
		return c.json(all)
	}
	c.settingsTable(all)
	return nil
}

func runSet(ctx context.Context, c *cli, o *options) error {
	if err := require(map[string]string{"key": o.key}); err != nil {
		return err
	}
	known := false
	for _, k := range settings.Keys() {
		if k == o.key {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown setting %q; known keys: %s", o.key, strings.Join(settings.Keys(), ", "))
	}
	if err := c.settings.Set(ctx, o.key, o.value); err != nil {
		return err
	}
	if o.key == settings.KeyLanguage {
		if err := c.settings.Set(ctx, settings.KeyLanguageSelected, "true"); err != nil {
			return err
		}
	}
	return c.done(fmt.Sprintf("%s updated", o.key))
}

func runKeys(ctx context.Context, c *cli, o *options) error {
	keys := map[string][]string{
		"jobs":         filter.JobKeys(),
		"applications": filter.ApplicationKeys(),
	}
	if c.output == "json" {
		return c.json(keys)
	}
	fmt.Fprintf(c.out, "jobs:         %s\n", strings.Join(keys["jobs"], ", "))
	fmt.Fprintf(c.out, "applications: %s\n", strings.Join(keys["applications"], ", "))
	return nil
}

func (c *cli) saveSession(ctx context.Context, resp *models.AuthResponse) error {
	if resp.Token == "" || resp.User == nil {
		return errors.New("server returned no session")
	}
	updates := [][2]string{
		{settings.KeyAuthToken, resp.Token},
		{settings.KeyUserID, resp.User.ID},
		{settings.KeyUserRole, string(resp.User.Role)},
	}
	if resp.User.SkillLevel != "" {
		updates = append(updates, [2]string{settings.KeySkillLevel, resp.User.SkillLevel})
	}
	if resp.User.Language != "" {
		updates = append(updates, [2]string{settings.KeyLanguage, resp.User.Language})
	}
	for _, kv := range updates {
		if err := c.settings.Set(ctx, kv[0], kv[1]); err != nil {
			return fmt.Errorf("failed to save %s: %w", kv[0], err)
		}
	}
	return nil
}

func (c *cli) signedIn(resp *models.AuthResponse) error {
	if c.output == "json" {
		return c.json(resp.User)
	}
	fmt.Fprintf(c.out, "Signed in as %s (%s)\n", resp.User.Name, resp.User.Role)
	return nil
}

func (c *cli) done(msg string) error {
	if c.output == "json" {
		return c.json(map[string]interface{}{"success": true, "message": msg})
	}
	fmt.Fprintln(c.out, msg)
	return nil
}
