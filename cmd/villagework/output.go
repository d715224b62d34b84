package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"villagework/pkg/models"
	"villagework/pkg/utils"
)

func (c *cli) json(data interface{}) error {
	encoder := json.NewEncoder(c.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func (c *cli) table() *tabwriter.Writer {
	return tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
}

func (c *cli) jobTable(jobs []models.Job) {
	if len(jobs) == 0 {
		fmt.Fprintln(c.out, "No jobs found")
		return
	}
	w := c.table()
	now := time.Now()
	fmt.Fprintln(w, "ID\tTITLE\tLOCATION\tSALARY\tLEVEL\tAPPLICANTS\tSTATUS\tPOSTED")
	for _, j := range jobs {
		title := j.Title
		if j.TrainingProvided {
			title += " [training]"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n", j.ID, title, j.Location, j.Salary, j.ExperienceLevel, j.Applicants, j.Status, utils.TimeAgo(j.PostedAt, now))
	}
	w.Flush()
	fmt.Fprintf(c.out, "\n%d job(s)\n", len(jobs))
}

func (c *cli) jobDetail(j *models.Job) {
	w := c.table()
	fmt.Fprintf(w, "Title:\t%s\n", j.Title)
	fmt.Fprintf(w, "Posted by:\t%s\n", j.PostedBy)
	fmt.Fprintf(w, "Location:\t%s\n", j.Location)
	fmt.Fprintf(w, "Salary:\t%s\n", j.Salary)
	fmt.Fprintf(w, "Category:\t%s\n", j.Category)
	fmt.Fprintf(w, "Experience:\t%s\n", j.ExperienceLevel)
	fmt.Fprintf(w, "Training:\t%s\n", yesNo(j.TrainingProvided))
	fmt.Fprintf(w, "Applicants:\t%d\n", j.Applicants)
	fmt.Fprintf(w, "Status:\t%s\n", j.Status)
	fmt.Fprintf(w, "Posted:\t%s (%s)\n", j.PostedAt.Format("02 Jan 2006"), utils.TimeAgo(j.PostedAt, time.Now()))
	w.Flush()
	if j.Description != "" {
		fmt.Fprintf(c.out, "\n%s\n", j.Description)
	}
	list(c.out, "Requirements", j.Requirements)
	list(c.out, "Benefits", j.Benefits)
}

func (c *cli) applicationTable(apps []models.Application) {
	if len(apps) == 0 {
		fmt.Fprintln(c.out, "No applications found")
		return
	}
	w := c.table()
	fmt.Fprintln(w, "ID\tJOB\tAPPLICANT\tSTATUS\tAPPLIED")
	for _, a := range apps {
		job := a.JobID
		if a.Job != nil {
			job = utils.GetStringOrDefault(a.Job.Title, a.JobID)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", a.ID, job, a.ApplicantName, a.Status, a.AppliedAt.Format("02 Jan 2006"))
	}
	w.Flush()
}

func (c *cli) notificationTable(items []models.Notification, unread int) {
	fmt.Fprintf(c.out, "%d unread\n\n", unread)
	if len(items) == 0 {
		fmt.Fprintln(c.out, "No notifications")
		return
	}
	w := c.table()
	now := time.Now()
	fmt.Fprintln(w, "\tID\tTYPE\tTITLE\tMESSAGE\tWHEN")
	for _, n := range items {
		marker := "*"
		if n.Read {
			marker = ""
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", marker, n.ID, n.Type, n.Title, n.Message, utils.TimeAgo(n.CreatedAt, now))
	}
	w.Flush()
}

func (c *cli) paymentTable(payments []models.Payment) {
	if len(payments) == 0 {
		fmt.Fprintln(c.out, "No payments found")
		return
	}
	w := c.table()
	fmt.Fprintln(w, "ID\tJOB\tAMOUNT\tMETHOD\tSTATUS\tCREATED")
	for _, p := range payments {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.JobTitle, rupees(p.Amount), p.Method, p.Status, p.CreatedAt.Format("02 Jan 2006"))
	}
	w.Flush()
}

func (c *cli) earnings(s models.EarningsSummary) {
	w := c.table()
	fmt.Fprintf(w, "Total earnings:\t%s\n", rupees(s.TotalEarnings))
	fmt.Fprintf(w, "This month:\t%s\n", rupees(s.ThisMonth))
	fmt.Fprintf(w, "Pending:\t%s\n", rupees(s.PendingAmount))
	fmt.Fprintf(w, "Completed payments:\t%d\n", s.CompletedPayments)
	fmt.Fprintf(w, "Pending payments:\t%d\n", s.PendingPayments)
	w.Flush()
}

func (c *cli) overview(o models.PlatformOverview) {
	w := c.table()
	fmt.Fprintf(w, "Workers:\t%d\n", o.Workers)
	fmt.Fprintf(w, "Owners:\t%d\n", o.Owners)
	fmt.Fprintf(w, "Admins:\t%d\n", o.Admins)
	fmt.Fprintf(w, "Jobs:\t%d (%d active)\n", o.Jobs, o.ActiveJobs)
	fmt.Fprintf(w, "Applications:\t%d\n", o.Applications)
	fmt.Fprintf(w, "Payments:\t%d\n", o.Payments)
	fmt.Fprintf(w, "Completed volume:\t%s\n", rupees(o.CompletedVolume))
	fmt.Fprintf(w, "Pending volume:\t%s\n", rupees(o.PendingVolume))
	w.Flush()
}

func (c *cli) user(u *models.User) {
	w := c.table()
	fmt.Fprintf(w, "ID:\t%s\n", u.ID)
	fmt.Fprintf(w, "Name:\t%s\n", u.Name)
	fmt.Fprintf(w, "Phone:\t%s\n", u.Phone)
	fmt.Fprintf(w, "Role:\t%s\n", u.Role)
	if u.SkillLevel != "" {
		fmt.Fprintf(w, "Skill level:\t%s\n", u.SkillLevel)
	}
	if u.Language != "" {
		fmt.Fprintf(w, "Language:\t%s\n", u.Language)
	}
	w.Flush()
}

func (c *cli) settingsTable(all map[string]string) {
	if len(all) == 0 {
		fmt.Fprintln(c.out, "No settings stored")
		return
	}
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	w := c.table()
	for _, k := range keys {
		fmt.Fprintf(w, "%s\t%s\n", k, all[k])
	}
	w.Flush()
}

func list(out io.Writer, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s:\n", heading)
	for _, item := range items {
		fmt.Fprintf(out, "  - %s\n", item)
	}
}

// rupees formats whole rupees with Indian digit grouping, e.g. ₹1,25,000
func rupees(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	if len(digits) <= 3 {
		return sign + "₹" + digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	groups = append([]string{head}, groups...)
	return sign + "₹" + strings.Join(groups, ",") + "," + tail
}

func mask(s string) string {
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "***" + s[len(s)-4:]
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func printUsage(out io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(out, "VillageWork CLI")
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  villagework -cmd <command> [options]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Commands:")
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\t%s\n", name, commands[name].usage)
	}
	w.Flush()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Options:")
	fmt.Fprintln(out, "  -config string   - Configuration file")
	fmt.Fprintln(out, "  -output string   - Output format: console, json (default: console)")
	fmt.Fprintln(out, "  -verbose         - Log every API request to stderr")
	fmt.Fprintln(out, "  -help            - Show this help message")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Examples:")
	fmt.Fprintln(out, "  villagework -cmd login -phone 9876543210 -password secret")
	fmt.Fprintln(out, "  villagework -cmd jobs -filter urgent -q pune")
	fmt.Fprintln(out, "  villagework -cmd apply -id <job-id> -message \"Available from Monday\"")
	fmt.Fprintln(out, "  villagework -cmd payments -status pending -output json")
}
