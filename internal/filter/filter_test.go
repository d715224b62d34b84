package filter

import (
	"reflect"
	"testing"

	"villagework/pkg/models"
)

func sampleJobs() []models.Job {
	return []models.Job{
		{ID: "j1", Title: "Mason Helper", Location: "Rampur", PostedBy: "Suresh", Applicants: 1, Category: "daily", ExperienceLevel: models.ExperienceHelper, TrainingProvided: true, Status: models.JobStatusActive},
		{ID: "j2", Title: "Electrician", Location: "Sitapur", PostedBy: "Anita", Applicants: 5, Category: "technical", ExperienceLevel: models.ExperienceExpert, Status: models.JobStatusActive},
		{ID: "j3", Title: "Farm Labour", Location: "Rampur", PostedBy: "Mohan", Applicants: 2, Category: "Construction", ExperienceLevel: "beginner", Status: models.JobStatusPaused},
		{ID: "j4", Title: "Plumber", Location: "Lakhimpur", PostedBy: "Suresh", Applicants: 0, Category: "Technical", ExperienceLevel: "experienced", TrainingProvided: true, Status: models.JobStatusActive},
	}
}

func ids(jobs []models.Job) []string {
	out := make([]string, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.ID)
	}
	return out
}

func TestJobsByKey(t *testing.T) {
	tests := []struct {
		key  string
		want []string
	}{
		{"all", []string{"j1", "j2", "j3", "j4"}},
		{"", []string{"j1", "j2", "j3", "j4"}},
		{"urgent", []string{"j1", "j3", "j4"}},
		{"training", []string{"j1", "j4"}},
		{"helper", []string{"j1", "j3"}},
		{"beginner", []string{"j1", "j3"}},
		{"worker", []string{"j4"}},
		{"expert", []string{"j2"}},
		{"daily", []string{"j1"}},
		{"technical", []string{"j2", "j4"}},
		{"paused", []string{"j3"}},
		{" URGENT ", []string{"j1", "j3", "j4"}},
		{"no-such-key", []string{"j1", "j2", "j3", "j4"}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got := ids(Jobs(sampleJobs(), tt.key, ""))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Jobs(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestJobsSearch(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		query string
		want  []string
	}{
		{"title match is case insensitive", "all", "ELECTRIC", []string{"j2"}},
		{"location match", "all", "rampur", []string{"j1", "j3"}},
		{"posted by match", "all", "suresh", []string{"j1", "j4"}},
		{"composes with key", "urgent", "rampur", []string{"j1", "j3"}},
		{"whole query is one substring", "all", "mason rampur", []string{}},
		{"phrase inside title", "all", "farm lab", []string{"j3"}},
		{"no match", "all", "carpenter", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Jobs(sampleJobs(), tt.key, tt.query))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Jobs(%q, %q) = %v, want %v", tt.key, tt.query, got, tt.want)
			}
		})
	}
}

func TestUrgentExample(t *testing.T) {
	records := []models.Job{{Applicants: 1}, {Applicants: 5}, {Applicants: 2}}

	got := Jobs(records, "urgent", "")

	want := []models.Job{{Applicants: 1}, {Applicants: 2}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestEmptyInput(t *testing.T) {
	for _, key := range JobKeys() {
		got := Jobs(nil, key, "")
		if got == nil || len(got) != 0 {
			t.Errorf("Jobs(nil, %q) = %#v, want empty slice", key, got)
		}
	}
}

func TestInputNotMutated(t *testing.T) {
	jobs := sampleJobs()
	before := sampleJobs()

	out := Jobs(jobs, "urgent", "rampur")
	out[0].Title = "changed"

	if !reflect.DeepEqual(jobs, before) {
		t.Fatal("input slice was modified")
	}
}

func TestProperties(t *testing.T) {
	jobs := sampleJobs()
	queries := []string{"", "r", "rampur", "SURESH", "xyz"}

	for _, key := range JobKeys() {
		base := Jobs(jobs, key, "")
		if !isOrderedSubset(ids(base), ids(jobs)) {
			t.Errorf("key %q: %v is not an ordered subset of input", key, ids(base))
		}

		for _, q := range queries {
			narrowed := Jobs(jobs, key, q)
			if !isOrderedSubset(ids(narrowed), ids(base)) {
				t.Errorf("key %q query %q: search widened the result", key, q)
			}
			again := Jobs(narrowed, key, q)
			if !reflect.DeepEqual(again, narrowed) {
				t.Errorf("key %q query %q: filter is not idempotent", key, q)
			}
		}
	}

	if got := Jobs(jobs, "all", ""); !reflect.DeepEqual(got, jobs) {
		t.Error("all filter with empty query should return the input unchanged")
	}
}

func TestApplications(t *testing.T) {
	job := &models.Job{ID: "j1", Title: "Mason Helper"}
	apps := []models.Application{
		{ID: "a1", ApplicantName: "Ramesh", Status: models.ApplicationPending, Job: job},
		{ID: "a2", ApplicantName: "Geeta", Status: models.ApplicationShortlisted},
		{ID: "a3", ApplicantName: "Raju", Status: models.ApplicationRejected, Job: job},
		{ID: "a4", ApplicantName: "Kamla", Status: models.ApplicationPending},
	}

	tests := []struct {
		key, query string
		want       []string
	}{
		{"all", "", []string{"a1", "a2", "a3", "a4"}},
		{"pending", "", []string{"a1", "a4"}},
		{"shortlisted", "", []string{"a2"}},
		{"rejected", "", []string{"a3"}},
		{"all", "ra", []string{"a1", "a3"}},
		{"pending", "mason", []string{"a1"}},
		{"unknown", "kam", []string{"a4"}},
	}

	for _, tt := range tests {
		got := Applications(apps, tt.key, tt.query)
		gotIDs := make([]string, 0, len(got))
		for _, a := range got {
			gotIDs = append(gotIDs, a.ID)
		}
		if !reflect.DeepEqual(gotIDs, tt.want) {
			t.Errorf("Applications(%q, %q) = %v, want %v", tt.key, tt.query, gotIDs, tt.want)
		}
	}
}

func TestKeys(t *testing.T) {
	keys := JobKeys()
	if keys[0] != KeyAll {
		t.Fatalf("first key = %q, want %q", keys[0], KeyAll)
	}
	if !IsJobKey("Urgent") || IsJobKey("bogus") {
		t.Error("IsJobKey mismatch")
	}
	if got := ApplicationKeys(); !reflect.DeepEqual(got, []string{"all", "pending", "rejected", "shortlisted"}) {
		t.Errorf("ApplicationKeys() = %v", got)
	}
}

func isOrderedSubset(sub, full []string) bool {
	i := 0
	for _, id := range full {
		if i < len(sub) && sub[i] == id {
			i++
		}
	}
	return i == len(sub)
}
