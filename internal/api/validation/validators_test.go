package validation

import (
	"errors"
	"strings"
	"testing"

	"villagework/pkg/models"
	"villagework/pkg/utils"
)

func TestRegisterRequestValidation(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		req     models.RegisterRequest
		wantErr string
	}{
		{
			name: "valid worker",
			req:  models.RegisterRequest{Name: "Ravi", Phone: "+91 98765-43210", Password: "secret1", Role: models.RoleWorker, SkillLevel: "beginner"},
		},
		{
			name:    "bad phone",
			req:     models.RegisterRequest{Name: "Ravi", Phone: "12ab", Password: "secret1", Role: models.RoleWorker},
			wantErr: "phone must be a valid phone number",
		},
		{
			name:    "unknown skill",
			req:     models.RegisterRequest{Name: "Ravi", Phone: "9876543210", Password: "secret1", Role: models.RoleWorker, SkillLevel: "guru"},
			wantErr: "skillLevel must be helper, worker, expert or any",
		},
		{
			name:    "short password and missing name",
			req:     models.RegisterRequest{Phone: "9876543210", Password: "123", Role: models.RoleOwner},
			wantErr: "name is required; password must be at least 6 characters",
		},
		{
			name:    "multibyte password over the bcrypt limit",
			req:     models.RegisterRequest{Name: "Ravi", Phone: "9876543210", Password: strings.Repeat("é", 40), Role: models.RoleWorker},
			wantErr: "password must be at most 72 bytes",
		},
		{
			name: "multibyte password at the bcrypt limit",
			req:  models.RegisterRequest{Name: "Ravi", Phone: "9876543210", Password: strings.Repeat("é", 36), Role: models.RoleWorker},
		},
		{
			name:    "unknown role",
			req:     models.RegisterRequest{Name: "Ravi", Phone: "9876543210", Password: "secret1", Role: "farmer"},
			wantErr: "role must be one of: worker, owner, admin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.req)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var ce *utils.CustomError
			if !errors.As(err, &ce) {
				t.Fatalf("err = %T %v, want *utils.CustomError", err, err)
			}
			if ce.Kind != "validation_failed" || ce.Detail != tt.wantErr {
				t.Errorf("error = %+v, want detail %q", ce, tt.wantErr)
			}
		})
	}
}

func TestJobRequestValidation(t *testing.T) {
	v := New()

	ok := models.JobRequest{Title: "Farm Helper", Location: "Nashik", Salary: "₹500/day", Category: "daily", ExperienceLevel: "experienced"}
	if err := v.Validate(&ok); err != nil {
		t.Fatalf("valid job rejected: %v", err)
	}

	bad := models.PaymentRequest{JobID: "j1", WorkerID: "w1", Amount: 0, Method: "cheque"}
	err := v.Validate(&bad)
	if err == nil {
		t.Fatal("invalid payment accepted")
	}
	if msg := err.Error(); !strings.Contains(msg, "amount is required") || !strings.Contains(msg, "method must be one of: cash, upi, bank") {
		t.Errorf("message = %q", msg)
	}
}
