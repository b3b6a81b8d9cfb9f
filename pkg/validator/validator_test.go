package validator

import "testing"

type slot struct {
	Date  string `json:"date" validate:"required,date"`
	Time  string `json:"time" validate:"required,clock"`
	Email string `json:"email" validate:"omitempty,email"`
	Kind  string `json:"kind" validate:"omitempty,oneof=initial follow-up"`
}

func TestDateAndClockTags(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name      string
		in        slot
		wantField string
		wantMsg   string
	}{
		{name: "valid", in: slot{Date: "2024-02-29", Time: "23:59"}},
		{name: "impossible date", in: slot{Date: "2023-02-29", Time: "09:00"}, wantField: "date", wantMsg: "date must be a date in YYYY-MM-DD format"},
		{name: "slashed date", in: slot{Date: "03/04/2024", Time: "09:00"}, wantField: "date", wantMsg: "date must be a date in YYYY-MM-DD format"},
		{name: "hour out of range", in: slot{Date: "2024-03-04", Time: "24:00"}, wantField: "time", wantMsg: "time must be a time in HH:MM format"},
		{name: "missing leading zero", in: slot{Date: "2024-03-04", Time: "9:00"}, wantField: "time", wantMsg: "time must be a time in HH:MM format"},
		{name: "missing time", in: slot{Date: "2024-03-04"}, wantField: "time", wantMsg: "time is required"},
		{name: "bad email", in: slot{Date: "2024-03-04", Time: "09:00", Email: "nope"}, wantField: "email", wantMsg: "email must be a valid email address"},
		{name: "bad kind", in: slot{Date: "2024-03-04", Time: "09:00", Kind: "walk"}, wantField: "kind", wantMsg: "kind must be one of: initial follow-up"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.in)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected a validation error")
			}
			got := v.FormatValidationErrors(err)
			if got[tt.wantField] != tt.wantMsg {
				t.Errorf("errors = %v, want %s: %q", got, tt.wantField, tt.wantMsg)
			}
		})
	}
}
