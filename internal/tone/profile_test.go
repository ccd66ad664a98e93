package tone

import "testing"

func TestParseProfile(t *testing.T) {
	tests := []struct {
		in      string
		want    Profile
		wantErr bool
	}{
		{"child_friendly", ChildFriendly, false},
		{"ELDER_FRIENDLY", ElderFriendly, false},
		{"  casual_friendly  ", CasualFriendly, false},
		{"professional_friendly", ProfessionalFriendly, false},
		{"robotic", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Parse(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
