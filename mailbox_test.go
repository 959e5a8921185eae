package mailbox

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestGenerateMailbox(t *testing.T) {
	a, err := GenerateMailbox()
	if err != nil {
		t.Fatalf("GenerateMailbox() error = %v", err)
	}
	b := MustGenerateMailbox()
	if a.IsZero() || b.IsZero() {
		t.Error("generated the zero mailbox")
	}
	if a == b {
		t.Error("two generated mailboxes are equal")
	}
	if !(Mailbox{}).IsZero() {
		t.Error("zero value IsZero() = false")
	}
}

func TestParseMailbox(t *testing.T) {
	m := MustGenerateMailbox()
	s := m.String()
	if len(s) != 2*Size {
		t.Fatalf("len(String()) = %d, want %d", len(s), 2*Size)
	}
	got, err := ParseMailbox(s)
	if err != nil {
		t.Fatalf("ParseMailbox() error = %v", err)
	}
	if got != m {
		t.Error("ParseMailbox(String()) changed the mailbox")
	}
	if !strings.HasPrefix(s, m.Short()) || len(m.Short()) != 16 {
		t.Errorf("Short() = %q is not a prefix of %q", m.Short(), s)
	}

	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"short", "abcd"},
		{"not hex", strings.Repeat("zz", Size)},
		{"too long", strings.Repeat("00", Size+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseMailbox(tt.in); !errors.Is(err, ErrInvalidMailbox) {
				t.Errorf("ParseMailbox(%q) error = %v, want ErrInvalidMailbox", tt.in, err)
			}
		})
	}
}

func TestTargetViewDimension(t *testing.T) {
	tests := []struct {
		target Target
		want   gputypes.TextureViewDimension
		name   string
	}{
		{Target2D, gputypes.TextureViewDimension2D, "2D"},
		{TargetCubeMap, gputypes.TextureViewDimensionCube, "CubeMap"},
		{TargetExternal, gputypes.TextureViewDimension2D, "External"},
		{TargetRectangle, gputypes.TextureViewDimension2D, "Rectangle"},
		{TargetInvalid, gputypes.TextureViewDimensionUndefined, "Target(0)"},
		{Target(99), gputypes.TextureViewDimensionUndefined, "Target(99)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.target.ViewDimension(); got != tt.want {
				t.Errorf("ViewDimension() = %v, want %v", got, tt.want)
			}
			if got := tt.target.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
			if tt.target.IsValid() != (tt.want != gputypes.TextureViewDimensionUndefined) {
				t.Errorf("IsValid() = %v", tt.target.IsValid())
			}
		})
	}
}

func TestTargetNameIsMapKey(t *testing.T) {
	m := MustGenerateMailbox()
	seen := map[TargetName]int{
		{Target2D, m}:      1,
		{TargetCubeMap, m}: 2,
	}
	if seen[TargetName{Target2D, m}] != 1 || seen[TargetName{TargetCubeMap, m}] != 2 {
		t.Error("TargetName keys collide")
	}
	if got := (TargetName{Target2D, m}).String(); got != "2D:"+m.Short() {
		t.Errorf("String() = %q", got)
	}
}

func TestIsProgrammerError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{ErrZeroMailbox, true},
		{ErrTargetMismatch, true},
		{errors.Join(errors.New("ctx"), ErrUnknownTexture), true},
		{ErrContextClosed, false},
		{ErrInvalidMailbox, false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := IsProgrammerError(tt.err); got != tt.want {
			t.Errorf("IsProgrammerError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestParseTarget(t *testing.T) {
	for _, want := range []Target{Target2D, TargetCubeMap, TargetExternal, TargetRectangle} {
		got, err := ParseTarget(strings.ToLower(want.String()))
		if err != nil || got != want {
			t.Errorf("ParseTarget(%q) = %v, %v", want.String(), got, err)
		}
	}
	if _, err := ParseTarget("3d"); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("ParseTarget(3d) error = %v, want ErrInvalidTarget", err)
	}
}
