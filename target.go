package mailbox

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
)

// Target is the binding target a texture is produced and consumed under.
// The same mailbox may be bound under different targets independently.
type Target uint32

// Binding targets.
const (
	TargetInvalid Target = iota
	Target2D
	TargetCubeMap
	TargetExternal
	TargetRectangle
)

// IsValid reports whether t is a known target.
func (t Target) IsValid() bool {
	return t >= Target2D && t <= TargetRectangle
}

// ViewDimension returns how a texture bound to t is viewed.
// External and rectangle textures are plain 2D textures on the GPU.
func (t Target) ViewDimension() gputypes.TextureViewDimension {
	switch t {
	case Target2D, TargetExternal, TargetRectangle:
		return gputypes.TextureViewDimension2D
	case TargetCubeMap:
		return gputypes.TextureViewDimensionCube
	default:
		return gputypes.TextureViewDimensionUndefined
	}
}

// String returns the target name.
func (t Target) String() string {
	switch t {
	case Target2D:
		return "2D"
	case TargetCubeMap:
		return "CubeMap"
	case TargetExternal:
		return "External"
	case TargetRectangle:
		return "Rectangle"
	default:
		return fmt.Sprintf("Target(%d)", uint32(t))
	}
}

// TargetName is a binding slot: a mailbox under a target.
type TargetName struct {
	Target  Target
	Mailbox Mailbox
}

// String returns "target:mailbox-prefix".
func (n TargetName) String() string {
	return n.Target.String() + ":" + n.Mailbox.Short()
}

// ParseTarget parses a target name as printed by String, case-insensitively.
func ParseTarget(s string) (Target, error) {
	for t := Target2D; t <= TargetRectangle; t++ {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	return TargetInvalid, fmt.Errorf("%w: %q", ErrInvalidTarget, s)
}
