// Package revision represents guest firmware revisions used for command gating.
package revision

import (
	"fmt"
	"strings"

	"github.com/coreos/go-semver/semver"

	"github.com/wippyai/hle/errors"
)

// Revision is a packed firmware version. Packing keeps numeric order equal to
// version order, so revisions compare with < and >.
type Revision uint32

const (
	majorShift = 26
	minorShift = 20
	microShift = 16

	maxMajor = 1<<(32-majorShift) - 1
	maxMinor = 1<<(majorShift-minorShift) - 1
	maxMicro = 1<<(minorShift-microShift) - 1
)

// Firmware revisions that gate commands.
var (
	V1_0_0 = New(1, 0, 0)
	V3_0_0 = New(3, 0, 0)
	V6_0_0 = New(6, 0, 0)
	V7_0_0 = New(7, 0, 0)
)

// New packs a revision. Components beyond their field width are truncated.
func New(major, minor, micro uint32) Revision {
	return Revision((major&maxMajor)<<majorShift | (minor&maxMinor)<<minorShift | (micro&maxMicro)<<microShift)
}

// Parse reads "major.minor.micro". Missing trailing components default to 0.
// Pre-release and build metadata are ignored.
func Parse(s string) (Revision, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	if s == "" {
		return 0, errors.InvalidInput(errors.PhaseConfig, "empty revision")
	}

	core := s
	if i := strings.IndexAny(core, "-+"); i >= 0 {
		core = core[:i]
	}
	for strings.Count(core, ".") < 2 {
		s = strings.Replace(s, core, core+".0", 1)
		core += ".0"
	}

	v, err := semver.NewVersion(s)
	if err != nil {
		return 0, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Op("parse revision").
			Value(s).
			Cause(err).
			Build()
	}

	if v.Major < 0 || v.Major > maxMajor || v.Minor < 0 || v.Minor > maxMinor || v.Patch < 0 || v.Patch > maxMicro {
		return 0, errors.New(errors.PhaseConfig, errors.KindOutOfRange).
			Op("parse revision").
			Value(s).
			Detail("%s exceeds %d.%d.%d", s, maxMajor, maxMinor, maxMicro).
			Build()
	}

	return New(uint32(v.Major), uint32(v.Minor), uint32(v.Patch)), nil
}

// MustParse is Parse for package-level revision literals.
func MustParse(s string) Revision {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

// Valid reports whether r could have come from New: the bits below the micro
// field are clear.
func (r Revision) Valid() bool { return uint32(r)&(1<<microShift-1) == 0 }

func (r Revision) Major() uint32 { return uint32(r) >> majorShift & maxMajor }
func (r Revision) Minor() uint32 { return uint32(r) >> minorShift & maxMinor }
func (r Revision) Micro() uint32 { return uint32(r) >> microShift & maxMicro }

func (r Revision) String() string {
	return fmt.Sprintf("%d.%d.%d", r.Major(), r.Minor(), r.Micro())
}

// MarshalText implements encoding.TextMarshaler.
func (r Revision) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Revision) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
