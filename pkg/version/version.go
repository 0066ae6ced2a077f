// Package version parses OSGi versions and normalizes the looser version
// strings found in build metadata.
package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/bundlescope/pkg/errors"
)

// versionString is the OSGi version grammar:
// major[.minor[.micro[.qualifier]]].
const versionString = `[0-9]+(\.[0-9]+(\.[0-9]+(\.[0-9A-Za-z_-]+)?)?)?`

var (
	versionPattern = regexp.MustCompile(`^` + versionString + `$`)
	rangePattern   = regexp.MustCompile(`^(?:(?:[\(\[]` + versionString + `,` + versionString + `[\]\)])|` + versionString + `)$`)
)

// Version is a parsed OSGi version.
type Version struct {
	Major, Minor, Micro int
	Qualifier           string
}

// Parse reads a version such as "1.2.3.final". Missing components are zero.
func Parse(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if !versionPattern.MatchString(s) {
		return Version{}, errors.New(errors.ErrCodeInvalidInput, "invalid version %q", s)
	}
	var v Version
	parts := strings.SplitN(s, ".", 4)
	for i, p := range parts {
		if i == 3 {
			v.Qualifier = p
			break
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid version %q", s)
		}
		*v.field(i) = n
	}
	return v, nil
}

// Valid reports whether s is an OSGi version.
func Valid(s string) bool { return versionPattern.MatchString(s) }

// ValidRange reports whether s is an OSGi version or version range.
func ValidRange(s string) bool { return rangePattern.MatchString(s) }

func (v *Version) field(i int) *int {
	switch i {
	case 0:
		return &v.Major
	case 1:
		return &v.Minor
	default:
		return &v.Micro
	}
}

// String formats the version with all three numeric components.
func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Micro)
	if v.Qualifier != "" {
		s += "." + v.Qualifier
	}
	return s
}

// Mask derives a new version from v. Each mask character applies to the
// component at its position:
//
//	+  increment
//	-  decrement
//	=  keep
//	~  drop
//	0-9 replace with the digit
//
// The fourth position selects the qualifier, which is kept unless masked
// with '~'. A mask of "==+" yields major.minor.(micro+1).
func (v Version) Mask(mask string) (string, error) {
	var out []string
	for i, c := range mask {
		if c == '~' {
			continue
		}
		switch {
		case i == 3:
			if v.Qualifier != "" {
				out = append(out, v.Qualifier)
			}
		case i > 3:
			return "", errors.New(errors.ErrCodeInvalidInput, "version mask %q is longer than four characters", mask)
		case c >= '0' && c <= '9':
			out = append(out, string(c))
		default:
			x := *v.field(i)
			switch c {
			case '+':
				x++
			case '-':
				x--
			case '=':
			default:
				return "", errors.New(errors.ErrCodeInvalidInput, "invalid version mask character %q in %q", c, mask)
			}
			out = append(out, strconv.Itoa(x))
		}
	}
	return strings.Join(out, "."), nil
}
