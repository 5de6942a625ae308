package metadata

import (
	"regexp"
	"strconv"
	"strings"
)

var nameSeparators = regexp.MustCompile(`[-_.]+`)

// versionPattern is the PEP 440 public+local version grammar.
var versionPattern = regexp.MustCompile(`(?i)^\s*v?` +
	`(?:(?P<epoch>[0-9]+)!)?` +
	`(?P<release>[0-9]+(?:\.[0-9]+)*)` +
	`(?P<pre>[-_.]?(?P<pre_l>alpha|a|beta|b|preview|pre|c|rc)[-_.]?(?P<pre_n>[0-9]+)?)?` +
	`(?P<post>(?:-(?P<post_n1>[0-9]+))|(?:[-_.]?(?P<post_l>post|rev|r)[-_.]?(?P<post_n2>[0-9]+)?))?` +
	`(?P<dev>[-_.]?(?P<dev_l>dev)[-_.]?(?P<dev_n>[0-9]+)?)?` +
	`(?:\+(?P<local>[a-z0-9]+(?:[-_.][a-z0-9]+)*))?` +
	`\s*$`)

var localSeparators = regexp.MustCompile(`[-_.]`)

// NormalizeName lowercases name and collapses every run of '-', '_' or '.'
// into a single '_'.
func NormalizeName(name string) string {
	return nameSeparators.ReplaceAllString(strings.ToLower(name), "_")
}

// NormalizeVersion returns the canonical form of a PEP 440 version. Strings
// that do not parse are lowercased with every '-' removed.
func NormalizeVersion(version string) string {
	m := versionPattern.FindStringSubmatch(version)
	if m == nil {
		return strings.ReplaceAll(strings.ToLower(version), "-", "")
	}
	group := func(name string) string {
		return m[versionPattern.SubexpIndex(name)]
	}

	var b strings.Builder
	if epoch := group("epoch"); epoch != "" && trimInt(epoch) != "0" {
		b.WriteString(trimInt(epoch))
		b.WriteByte('!')
	}

	parts := strings.Split(group("release"), ".")
	for i, p := range parts {
		parts[i] = trimInt(p)
	}
	b.WriteString(strings.Join(parts, "."))

	if group("pre") != "" {
		b.WriteString(preLabel(strings.ToLower(group("pre_l"))))
		b.WriteString(trimInt(group("pre_n")))
	}

	if group("post") != "" {
		n := group("post_n1")
		if n == "" {
			n = group("post_n2")
		}
		b.WriteString(".post")
		b.WriteString(trimInt(n))
	}

	if group("dev") != "" {
		b.WriteString(".dev")
		b.WriteString(trimInt(group("dev_n")))
	}

	if local := group("local"); local != "" {
		b.WriteByte('+')
		b.WriteString(localSeparators.ReplaceAllString(strings.ToLower(local), "."))
	}
	return b.String()
}

// ProjectID joins the normalized name and version with '-'. The version
// segment and its separator are omitted when version is empty.
func ProjectID(name, version string) string {
	if version == "" {
		return NormalizeName(name)
	}
	return NormalizeName(name) + "-" + NormalizeVersion(version)
}

func preLabel(l string) string {
	switch l {
	case "alpha", "a":
		return "a"
	case "beta", "b":
		return "b"
	default:
		return "rc"
	}
}

// trimInt drops leading zeros; an empty string is treated as 0.
func trimInt(s string) string {
	if s == "" {
		return "0"
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		s = strings.TrimLeft(s, "0")
		if s == "" {
			return "0"
		}
		return s
	}
	return strconv.FormatUint(n, 10)
}
