// Package header composes the comment block that decorates every generated
// file: an optional copyright line plus a banner telling readers which
// lifecycle policy owns the file.
package header

import (
	"strings"

	"anubis/internal/artifact"
)

// Header is the decoration for one artifact. The zero value renders nothing.
type Header struct {
	Prefix    string
	Copyright string
	Banner    []string
}

// hashKinds use a # line comment.
var hashKinds = map[artifact.Kind]bool{
	"yml": true, "yaml": true, "toml": true, "sh": true, "bash": true,
	"py": true, "rb": true, "dockerfile": true, "makefile": true,
	"tf": true, "conf": true,
}

// slashKinds use a // line comment.
var slashKinds = map[artifact.Kind]bool{
	"rs": true, "js": true, "jsx": true, "ts": true, "tsx": true,
	"go": true, "proto": true, "scss": true, "c": true, "h": true,
	"cpp": true, "java": true, "kt": true, "swift": true, "cs": true,
	"dart": true,
}

// suppressedKinds cannot carry a leading comment block without becoming
// invalid or corrupting their first meaningful markup.
var suppressedKinds = map[artifact.Kind]bool{
	"md": true, "markdown": true, "html": true, "htm": true,
	"json": true, "xml": true, "svg": true,
}

var banners = map[artifact.Policy][]string{
	artifact.Automatron: {
		"////////////////////////////////////////////",
		"// !! AUTO GENERATED FILE, DO NOT EDIT !! //",
		"////////////////////////////////////////////",
		"",
		"This is a generated automatron file by Anubis.",
		"Automatrons are files that are 100% auto-generated regularly by Anubis.",
		"It is not safe to edit this file directly, as your changes are extremely likely to be overwritten.",
	},
	artifact.Relic: {
		"This is a generated relic by Anubis.",
		"Relics are files that are only auto-generated once and never touched again by Anubis.",
		"You may safely modify this file as much as you want, you are in full control of this file.",
	},
	artifact.Synthetic: {
		"This is a synthetic Anubis file.",
		"Synthetics are files that Anubis writes and manages, but Anubis will always honor your changes.",
		"Take caution while editing this file, it may change in the future & you are in partial control of this file.",
	},
}

// CommentPrefix returns the line-comment token for kind.
func CommentPrefix(kind artifact.Kind) (string, bool) {
	switch {
	case suppressedKinds[kind]:
		return "", false
	case hashKinds[kind]:
		return "#", true
	case slashKinds[kind]:
		return "//", true
	}
	return "", false
}

// Suppressed reports whether kind never receives a header.
func Suppressed(kind artifact.Kind) bool {
	return suppressedKinds[kind]
}

// Banner returns the fixed banner text for policy.
func Banner(policy artifact.Policy) []string {
	return append([]string(nil), banners[policy]...)
}

// Compose derives the header for a file kind. copyright is the year-formatted
// copyright text; kinds without a comment prefix get an empty header.
func Compose(kind artifact.Kind, copyright string, policy artifact.Policy) Header {
	prefix, ok := CommentPrefix(kind)
	if !ok {
		return Header{}
	}
	h := Header{Prefix: prefix, Banner: Banner(policy)}
	if c := strings.TrimSpace(copyright); c != "" {
		h.Copyright = prefix + " " + c
	}
	return h
}

// Empty reports whether the header renders to nothing.
func (h Header) Empty() bool {
	return h.Prefix == ""
}

// String renders the header as the text prepended to the content.
func (h Header) String() string {
	if h.Empty() {
		return ""
	}
	var b strings.Builder
	if h.Copyright != "" {
		b.WriteString(h.Copyright)
		b.WriteString("\n\n")
	}
	for _, line := range h.Banner {
		if line == "" {
			b.WriteString("\n")
			continue
		}
		b.WriteString(h.Prefix)
		b.WriteString(" ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// Decorate prepends the rendered header to content.
func (h Header) Decorate(content string) string {
	return h.String() + content
}
