package header

import (
	"strings"
	"testing"

	"anubis/internal/artifact"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const copyright = "Copyright © 2024 Navarrotech"

func TestCompose_PrefixSelection(t *testing.T) {
	cases := []struct {
		path   string
		prefix string
	}{
		{"test.yml", "#"},
		{".github/workflows/ci.yaml", "#"},
		{"Dockerfile", "#"},
		{"scripts/setup.sh", "#"},
		{"test.js", "//"},
		{"test.ts", "//"},
		{"test.tsx", "//"},
		{"api/src/main.rs", "//"},
		{"proto/auth.proto", "//"},
	}
	for _, tc := range cases {
		for _, p := range artifact.Policies {
			h := Compose(artifact.KindOf(tc.path), copyright, p)
			require.False(t, h.Empty(), tc.path)
			rendered := h.String()
			assert.True(t, strings.HasPrefix(rendered, tc.prefix+" "+copyright+"\n\n"),
				"%s (%s): %q", tc.path, p, rendered)
		}
	}
}

func TestCompose_Suppressed(t *testing.T) {
	for _, path := range []string{"README.md", "index.html", "package.json", "feed.xml", "logo.svg"} {
		for _, p := range artifact.Policies {
			h := Compose(artifact.KindOf(path), copyright, p)
			assert.True(t, h.Empty(), path)
			assert.Equal(t, "", h.String(), path)
			assert.Equal(t, "payload", h.Decorate("payload"), path)
		}
		assert.True(t, Suppressed(artifact.KindOf(path)))
	}
}

func TestCompose_UnknownKind(t *testing.T) {
	h := Compose(artifact.KindOf("notes.txt"), copyright, artifact.Synthetic)
	assert.True(t, h.Empty())
	assert.False(t, Suppressed("txt"))

	_, ok := CommentPrefix(artifact.KindOf(".gitignore"))
	assert.False(t, ok)
}

func TestCompose_NoCopyright(t *testing.T) {
	h := Compose("yml", "   ", artifact.Relic)
	require.False(t, h.Empty())
	assert.Equal(t, "", h.Copyright)
	assert.True(t, strings.HasPrefix(h.String(), "# This is a generated relic by Anubis.\n"))
}

func TestBannerPerPolicy(t *testing.T) {
	auto := Compose("ts", "", artifact.Automatron).String()
	relic := Compose("ts", "", artifact.Relic).String()
	synth := Compose("ts", "", artifact.Synthetic).String()

	assert.Contains(t, auto, "// // !! AUTO GENERATED FILE, DO NOT EDIT !! //\n")
	assert.Contains(t, relic, "you are in full control of this file.")
	assert.Contains(t, synth, "Anubis will always honor your changes.")
	assert.NotEqual(t, auto, relic)
	assert.NotEqual(t, relic, synth)
}

func TestString_Layout(t *testing.T) {
	h := Header{Prefix: "#", Copyright: "# C", Banner: []string{"one", "", "two"}}
	assert.Equal(t, "# C\n\n# one\n\n# two\n\n", h.String())
	assert.Equal(t, "# C\n\n# one\n\n# two\n\nbody\n", h.Decorate("body\n"))
}

func TestBannerIsCopied(t *testing.T) {
	b := Banner(artifact.Relic)
	b[0] = "mutated"
	assert.NotEqual(t, "mutated", Banner(artifact.Relic)[0])
}
