package writer

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anubis/internal/artifact"
	"anubis/internal/header"
)

const copyright = "Copyright (c) 2026 Example Corp"

func newWriter(t *testing.T) (*Writer, string) {
	t.Helper()
	root := t.TempDir()
	return New(root, Options{Copyright: copyright}), root
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func decorated(rel string, policy artifact.Policy, content string) string {
	return header.Compose(artifact.KindOf(rel), copyright, policy).Decorate(content)
}

func TestRelic_WrittenOnce(t *testing.T) {
	w, root := newWriter(t)

	require.NoError(t, w.Write(artifact.Relic, "config/settings.yml", "name: one\n"))
	res, err := w.WriteArtifact(mustArtifact(t, artifact.Relic, "config/settings.yml"), "name: two\n")
	require.NoError(t, err)

	assert.Equal(t, artifact.Skipped, res.Outcome)
	assert.Equal(t, decorated("config/settings.yml", artifact.Relic, "name: one\n"), readFile(t, root, "config/settings.yml"))
}

func TestRelic_UserOwnedAfterCreation(t *testing.T) {
	w, root := newWriter(t)
	require.NoError(t, w.Write(artifact.Relic, "README.md", "# Hello\n"))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("mine\n"), 0644))

	require.NoError(t, w.Write(artifact.Relic, "README.md", "# Hello again\n"))
	assert.Equal(t, "mine\n", readFile(t, root, "README.md"))
}

func TestAutomatron_FullOverwrite(t *testing.T) {
	w, root := newWriter(t)

	res, err := w.WriteArtifact(mustArtifact(t, artifact.Automatron, "gen/types.ts"), "export const first = 1;\n")
	require.NoError(t, err)
	assert.Equal(t, artifact.Created, res.Outcome)

	res, err = w.WriteArtifact(mustArtifact(t, artifact.Automatron, "gen/types.ts"), "export const second = 2;\n")
	require.NoError(t, err)
	assert.Equal(t, artifact.Overwritten, res.Outcome)

	got := readFile(t, root, "gen/types.ts")
	assert.Equal(t, decorated("gen/types.ts", artifact.Automatron, "export const second = 2;\n"), got)
	assert.NotContains(t, got, "first")

	res, err = w.WriteArtifact(mustArtifact(t, artifact.Automatron, "gen/types.ts"), "export const second = 2;\n")
	require.NoError(t, err)
	assert.Equal(t, artifact.Unchanged, res.Outcome)

	// No baseline interaction.
	list, err := w.Baselines().List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSynthetic_FirstWrite(t *testing.T) {
	w, root := newWriter(t)
	content := "services:\n  web:\n    image: app\n"

	res, err := w.WriteArtifact(mustArtifact(t, artifact.Synthetic, "docker-compose.yml"), content)
	require.NoError(t, err)
	assert.Equal(t, artifact.Created, res.Outcome)

	want := decorated("docker-compose.yml", artifact.Synthetic, content)
	assert.Equal(t, want, readFile(t, root, "docker-compose.yml"))

	base, ok, err := w.Baselines().Read("docker-compose.yml")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, base)
}

func TestSynthetic_PreservesUserInsertions(t *testing.T) {
	root := t.TempDir()
	w := New(root, Options{})

	// Unknown kind: no header, so content is compared literally.
	require.NoError(t, w.Write(artifact.Synthetic, "notes.txt", "a\nb\nc\n"))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("a\nb\nb1\nc\n"), 0644))

	res, err := w.WriteArtifact(mustArtifact(t, artifact.Synthetic, "notes.txt"), "a\nb\nc\nd\n")
	require.NoError(t, err)
	assert.Equal(t, artifact.Merged, res.Outcome)
	assert.Equal(t, "a\nb\nb1\nc\nd\n", readFile(t, root, "notes.txt"))

	// Baseline holds the unmerged machine output.
	base, _, err := w.Baselines().Read("notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc\nd\n", base)
}

func TestSynthetic_DoesNotResurrectDeletions(t *testing.T) {
	root := t.TempDir()
	w := New(root, Options{})

	require.NoError(t, w.Write(artifact.Synthetic, "notes.txt", "a\nb\nc\n"))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("a\nc\n"), 0644))

	res, err := w.WriteArtifact(mustArtifact(t, artifact.Synthetic, "notes.txt"), "a\nc\n")
	require.NoError(t, err)
	assert.Equal(t, artifact.Unchanged, res.Outcome)
	assert.Equal(t, "a\nc\n", readFile(t, root, "notes.txt"))
}

func TestSynthetic_HeaderedMergeKeepsUserLines(t *testing.T) {
	w, root := newWriter(t)
	rel := "scripts/build.sh"

	require.NoError(t, w.Write(artifact.Synthetic, rel, "set -e\nmake\n"))
	disk := readFile(t, root, rel)
	require.NoError(t, os.WriteFile(filepath.Join(root, rel), []byte(disk+"echo done\n"), 0644))
	require.NoError(t, os.Chmod(filepath.Join(root, rel), 0755))

	require.NoError(t, w.Write(artifact.Synthetic, rel, "set -e\nmake\nmake test\n"))
	got := readFile(t, root, rel)

	assert.True(t, strings.HasPrefix(got, "# "+copyright+"\n\n"))
	assert.Contains(t, got, "make test\n")
	assert.Contains(t, got, "echo done\n")
	assert.True(t, strings.HasSuffix(got, "\n") && !strings.HasSuffix(got, "\n\n"))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(root, rel))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0755), info.Mode().Perm(), "existing mode should survive rewrites")
	}
}

func TestSynthetic_DiskDeletedRegenerates(t *testing.T) {
	root := t.TempDir()
	w := New(root, Options{})

	require.NoError(t, w.Write(artifact.Synthetic, "a.txt", "one\n"))
	require.NoError(t, os.Remove(filepath.Join(root, "a.txt")))

	res, err := w.WriteArtifact(mustArtifact(t, artifact.Synthetic, "a.txt"), "two\n")
	require.NoError(t, err)
	assert.Equal(t, artifact.Created, res.Outcome)
	assert.Equal(t, "two\n", readFile(t, root, "a.txt"))
}

func TestSynthetic_PreexistingFileOverridden(t *testing.T) {
	root := t.TempDir()
	w := New(root, Options{})
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hand written\n"), 0644))

	res, err := w.WriteArtifact(mustArtifact(t, artifact.Synthetic, "a.txt"), "machine\n")
	require.NoError(t, err)
	assert.Equal(t, artifact.Overwritten, res.Outcome)
	assert.Equal(t, "machine\n", readFile(t, root, "a.txt"))
}

func TestHeaderSuppression_AllPolicies(t *testing.T) {
	payload := "{\"name\": \"x\"}"
	for _, policy := range artifact.Policies {
		for _, rel := range []string{"data/pkg.json", "docs/guide.md", "site/index.html"} {
			t.Run(policy.String()+"/"+rel, func(t *testing.T) {
				w, root := newWriter(t)
				require.NoError(t, w.Write(policy, rel, payload))
				got := readFile(t, root, rel)
				if policy == artifact.Synthetic {
					// Synthetic output is newline-normalized.
					assert.Equal(t, payload+"\n", got)
				} else {
					assert.Equal(t, payload, got)
				}
			})
		}
	}
}

func TestCommentPrefixSelection(t *testing.T) {
	cases := map[string]string{
		"ci/pipeline.yml": "#",
		"pyproject.toml":  "#",
		"tools/run.py":    "#",
		"Dockerfile":      "#",
		"src/main.rs":     "//",
		"web/app.ts":      "//",
		"cmd/main.go":     "//",
		"api/svc.proto":   "//",
	}
	for rel, prefix := range cases {
		t.Run(rel, func(t *testing.T) {
			w, root := newWriter(t)
			require.NoError(t, w.Write(artifact.Automatron, rel, "body\n"))
			got := readFile(t, root, rel)
			assert.True(t, strings.HasPrefix(got, prefix+" "+copyright+"\n"), "got %q", got)
		})
	}
}

func TestUnknownKindHasNoHeader(t *testing.T) {
	w, root := newWriter(t)
	require.NoError(t, w.Write(artifact.Automatron, "LICENSE", "MIT\n"))
	assert.Equal(t, "MIT\n", readFile(t, root, "LICENSE"))
}

func TestWrite_InvalidPaths(t *testing.T) {
	w, _ := newWriter(t)
	for _, p := range []string{"", ".", "dir/", "..", "../outside.txt", "/etc/passwd"} {
		err := w.Write(artifact.Automatron, p, "x")
		assert.ErrorIs(t, err, artifact.ErrInvalidPath, "path %q", p)
	}
}

func TestWrite_AncestorCollision(t *testing.T) {
	w, root := newWriter(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "config"), []byte("file"), 0644))

	err := w.Write(artifact.Automatron, "config/app.yml", "x")
	require.Error(t, err)
	var ioErr *artifact.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "mkdir", ioErr.Op)
	assert.Contains(t, err.Error(), "config")
}

func TestWrite_CreatesAncestors(t *testing.T) {
	w, root := newWriter(t)
	require.NoError(t, w.Write(artifact.Relic, "a/b/c/d.txt", "x"))
	assert.Equal(t, "x", readFile(t, root, "a/b/c/d.txt"))
}

func TestSynthetic_BaselineUnavailable(t *testing.T) {
	root := t.TempDir()
	w := New(root, Options{BaselineDir: "cache"})
	require.NoError(t, os.WriteFile(filepath.Join(root, "cache"), []byte("not a dir"), 0644))

	err := w.Write(artifact.Synthetic, "a.txt", "x\n")
	assert.ErrorIs(t, err, artifact.ErrBaselineUnavailable)
}

func TestSideEffectsConfined(t *testing.T) {
	w, root := newWriter(t)
	require.NoError(t, w.Write(artifact.Synthetic, "only.py", "print(1)\n"))

	var files []string
	require.NoError(t, filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			rel, _ := filepath.Rel(root, p)
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	}))
	assert.ElementsMatch(t, []string{"only.py", ".anubis/cache/only.py"}, files)
}

func mustArtifact(t *testing.T, p artifact.Policy, rel string) artifact.Artifact {
	t.Helper()
	a, err := artifact.New(p, rel)
	require.NoError(t, err)
	return a
}
