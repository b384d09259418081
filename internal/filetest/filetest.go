// Package filetest provides golden-file assertions for the test suites
// under lang/: given a directory of source fixtures and a parallel
// directory of ".want"/".err" files, it diffs actual output against the
// recorded expectation and can be told to rewrite the expectation instead.
package filetest

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/kylelemons/godebug/diff"
)

var updateAll = flag.Bool("test.update-all-golden", false, "update every golden file touched by this run")

// SourceFiles lists dir's regular files matching ext (leading dot optional),
// sorted by os.ReadDir's directory order. Callers iterate the result to
// drive one golden-file comparison per fixture.
func SourceFiles(t *testing.T, dir, ext string) []os.FileInfo {
	t.Helper()

	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}

	dents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	fis := make([]os.FileInfo, 0, len(dents))
	for _, dent := range dents {
		if !dent.Type().IsRegular() {
			continue
		}
		if ext != "" && filepath.Ext(dent.Name()) != ext {
			continue
		}
		fi, err := dent.Info()
		if err != nil {
			t.Fatal(err)
		}
		fis = append(fis, fi)
	}
	return fis
}

// DiffOutput compares output against fi's ".want" golden file in resultDir.
// When *updateFlag is set (or -test.update-all-golden was passed), the
// golden file is overwritten with output instead of compared against it.
func DiffOutput(t *testing.T, fi os.FileInfo, output, resultDir string, updateFlag *bool) {
	t.Helper()
	DiffCustom(t, fi, "output", ".want", output, resultDir, updateFlag)
}

// DiffErrors is DiffOutput for a fixture's recorded diagnostics, stored
// alongside the source under a ".err" extension.
func DiffErrors(t *testing.T, fi os.FileInfo, output, resultDir string, updateFlag *bool) {
	t.Helper()
	DiffCustom(t, fi, "errors", ".err", output, resultDir, updateFlag)
}

// DiffCustom is the general form behind DiffOutput/DiffErrors: label names
// the kind of output being compared (used only in failure messages) and ext
// is the golden file's extension, including its leading dot.
func DiffCustom(t *testing.T, fi os.FileInfo, label, ext, output, resultDir string, updateFlag *bool) {
	t.Helper()

	goldFile := filepath.Join(resultDir, fi.Name()+ext)
	diffOrUpdate(t, label, goldFile, output, updateFlag)
}

func diffOrUpdate(t *testing.T, label, goldFile, output string, updateFlag *bool) {
	t.Helper()

	if (updateFlag != nil && *updateFlag) || *updateAll {
		if err := os.WriteFile(goldFile, []byte(output), 0o600); err != nil {
			t.Fatal(err)
		}
		return
	}

	wantBytes, err := os.ReadFile(goldFile)
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	want := string(wantBytes)

	if testing.Verbose() {
		t.Logf("got %s:\n%s\n", label, output)
	}
	if patch := diff.Diff(want, output); patch != "" {
		if testing.Verbose() {
			t.Logf("want %s:\n%s\n", label, want)
		}
		t.Errorf("%s mismatch against %s:\n%s\n", label, goldFile, patch)
	}
}
