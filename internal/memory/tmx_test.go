package memory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleTMX = `<?xml version="1.0" encoding="UTF-8"?>
<tmx version="1.4">
  <header creationtool="other-tool" creationtoolversion="1.0" datatype="plaintext"
          segtype="sentence" adminlang="en" srclang="en" o-tmf="plain"/>
  <body>
    <tu tuid="greeting">
      <tuv xml:lang="en"><seg>Hello world</seg></tuv>
      <tuv xml:lang="es"><seg>Hola mundo</seg></tuv>
    </tu>
    <tu tuid="farewell">
      <tuv xml:lang="en"><seg>Goodbye</seg></tuv>
      <tuv xml:lang="es"><seg>Adiós</seg></tuv>
    </tu>
    <tu>
      <tuv xml:lang="en"><seg>No id here</seg></tuv>
      <tuv xml:lang="es"><seg>Sin identificador</seg></tuv>
    </tu>
  </body>
</tmx>`

func writeSampleTMX(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.tmx")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImportTMX(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	summary, err := s.ImportTMX(ctx, writeSampleTMX(t, sampleTMX))
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	if summary.UnitsParsed != 3 {
		t.Errorf("parsed = %d, want 3", summary.UnitsParsed)
	}
	if summary.UnitsNew != 3 || summary.UnitsUpdated != 0 {
		t.Errorf("new = %d updated = %d, want 3/0", summary.UnitsNew, summary.UnitsUpdated)
	}

	u, err := s.Get(ctx, "greeting")
	if err != nil {
		t.Fatal(err)
	}
	if u == nil {
		t.Fatal("tuid-keyed unit not stored under its tuid")
	}
	if u.Variants["es"] != "Hola mundo" {
		t.Errorf("es variant = %q", u.Variants["es"])
	}
}

func TestImportTMX_ReimportMergesByTUID(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()
	path := writeSampleTMX(t, sampleTMX)

	if _, err := s.ImportTMX(ctx, path); err != nil {
		t.Fatal(err)
	}
	summary, err := s.ImportTMX(ctx, path)
	if err != nil {
		t.Fatal(err)
	}

	// The two tuid-keyed units merge; the anonymous one gets a fresh id
	// each import.
	if summary.UnitsUpdated != 2 {
		t.Errorf("updated = %d, want 2", summary.UnitsUpdated)
	}
	if summary.UnitsNew != 1 {
		t.Errorf("new = %d, want 1", summary.UnitsNew)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Units != 4 {
		t.Errorf("units = %d, want 4 (2 merged + 2 anonymous)", stats.Units)
	}
}

func TestImportTMX_AddsVariantToExistingUnit(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	if _, err := s.Upsert(ctx, "greeting", map[string]string{"fr": "Bonjour le monde"}, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ImportTMX(ctx, writeSampleTMX(t, sampleTMX)); err != nil {
		t.Fatal(err)
	}

	u, err := s.Get(ctx, "greeting")
	if err != nil {
		t.Fatal(err)
	}
	if u.Variants["fr"] != "Bonjour le monde" {
		t.Error("import removed a pre-existing variant")
	}
	if u.Variants["en"] != "Hello world" || u.Variants["es"] != "Hola mundo" {
		t.Errorf("imported variants missing: %v", u.Variants)
	}
}

func TestImportTMX_MissingFile(t *testing.T) {
	s := newTestStore(t, nil)

	if _, err := s.ImportTMX(context.Background(), "/does/not/exist.tmx"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestExportTMX(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()
	dir := t.TempDir()

	pairs := []Pair{
		{SourceText: "Hello", TargetText: "Hola"},
		{SourceText: "World", TargetText: "Mundo"},
		{SourceText: "", TargetText: "skipped"},
	}

	path, err := s.ExportTMX(ctx, pairs, "en", "es", dir)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	base := filepath.Base(path)
	if !strings.HasPrefix(base, "translation_en_to_es_") || !strings.HasSuffix(base, ".tmx") {
		t.Errorf("unexpected export filename %q", base)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	for _, want := range []string{"Hola", "Mundo", `creationtool="lingodoc"`, `srclang="en"`} {
		if !strings.Contains(content, want) {
			t.Errorf("export missing %q", want)
		}
	}
	if strings.Contains(content, "skipped") {
		t.Error("export included a pair with an empty source")
	}

	// Export is artifact-production only and leaves the store alone.
	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Units != 0 {
		t.Errorf("units = %d, want 0 after export", stats.Units)
	}
}

func TestExportTMX_RepeatedExportDoesNotGrowStore(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()
	dir := t.TempDir()

	if _, err := s.Add(ctx, "Hello", "en", "Hola", "es"); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		units, err := s.List(ctx)
		if err != nil {
			t.Fatal(err)
		}
		var pairs []Pair
		for _, u := range units {
			pairs = append(pairs, Pair{SourceText: u.Variants["en"], TargetText: u.Variants["es"]})
		}
		if _, err := s.ExportTMX(ctx, pairs, "en", "es", dir); err != nil {
			t.Fatalf("export %d: %v", i, err)
		}
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Units != 1 || stats.Variants != 2 {
		t.Errorf("stats = %d units / %d variants, want 1 / 2", stats.Units, stats.Variants)
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	src := newTestStore(t, nil)
	ctx := context.Background()
	dir := t.TempDir()

	path, err := src.ExportTMX(ctx, []Pair{{SourceText: "Good morning", TargetText: "Buenos días"}}, "en", "es", dir)
	if err != nil {
		t.Fatal(err)
	}

	dst := newTestStore(t, nil)
	summary, err := dst.ImportTMX(ctx, path)
	if err != nil {
		t.Fatalf("round-trip import failed: %v", err)
	}
	if summary.UnitsParsed != 1 || summary.UnitsNew != 1 {
		t.Errorf("summary = %+v", summary)
	}

	matches, err := dst.Search(ctx, "Good morning", "en", "es", 0.9)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || matches[0].TargetText != "Buenos días" {
		t.Errorf("matches = %+v", matches)
	}
}
