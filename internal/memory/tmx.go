package memory

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// TMX 1.4 document structure (http://www.lisa.org/tmx14).

type tmxDocument struct {
	XMLName xml.Name  `xml:"tmx"`
	Version string    `xml:"version,attr"`
	Header  tmxHeader `xml:"header"`
	Body    tmxBody   `xml:"body"`
}

type tmxHeader struct {
	CreationTool        string `xml:"creationtool,attr"`
	CreationToolVersion string `xml:"creationtoolversion,attr"`
	DataType            string `xml:"datatype,attr"`
	SegType             string `xml:"segtype,attr"`
	AdminLang           string `xml:"adminlang,attr"`
	SrcLang             string `xml:"srclang,attr"`
	OTMF                string `xml:"o-tmf,attr"`
}

type tmxBody struct {
	Units []tmxUnit `xml:"tu"`
}

type tmxUnit struct {
	TUID     string       `xml:"tuid,attr,omitempty"`
	Variants []tmxVariant `xml:"tuv"`
}

type tmxVariant struct {
	Lang string `xml:"http://www.w3.org/XML/1998/namespace lang,attr"`
	Seg  string `xml:"seg"`
}

// ImportSummary reports the outcome of a TMX import.
type ImportSummary struct {
	Filename     string
	UnitsParsed  int
	UnitsNew     int
	UnitsUpdated int
}

// Pair is one source/target segment pair for export.
type Pair struct {
	SourceText string
	TargetText string
}

// ImportTMX parses a TMX file and merges its translation units into the
// store. Units carrying a tuid merge by id (variants added or overwritten,
// never removed); units without one get a fresh id.
func (s *Store) ImportTMX(ctx context.Context, path string) (*ImportSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read TMX file: %w", err)
	}

	var doc tmxDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse TMX file: %w", err)
	}

	summary := &ImportSummary{Filename: filepath.Base(path)}
	for _, tu := range doc.Body.Units {
		variants := make(map[string]string, len(tu.Variants))
		for _, tuv := range tu.Variants {
			if tuv.Lang != "" && tuv.Seg != "" {
				variants[tuv.Lang] = tuv.Seg
			}
		}
		if len(variants) == 0 {
			continue
		}

		unitID := tu.TUID
		var existed bool
		if unitID != "" {
			u, err := s.Get(ctx, unitID)
			if err != nil {
				return nil, err
			}
			existed = u != nil
		}

		if _, err := s.Upsert(ctx, unitID, variants, nil); err != nil {
			return nil, fmt.Errorf("failed to import unit %q: %w", unitID, err)
		}

		summary.UnitsParsed++
		if existed {
			summary.UnitsUpdated++
		} else {
			summary.UnitsNew++
		}
	}

	return summary, nil
}

// ExportTMX writes the given pairs as a timestamped TMX 1.4 file under dir
// and returns the file path. The store is not touched: pairs sourced from it
// would otherwise duplicate on every export.
func (s *Store) ExportTMX(ctx context.Context, pairs []Pair, sourceLang, targetLang, dir string) (string, error) {
	doc := tmxDocument{
		Version: "1.4",
		Header: tmxHeader{
			CreationTool:        "lingodoc",
			CreationToolVersion: "1.0",
			DataType:            "plaintext",
			SegType:             "sentence",
			AdminLang:           "en",
			SrcLang:             sourceLang,
			OTMF:                "plain",
		},
	}

	for _, p := range pairs {
		if p.SourceText == "" || p.TargetText == "" {
			continue
		}
		doc.Body.Units = append(doc.Body.Units, tmxUnit{
			TUID: uuid.New().String(),
			Variants: []tmxVariant{
				{Lang: sourceLang, Seg: p.SourceText},
				{Lang: targetLang, Seg: p.TargetText},
			},
		})
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create TMX directory: %w", err)
	}

	filename := fmt.Sprintf("translation_%s_to_%s_%d.tmx", sourceLang, targetLang, time.Now().Unix())
	path := filepath.Join(dir, filename)

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal TMX: %w", err)
	}
	content := append([]byte(xml.Header), out...)

	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("failed to write TMX file: %w", err)
	}
	return path, nil
}
