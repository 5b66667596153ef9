package report

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/finvetra/fund-recommender/internal/core/ports"
)

// EmbeddingReport exports the current embedding state as a workbook for
// analyst review after a rebuild: one sheet of scheme vectors over the
// section axes, one of marker registry weights, one of option tables.
type EmbeddingReport struct {
	questionnaire ports.QuestionnaireRepository
	registry      ports.MarkerRegistry
	vectors       ports.VectorRepository
}

func NewEmbeddingReport(
	questionnaire ports.QuestionnaireRepository,
	registry ports.MarkerRegistry,
	vectors ports.VectorRepository,
) *EmbeddingReport {
	return &EmbeddingReport{
		questionnaire: questionnaire,
		registry:      registry,
		vectors:       vectors,
	}
}

func (r *EmbeddingReport) Write(ctx context.Context, w io.Writer) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := r.writeVectorSheet(ctx, f); err != nil {
		return err
	}
	if err := r.writeMarkerSheet(ctx, f); err != nil {
		return err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func (r *EmbeddingReport) writeVectorSheet(ctx context.Context, f *excelize.File) error {
	const sheet = "Scheme Vectors"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %q: %w", sheet, err)
	}

	sections, err := r.questionnaire.ListSections(ctx)
	if err != nil {
		return fmt.Errorf("list sections: %w", err)
	}
	header := []any{"Scheme Code"}
	for _, s := range sections {
		header = append(header, s.Name)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write vector header: %w", err)
	}

	vectors, err := r.vectors.AllSchemeVectors(ctx)
	if err != nil {
		return fmt.Errorf("load scheme vectors: %w", err)
	}
	codes := make([]string, 0, len(vectors))
	for code := range vectors {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for i, code := range codes {
		row := []any{code}
		for _, c := range vectors[code] {
			row = append(row, c)
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write vector row %q: %w", code, err)
		}
	}
	return nil
}

func (r *EmbeddingReport) writeMarkerSheet(ctx context.Context, f *excelize.File) error {
	const sheet = "Markers"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %q: %w", sheet, err)
	}

	header := []any{"Marker", "Section", "Kind", "Initial Weight", "Option Position", "Option", "Option Weight"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write marker header: %w", err)
	}

	markers, err := r.registry.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list markers: %w", err)
	}
	optionsByMarker, err := r.registry.OptionsByMarker(ctx)
	if err != nil {
		return fmt.Errorf("load marker options: %w", err)
	}

	rowIndex := 2
	for _, m := range markers {
		options := optionsByMarker[m.ID]
		if len(options) == 0 {
			row := []any{m.Name, m.SectionID, string(m.Kind), m.InitialWeight}
			if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", rowIndex), &row); err != nil {
				return fmt.Errorf("write marker row %q: %w", m.Name, err)
			}
			rowIndex++
			continue
		}
		for _, o := range options {
			row := []any{m.Name, m.SectionID, string(m.Kind), m.InitialWeight, o.Position, o.Label, o.Weight}
			if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", rowIndex), &row); err != nil {
				return fmt.Errorf("write marker row %q: %w", m.Name, err)
			}
			rowIndex++
		}
	}
	return nil
}
