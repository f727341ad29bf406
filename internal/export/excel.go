// Package export writes the candidate dashboard into an Excel workbook.
package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/spigell/ai-interviewer/internal/candidates"
)

const (
	CandidatesSheet = "Candidates"
	AnswersSheet    = "Answers"
)

var (
	candidateHeader = []any{"Rank", "Name", "Email", "Phone", "Score", "Completed", "Summary", "Session ID"}
	answerHeader    = []any{"Session ID", "Candidate", "#", "Difficulty", "Question", "Answer", "Score", "Feedback", "Late"}
)

// Write renders the workbook for list into w. Candidates are written in the given order.
func Write(w io.Writer, list []candidates.Candidate) error {
	f, err := build(list)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteFile saves the workbook to path, adding the .xlsx extension when missing.
func WriteFile(path string, list []candidates.Candidate) (string, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	path = filepath.Clean(path)

	f, err := build(list)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return path, nil
}

func build(list []candidates.Candidate) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", CandidatesSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(AnswersSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("create answers sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := writeCandidates(f, headerStyle, list); err != nil {
		f.Close()
		return nil, fmt.Errorf("fill candidates sheet: %w", err)
	}
	if err := writeAnswers(f, headerStyle, list); err != nil {
		f.Close()
		return nil, fmt.Errorf("fill answers sheet: %w", err)
	}

	return f, nil
}

func writeCandidates(f *excelize.File, headerStyle int, list []candidates.Candidate) error {
	if err := writeHeader(f, CandidatesSheet, headerStyle, candidateHeader); err != nil {
		return err
	}

	for i, c := range list {
		row := []any{i + 1, c.Name, c.Email, c.Phone, c.Score, yesNo(c.Completed), c.Summary, c.SessionID}
		if err := setRow(f, CandidatesSheet, i+2, row); err != nil {
			return err
		}
	}

	widths := map[string]float64{"A": 6, "B": 25, "C": 30, "D": 18, "E": 8, "F": 11, "G": 80, "H": 38}
	return setWidths(f, CandidatesSheet, widths)
}

func writeAnswers(f *excelize.File, headerStyle int, list []candidates.Candidate) error {
	if err := writeHeader(f, AnswersSheet, headerStyle, answerHeader); err != nil {
		return err
	}

	row := 2
	for _, c := range list {
		for n, qa := range c.Answers {
			answer, score := "", any("")
			if qa.Answer != nil {
				answer = *qa.Answer
			}
			if qa.Score != nil {
				score = *qa.Score
			}

			values := []any{c.SessionID, c.Name, n + 1, string(qa.Difficulty), qa.Question, answer, score, qa.Feedback, yesNo(qa.Late)}
			if err := setRow(f, AnswersSheet, row, values); err != nil {
				return err
			}
			row++
		}
	}

	widths := map[string]float64{"A": 38, "B": 25, "C": 5, "D": 11, "E": 60, "F": 60, "G": 8, "H": 40, "I": 6}
	return setWidths(f, AnswersSheet, widths)
}

func writeHeader(f *excelize.File, sheet string, style int, header []any) error {
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}

	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func setWidths(f *excelize.File, sheet string, widths map[string]float64) error {
	for col, width := range widths {
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
