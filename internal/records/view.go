// Package records interprets medical record payloads for display. Content is
// either free text or a structured document, most commonly a lab-result map
// of test name to value.
package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go-healthcare-portal/internal/domain"
)

type Kind string

const (
	KindText       Kind = "text"
	KindLabResults Kind = "lab_results"
	KindStructured Kind = "structured"
	KindEmpty      Kind = "empty"
)

// LabResult is one row of a lab-result map.
type LabResult struct {
	Test           string `json:"test"`
	Value          string `json:"value"`
	Unit           string `json:"unit,omitempty"`
	ReferenceRange string `json:"reference_range,omitempty"`
	Flag           string `json:"flag,omitempty"`
	Abnormal       bool   `json:"abnormal"`
}

// View is the display form of a record's content.
type View struct {
	Kind Kind        `json:"kind"`
	Text string      `json:"text,omitempty"`
	Labs []LabResult `json:"labs,omitempty"`
}

// Classify decides how a content payload should be rendered.
func Classify(content json.RawMessage) View {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return View{Kind: KindEmpty}
	}

	var decoded interface{}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		// Legacy rows hold raw text that was never JSON encoded.
		return View{Kind: KindText, Text: string(trimmed)}
	}

	switch v := decoded.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return View{Kind: KindEmpty}
		}
		return View{Kind: KindText, Text: v}
	case map[string]interface{}:
		if labs, ok := labRows(v); ok {
			return View{Kind: KindLabResults, Labs: labs}
		}
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, trimmed, "", "  "); err != nil {
		return View{Kind: KindText, Text: string(trimmed)}
	}
	return View{Kind: KindStructured, Text: pretty.String()}
}

// labRows converts a map into lab rows. Every entry must look like a
// measurement, otherwise the map is not a lab-result map.
func labRows(m map[string]interface{}) ([]LabResult, bool) {
	if len(m) == 0 {
		return nil, false
	}
	rows := make([]LabResult, 0, len(m))
	for test, raw := range m {
		row, ok := labRow(test, raw)
		if !ok {
			return nil, false
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return strings.ToLower(rows[i].Test) < strings.ToLower(rows[j].Test)
	})
	return rows, true
}

func labRow(test string, raw interface{}) (LabResult, bool) {
	row := LabResult{Test: test}
	switch v := raw.(type) {
	case json.Number:
		row.Value = v.String()
		return row, true
	case string:
		if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err != nil {
			return row, false
		}
		row.Value = strings.TrimSpace(v)
		return row, true
	case map[string]interface{}:
		value, ok := v["value"]
		if !ok {
			return row, false
		}
		switch n := value.(type) {
		case json.Number:
			row.Value = n.String()
		case string:
			row.Value = n
		default:
			return row, false
		}
		row.Unit = stringField(v, "unit")
		row.ReferenceRange = stringField(v, "reference_range")
		if row.ReferenceRange == "" {
			row.ReferenceRange = stringField(v, "range")
		}
		row.Flag = stringField(v, "flag")
		row.Abnormal = isAbnormal(row)
		return row, true
	default:
		return row, false
	}
}

func stringField(m map[string]interface{}, key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func isAbnormal(row LabResult) bool {
	switch strings.ToLower(row.Flag) {
	case "h", "l", "high", "low", "abnormal", "critical":
		return true
	case "n", "normal":
		return false
	}
	low, high, ok := parseRange(row.ReferenceRange)
	if !ok {
		return false
	}
	value, err := strconv.ParseFloat(row.Value, 64)
	if err != nil {
		return false
	}
	return value < low || value > high
}

// parseRange reads ranges written as "3.5-5.0", "3.5 - 5.0" or with
// negative bounds such as "-2 - 2" and "-5--1". The separator is the first
// dash that follows a digit.
func parseRange(r string) (float64, float64, bool) {
	r = strings.TrimSpace(r)
	sep := -1
	for i := 1; i < len(r); i++ {
		if r[i] != '-' {
			continue
		}
		prev := strings.TrimRight(r[:i], " ")
		if prev == "" {
			continue
		}
		if c := prev[len(prev)-1]; (c >= '0' && c <= '9') || c == '.' {
			sep = i
			break
		}
	}
	if sep < 0 {
		return 0, 0, false
	}
	low, err := strconv.ParseFloat(strings.TrimSpace(r[:sep]), 64)
	if err != nil {
		return 0, 0, false
	}
	high, err := strconv.ParseFloat(strings.TrimSpace(r[sep+1:]), 64)
	if err != nil {
		return 0, 0, false
	}
	if low > high {
		return 0, 0, false
	}
	return low, high, true
}

// Category groups records of one type for display.
type Category struct {
	Type    domain.RecordType      `json:"type"`
	Label   string                 `json:"label"`
	Records []domain.MedicalRecord `json:"records"`
}

var categoryLabels = map[domain.RecordType]string{
	domain.RecordNote:         "Clinical Notes",
	domain.RecordLabResult:    "Lab Results",
	domain.RecordPrescription: "Prescriptions",
	domain.RecordImaging:      "Imaging",
	domain.RecordOther:        "Other",
}

// Categorize groups records by type in display order, newest first within a
// group. Unknown types land in "other"; empty groups are omitted.
func Categorize(list []domain.MedicalRecord) []Category {
	byType := make(map[domain.RecordType][]domain.MedicalRecord)
	for _, r := range list {
		t := r.RecordType
		if !t.IsValid() {
			t = domain.RecordOther
		}
		byType[t] = append(byType[t], r)
	}

	var out []Category
	for _, t := range domain.RecordTypeOrder() {
		group := byType[t]
		if len(group) == 0 {
			continue
		}
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].CreatedAt.After(group[j].CreatedAt)
		})
		out = append(out, Category{Type: t, Label: categoryLabels[t], Records: group})
	}
	return out
}

// Summary is a one-line description of a record, used in notifications and
// exports.
func Summary(r domain.MedicalRecord) string {
	v := Classify(r.Content)
	switch v.Kind {
	case KindLabResults:
		abnormal := 0
		for _, l := range v.Labs {
			if l.Abnormal {
				abnormal++
			}
		}
		return fmt.Sprintf("%d lab values, %d flagged", len(v.Labs), abnormal)
	case KindText:
		text := strings.Join(strings.Fields(v.Text), " ")
		if len([]rune(text)) > 120 {
			return string([]rune(text)[:117]) + "..."
		}
		return text
	case KindEmpty:
		return "(empty)"
	default:
		return "Structured record"
	}
}
