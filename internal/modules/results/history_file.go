package results

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/aristath/optibench/internal/modules/algorithms"
)

// historyItemRecord is the JSON form of a history item. An infinite
// infeasibility measure is stored as null, since JSON has no Infinity
// literal.
type historyItemRecord struct {
	Performance   float64  `json:"performance"`
	Infeasibility *float64 `json:"infeasibility"`
	Unsatisfied   *int     `json:"n_unsatisfied_constraints,omitempty"`
}

// historyRecord is the JSON form of a performance history file.
type historyRecord struct {
	Problem       string                    `json:"problem,omitempty"`
	Configuration *algorithms.Configuration `json:"algorithm_configuration,omitempty"`
	DOESize       int                       `json:"DOE_size,omitempty"`
	ExecutionTime float64                   `json:"execution_time,omitempty"`
	Items         []historyItemRecord       `json:"history_items"`
}

// ToFile saves the history as a JSON file.
func (h *PerformanceHistory) ToFile(path string) error {
	record := historyRecord{
		Problem:       h.ProblemName,
		Configuration: h.AlgorithmConfiguration,
		DOESize:       h.DOESize,
		ExecutionTime: h.ExecutionTime,
		Items:         make([]historyItemRecord, len(h.Items)),
	}
	for i, item := range h.Items {
		record.Items[i] = itemToRecord(item)
	}
	data, err := json.MarshalIndent(record, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode performance history: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write performance history: %w", err)
	}
	return nil
}

// FromFile loads a performance history from a JSON file. Files holding a bare
// item list, the format of early history files, are accepted as well.
func FromFile(path string) (*PerformanceHistory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read performance history: %w", err)
	}
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		var items []historyItemRecord
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("failed to decode performance history %s: %w", path, err)
		}
		return historyFromItemRecords(items, &PerformanceHistory{})
	}

	var record historyRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode performance history %s: %w", path, err)
	}
	history := &PerformanceHistory{
		ProblemName:            record.Problem,
		AlgorithmConfiguration: record.Configuration,
		DOESize:                record.DOESize,
		ExecutionTime:          record.ExecutionTime,
	}
	return historyFromItemRecords(record.Items, history)
}

func itemToRecord(item HistoryItem) historyItemRecord {
	record := historyItemRecord{Performance: item.PerformanceMeasure}
	if !math.IsInf(item.InfeasibilityMeasure, 1) {
		infeasibility := item.InfeasibilityMeasure
		record.Infeasibility = &infeasibility
	}
	if item.UnsatisfiedConstraints != UnknownConstraints {
		unsatisfied := item.UnsatisfiedConstraints
		record.Unsatisfied = &unsatisfied
	}
	return record
}

func historyFromItemRecords(
	records []historyItemRecord, history *PerformanceHistory,
) (*PerformanceHistory, error) {
	history.Items = make([]HistoryItem, 0, len(records))
	for _, record := range records {
		infeasibility := math.Inf(1)
		if record.Infeasibility != nil {
			infeasibility = *record.Infeasibility
		}
		unsatisfied := UnknownConstraints
		if record.Unsatisfied != nil {
			unsatisfied = *record.Unsatisfied
		} else if infeasibility == 0 {
			unsatisfied = 0
		}
		item, err := NewConstrainedHistoryItem(record.Performance, infeasibility, unsatisfied)
		if err != nil {
			return nil, err
		}
		history.Items = append(history.Items, item)
	}
	return history, nil
}
