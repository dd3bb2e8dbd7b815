package dto

import "cafe-pickup-service/internal/services"

type ImportResponse struct {
	Created      int                    `json:"created"`
	Rows         []services.ImportedRow `json:"rows"`
	IDs          []int64                `json:"ids"`
	SkippedCount int                    `json:"skipped_count"`
	Skipped      []services.SkippedRow  `json:"skipped"`
}

func FromImportReport(report *services.ImportReport) ImportResponse {
	return ImportResponse{
		Created:      report.Created,
		Rows:         report.Rows,
		IDs:          report.IDs,
		SkippedCount: len(report.Skipped),
		Skipped:      report.Skipped,
	}
}
