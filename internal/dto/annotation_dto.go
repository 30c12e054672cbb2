package dto

import "pdf-annotator-be/pkg/annotation"

// ToggleRequest is a click on a rendered page image. X and Y are pixels on
// the raster served by the page image endpoint.
type ToggleRequest struct {
	PageNum *int     `json:"page_num" validate:"required"`
	X       *float64 `json:"x" validate:"required"`
	Y       *float64 `json:"y" validate:"required"`
	Type    string   `json:"type" validate:"required"`
}

type ToggleResponse struct {
	Status string             `json:"status"`
	Action annotation.Action  `json:"action"`
	Counts annotation.Counts  `json:"counts"`
	Record *annotation.Record `json:"record,omitempty"`
}

type UploadResponse struct {
	PageCount int                         `json:"page_count"`
	Pages     []annotation.PageDescriptor `json:"pages"`
}

type WorkspaceResponse struct {
	PageCount     int                         `json:"page_count"`
	Pages         []annotation.PageDescriptor `json:"pages"`
	PageImageURLs []string                    `json:"page_image_urls"`
	Annotations   []annotation.Record         `json:"annotations"`
	Counts        annotation.Counts           `json:"counts"`
	Tolerance     float64                     `json:"tolerance"`
}

// ExportResult is the downloadable artifact plus the non-fatal problems met
// while building it.
type ExportResult struct {
	Data     []byte
	Filename string
	Applied  int
	Warnings []annotation.Warning
}
