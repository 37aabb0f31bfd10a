package api

import "positionScope/internal/model"

// ErrorResponse is returned for all errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// OwnerPositions lists the rendered positions of one owner.
type OwnerPositions struct {
	Owner string `json:"owner"`
	Total int64  `json:"total"`
	// Next is the offset of the following page, omitted on the last page.
	Next      int                  `json:"next,omitempty"`
	Positions []model.PositionView `json:"positions"`
	// Failed holds token ids that could not be rendered.
	Failed []string `json:"failed,omitempty"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status  string `json:"status"`
	Stables int    `json:"stables"`
	Bases   int    `json:"bases"`
}
