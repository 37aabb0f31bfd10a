package storage

import "positionScope/internal/model"

// Storage defines a sink for rendered positions.
type Storage interface {
	PutViews(views []model.PositionView) error
}
