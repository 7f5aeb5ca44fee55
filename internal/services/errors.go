package services

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/traincheck/timetable-backend/internal/models"
)

// storeError passes structured errors through and classifies everything
// else as StoreUnavailable
func storeError(logger *logrus.Logger, operation string, err error) error {
	if se, ok := models.AsServiceError(err); ok {
		return se
	}
	logger.WithError(err).WithField("operation", operation).Error("Store call failed")
	return models.NewStoreUnavailable(fmt.Sprintf("failed to %s", operation), err)
}
