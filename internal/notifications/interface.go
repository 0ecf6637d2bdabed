package notifications

import "github.com/facilisimo/sorteos/internal/models"

// NotificationInterface defines the contract for announcing raffle winners
type NotificationInterface interface {
	SendWinners(report *models.WinnersReport, pdf []byte) error
}
