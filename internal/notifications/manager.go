// Package notifications handles system notifications for elevated risk
package notifications

import (
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/AreTaj/Migraine-Navigator/internal/models"
)

// Alert type constants
const (
	alertHighRisk     = "high_risk"
	alertModerateRisk = "moderate_risk"
)

// Manager sends desktop alerts when a forecast crosses into elevated risk.
// Repeated alerts for the same level are suppressed within the cooldown.
type Manager struct {
	cooldown      time.Duration
	alertModerate bool
	lastAlertTime map[string]time.Time
	mu            sync.Mutex

	// notify is swappable in tests.
	notify func(title, message string) error
}

// NewManager creates a notification manager. alertModerate controls whether
// Moderate forecasts alert too; High always does.
func NewManager(cooldown time.Duration, alertModerate bool) *Manager {
	return &Manager{
		cooldown:      cooldown,
		alertModerate: alertModerate,
		lastAlertTime: make(map[string]time.Time),
		notify: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

// CheckAndNotify sends an alert for the prediction if its risk level
// warrants one and the cooldown for that level has passed.
func (m *Manager) CheckAndNotify(result *models.PredictionResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	alertType := m.shouldAlert(result)
	if alertType == "" {
		return nil
	}

	if lastTime, ok := m.lastAlertTime[alertType]; ok {
		if time.Since(lastTime) < m.cooldown {
			return nil
		}
	}

	title, message := formatNotification(result, alertType)
	if err := m.notify(title, message); err != nil {
		return err
	}

	m.lastAlertTime[alertType] = time.Now()
	return nil
}

// shouldAlert determines if an alert should be sent
func (m *Manager) shouldAlert(result *models.PredictionResult) string {
	switch result.RiskLevel {
	case models.RiskHigh:
		return alertHighRisk
	case models.RiskModerate:
		if m.alertModerate {
			return alertModerateRisk
		}
	}
	return ""
}

// formatNotification creates the notification title and message
func formatNotification(result *models.PredictionResult, alertType string) (string, string) {
	var title string
	switch alertType {
	case alertHighRisk:
		title = "⚠️ High Migraine Risk"
	case alertModerateRisk:
		title = "⬆️ Elevated Migraine Risk"
	}
	message := fmt.Sprintf("Risk for %s: %.1f%% (%s)", result.Date, result.Probability, result.RiskLevel)
	return title, message
}

// ClearAlertState resets the cooldown for a specific alert type, or all
// types when empty.
func (m *Manager) ClearAlertState(alertType string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if alertType == "" {
		m.lastAlertTime = make(map[string]time.Time)
	} else {
		delete(m.lastAlertTime, alertType)
	}
}

// SendTestNotification sends a test notification
func (m *Manager) SendTestNotification() error {
	return m.notify("Migraine Navigator", "Test notification - alerts are working!")
}
