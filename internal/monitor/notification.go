package monitor

import (
	"context"
	"fmt"
)

// StatusNotificationID is the fixed id of the status notification.
const StatusNotificationID = 1

// Notification content constants.
const (
	NotificationTitle            = "Wireless debugging is enabled"
	notificationTextFormat       = "Connected to %s at %s"
	NotificationTextDisconnected = "Not connected to a Wi-Fi network"
	ActionOpenMain               = "wirebug.action.OPEN_MAIN"
	CategoryStatus               = "status"
	VisibilityPublic             = "public"
)

// Notification is the full content of the status notification. It is always
// posted whole; there are no partial updates.
type Notification struct {
	Title      string `json:"title"`
	Body       string `json:"body"`
	Action     string `json:"action"`
	Ongoing    bool   `json:"ongoing"`
	Category   string `json:"category"`
	Visibility string `json:"visibility"`
}

// BuildNotification returns the status notification for info. The result
// depends on info alone, so identical inputs give identical content.
func BuildNotification(info ConnectivityInfo) Notification {
	body := NotificationTextDisconnected
	if info.Connected {
		body = fmt.Sprintf(notificationTextFormat, info.Label, info.Address)
	}

	return Notification{
		Title:      NotificationTitle,
		Body:       body,
		Action:     ActionOpenMain,
		Ongoing:    true,
		Category:   CategoryStatus,
		Visibility: VisibilityPublic,
	}
}

// NotificationPresenter shows and hides the single status notification.
type NotificationPresenter struct {
	notifier Notifier
}

// NewNotificationPresenter creates a presenter over notifier.
func NewNotificationPresenter(notifier Notifier) *NotificationPresenter {
	return &NotificationPresenter{notifier: notifier}
}

// Show posts n at StatusNotificationID, replacing whatever is there.
func (p *NotificationPresenter) Show(ctx context.Context, n Notification) error {
	if err := p.notifier.Post(ctx, StatusNotificationID, n); err != nil {
		return fmt.Errorf("monitor: showing notification: %w", err)
	}

	return nil
}

// Hide removes the status notification. No-op when it is not shown.
func (p *NotificationPresenter) Hide(ctx context.Context) error {
	if err := p.notifier.Cancel(ctx, StatusNotificationID); err != nil {
		return fmt.Errorf("monitor: hiding notification: %w", err)
	}

	return nil
}
