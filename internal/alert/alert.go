// Package alert is the permission-gated facility that delivers reminders to people.
package alert

import (
	"context"
	"log/slog"
	"sync"
)

type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	// PermissionDefault means permission has not been requested yet.
	PermissionDefault Permission = "default"
)

type Alert struct {
	Title string
	Body  string
	// Tag identifies the subject of the alert, the event id for reminders.
	Tag string
}

type Notifier interface {
	Permission() Permission
	// RequestPermission asks once. Later calls return the settled answer.
	RequestPermission(ctx context.Context) (Permission, error)
	// Emit delivers a. Without permission the alert is dropped, not failed.
	Emit(ctx context.Context, a Alert) error
}

// Log writes alerts to the structured log. Whether permission is granted is
// decided by configuration.
type Log struct {
	log     *slog.Logger
	enabled bool

	mu   sync.Mutex
	perm Permission
}

func NewLog(log *slog.Logger, enabled bool) *Log {
	return &Log{log: log, enabled: enabled, perm: PermissionDefault}
}

func (l *Log) Permission() Permission {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.perm
}

func (l *Log) RequestPermission(context.Context) (Permission, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.perm == PermissionDefault {
		l.perm = PermissionDenied
		if l.enabled {
			l.perm = PermissionGranted
		}
	}
	return l.perm, nil
}

func (l *Log) Emit(ctx context.Context, a Alert) error {
	if l.Permission() != PermissionGranted {
		l.log.WarnContext(ctx, "alert suppressed, permission not granted", "tag", a.Tag)
		return nil
	}
	l.log.InfoContext(ctx, a.Title, "body", a.Body, "tag", a.Tag)
	return nil
}
