// Package host bundles the runtime capabilities the core components read
// instead of process-wide state.
package host

import "campus-events/internal/alert"

// Signals reports the two runtime flags the components depend on.
type Signals interface {
	Online() bool
	AlertPermission() alert.Permission
}

type online interface {
	Online() bool
}

// Runtime is the production Signals: connectivity comes from the monitor,
// permission from the alert notifier.
type Runtime struct {
	Connectivity online
	Notifier     alert.Notifier
}

func (r Runtime) Online() bool {
	return r.Connectivity.Online()
}

func (r Runtime) AlertPermission() alert.Permission {
	return r.Notifier.Permission()
}

// Static is a fixed Signals value, handy in tests and one-off tools.
type Static struct {
	IsOnline   bool
	Permission alert.Permission
}

func (s *Static) Online() bool                      { return s.IsOnline }
func (s *Static) AlertPermission() alert.Permission { return s.Permission }
