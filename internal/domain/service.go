package domain

// ServiceState is the state of a unit as reported by the service manager.
type ServiceState int

const (
	ServiceStateUnknown ServiceState = iota
	ServiceStateRunning
	ServiceStateStopped
)

func (s ServiceState) String() string {
	switch s {
	case ServiceStateRunning:
		return "running"
	case ServiceStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
