package domain

// Unknown is shown in messages when a host attribute cannot be resolved.
const Unknown = "Unknown"

// Host identifies the machine in notifications.
type Host struct {
	Name     string
	PublicIP string
}
