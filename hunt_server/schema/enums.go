package schema

import "fmt"

const (
	Organizer   = "ORGANIZER"
	Facilitator = "FACILITATOR"
)

// UnityActor is recorded as the actor of log entries written on behalf of the
// AR client, which authenticates with the shared secret rather than a session.
const UnityActor = "Unity"

func CheckValidLevel(level string) error {
	if level != Organizer && level != Facilitator {
		return fmt.Errorf("invalid user level '%v', must be '%v' or '%v'", level, Organizer, Facilitator)
	}
	return nil
}
