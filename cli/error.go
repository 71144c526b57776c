package cli

import "fmt"

// StatusError reports an unsuccessful exit by a command. Status is printed
// to stderr, StatusCode becomes the exit code of nsrun.
type StatusError struct {
	Status     string
	StatusCode int
}

func (e StatusError) Error() string {
	return fmt.Sprintf("Status: %s, Code: %d", e.Status, e.StatusCode)
}
