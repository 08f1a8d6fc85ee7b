package access

import (
	"fmt"
	"net/http"
	"time"
)

// Actuator triggers the physical unlock behind a resource.
type Actuator interface {
	Unlock(url string) error
}

// defaultActuatorTimeout bounds the unlock request; a reader standing at
// a door should not wait longer than this.
const defaultActuatorTimeout = 5 * time.Second

// HTTPActuator unlocks by posting to the resource's endpoint.
type HTTPActuator struct {
	client *http.Client
}

// NewHTTPActuator creates the default actuator. A zero timeout selects
// the default.
func NewHTTPActuator(timeout time.Duration) *HTTPActuator {
	if timeout <= 0 {
		timeout = defaultActuatorTimeout
	}

	return &HTTPActuator{client: &http.Client{Timeout: timeout}}
}

// Unlock implements Actuator.
func (a *HTTPActuator) Unlock(url string) error {
	resp, err := a.client.Post(url, "text/plain", http.NoBody)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("actuator returned %s", resp.Status)
	}

	return nil
}
