package assets

import "fmt"

// ExternalServiceError reports a failed or refused call to the asset service.
type ExternalServiceError struct {
	Op     string
	Status string
	Detail string
}

func (e *ExternalServiceError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("asset service %s failed: %s", e.Op, e.Status)
	}
	return fmt.Sprintf("asset service %s failed: %s: %s", e.Op, e.Status, e.Detail)
}
