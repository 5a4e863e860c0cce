package writer

import (
	"fmt"

	"anubis/internal/artifact"
)

func errUnknownPolicy(p artifact.Policy) error {
	return fmt.Errorf("unknown policy %d", int(p))
}
