package roles

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	contractx "github.com/supportops/caseflow/pipeline/contract"
)

var (
	//go:embed template/coordinator.txt
	coordinatorRaw string

	//go:embed template/analyst.txt
	analystRaw string

	//go:embed template/executor.txt
	executorRaw string

	//go:embed template/notifier.txt
	notifierRaw string
)

// Definition is one entry of the closed role table: a fixed instruction
// template, the display name used in the transcript and the log, an optional
// fragment contributed to the template-based resolution summary, and whether
// the role's prompt gets retrieval augmentation.
type Definition struct {
	Role         contractx.Role
	DisplayName  string
	Instructions string
	// SummaryFragment is appended to the resolution summary when the role
	// produced a response. Empty means the role contributes no fragment.
	SummaryFragment string
	// Augmented marks the single role whose prompt is enriched with similar
	// historical cases before invocation.
	Augmented bool
}

var (
	mu       sync.RWMutex
	sequence = []Definition{
		{
			Role:         contractx.RoleCoordinator,
			DisplayName:  "Coordinator",
			Instructions: strings.TrimSpace(coordinatorRaw),
		},
		{
			Role:            contractx.RoleAnalyst,
			DisplayName:     "Analyst",
			Instructions:    strings.TrimSpace(analystRaw),
			SummaryFragment: "Our analysis identified the root cause and compared it with similar historical cases.",
			Augmented:       true,
		},
		{
			Role:            contractx.RoleExecutor,
			DisplayName:     "Executor",
			Instructions:    strings.TrimSpace(executorRaw),
			SummaryFragment: "Our technical team implemented a comprehensive solution with proper testing and monitoring.",
		},
		{
			Role:            contractx.RoleNotifier,
			DisplayName:     "Notifier",
			Instructions:    strings.TrimSpace(notifierRaw),
			SummaryFragment: "We've prepared detailed documentation and will provide ongoing support.",
		},
	}
)

// Sequence returns the role chain in invocation order. The order is fixed and
// never reordered within a run.
func Sequence() []Definition {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Definition, len(sequence))
	copy(out, sequence)
	return out
}

// Lookup returns the definition for a role.
func Lookup(role contractx.Role) (Definition, bool) {
	mu.RLock()
	defer mu.RUnlock()
	for _, def := range sequence {
		if def.Role == role {
			return def, true
		}
	}
	return Definition{}, false
}

// Register appends a role to the end of the chain. The four built-in roles
// cannot be replaced.
func Register(def Definition) error {
	if strings.TrimSpace(string(def.Role)) == "" {
		return fmt.Errorf("%w: role name is empty", contractx.ErrValidation)
	}
	if strings.TrimSpace(def.Instructions) == "" {
		return fmt.Errorf("%w: role %s has no instructions", contractx.ErrValidation, def.Role)
	}
	mu.Lock()
	defer mu.Unlock()
	for _, existing := range sequence {
		if existing.Role == def.Role {
			return fmt.Errorf("%w: role %s already registered", contractx.ErrValidation, def.Role)
		}
	}
	sequence = append(sequence, def)
	return nil
}
