package contract

import "time"

// Role identifies one of the fixed reasoning agents in the resolution chain.
type Role string

const (
	RoleCoordinator Role = "coordinator"
	RoleAnalyst     Role = "analyst"
	RoleExecutor    Role = "executor"
	RoleNotifier    Role = "notifier"
)

// CaseID is the store-assigned identifier of a persisted case.
type CaseID string

type CaseStatus string

const (
	CaseStatusCreated   CaseStatus = "created"
	CaseStatusCompleted CaseStatus = "completed"
)

// ProcessingStatus returns the transient status recorded while the named
// agent is working a case.
func ProcessingStatus(agent string) CaseStatus {
	return CaseStatus("processing_" + agent)
}

// CaseFields are the identifying and descriptive fields extracted from a
// support transcript. CaseNumber, CustomerName and IssueDescription together
// identify a case for duplicate suppression.
type CaseFields struct {
	Organization     string `json:"organization"`
	CaseNumber       string `json:"case_number"`
	CustomerName     string `json:"customer_name"`
	IssueDescription string `json:"issue_description"`
	IssueDuration    string `json:"issue_duration"`
	RootCause        string `json:"root_cause"`
}

type LogAction string

const (
	ActionStart         LogAction = "processing_started"
	ActionAgentResponse LogAction = "agent_response"
	ActionAgentError    LogAction = "agent_error"
	ActionCompletion    LogAction = "completion"
)

// LogEntry is one record of the append-only processing log. Entries are
// totally ordered by append order; the log must be reconstructable into the
// exact transcript the agents saw.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Agent     string    `json:"agent"`
	Action    LogAction `json:"action"`
	Detail    string    `json:"detail"`
}

// Case is the durable record owned by the case store. Once Status reaches
// CaseStatusCompleted only the log may still grow.
type Case struct {
	ID                CaseID     `json:"id"`
	Fields            CaseFields `json:"fields"`
	Status            CaseStatus `json:"status"`
	ResolutionSummary string     `json:"resolution_summary"`
	Log               []LogEntry `json:"processing_log"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	CompletedAt       time.Time  `json:"completed_at,omitempty"`
}

// AgentResponse is one agent's contribution within a single pipeline run.
// It is not persisted; the log carries the durable trace.
type AgentResponse struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// KnowledgeHit is one retrieved prior-case excerpt, ordered by descending
// relevance.
type KnowledgeHit struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
}

// CaseSnapshot is the narrow read model returned by FetchResolution.
type CaseSnapshot struct {
	ID                CaseID `json:"id"`
	CaseNumber        string `json:"case_number"`
	CustomerName      string `json:"customer_name"`
	ResolutionSummary string `json:"resolution_summary"`
}
