// Package diagnosis assembles network context for free-text questions and
// forwards them to a language model.
package diagnosis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"netwatch-sim/internal/logging"
	"netwatch-sim/internal/store"
	"netwatch-sim/internal/telemetry"
)

const (
	alertFetchLimit = 20
	contextNodes    = 10
	contextAlerts   = 5
)

// Assembler answers diagnosis queries from the current store contents.
type Assembler struct {
	store store.Store
	llm   LLMClient
	now   func() time.Time
}

// NewAssembler returns an Assembler reading from st and asking llm.
func NewAssembler(st store.Store, llm LLMClient) *Assembler {
	return &Assembler{store: st, llm: llm, now: time.Now}
}

// Diagnose builds the network context, asks the model and persists the
// exchange. The model's answer is returned verbatim.
func (a *Assembler) Diagnose(ctx context.Context, query string, extra map[string]any) (string, error) {
	nodes, err := a.store.ListNodes(ctx, 0)
	if err != nil {
		return "", fmt.Errorf("list nodes: %w", err)
	}
	alerts, err := a.store.UnresolvedAlerts(ctx, alertFetchLimit)
	if err != nil {
		return "", fmt.Errorf("list alerts: %w", err)
	}
	prompt, err := BuildContext(nodes, alerts, extra)
	if err != nil {
		return "", err
	}
	prompt += "\n\nUser Query: " + query + "\n\nPlease provide a detailed analysis and recommendations."

	response, err := a.llm.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	chat := telemetry.ChatExchange{
		ID:        uuid.NewString(),
		Message:   query,
		Response:  response,
		Timestamp: a.now().UTC(),
	}
	if err := a.store.InsertChat(ctx, chat); err != nil {
		return "", fmt.Errorf("store chat: %w", err)
	}
	logging.FromContext(ctx).Debug("diagnosis answered", "nodes", len(nodes), "alerts", len(alerts))
	return response, nil
}

// BuildContext renders the network summary sent ahead of the user query.
func BuildContext(nodes []telemetry.Node, alerts []telemetry.Alert, extra map[string]any) (string, error) {
	var b strings.Builder
	b.WriteString("\nCurrent Network Status:\n")
	fmt.Fprintf(&b, "Nodes: %d total\n", len(nodes))
	fmt.Fprintf(&b, "Active Alerts: %d\n", len(alerts))
	b.WriteString("\nRecent Network Metrics:\n")
	for i, n := range nodes {
		if i == contextNodes {
			break
		}
		fmt.Fprintf(&b, "- %s (%s): Status=%s, CPU=%.1f%%, Memory=%.1f%%, Latency=%.1fms\n",
			n.Name, n.Type, n.Status, n.CPU, n.Memory, n.Latency)
	}
	if len(alerts) > 0 {
		b.WriteString("\nActive Alerts:\n")
		for i, a := range alerts {
			if i == contextAlerts {
				break
			}
			fmt.Fprintf(&b, "- %s (Severity: %s)\n", a.Message, a.Severity)
		}
	}
	if len(extra) > 0 {
		raw, err := json.Marshal(extra)
		if err != nil {
			return "", fmt.Errorf("marshal additional context: %w", err)
		}
		fmt.Fprintf(&b, "\nAdditional Context: %s\n", raw)
	}
	return b.String(), nil
}
