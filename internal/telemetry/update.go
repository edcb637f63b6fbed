package telemetry

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// MessageNetworkUpdate tags the per-tick snapshot pushed to viewers.
const MessageNetworkUpdate = "network_update"

// NetworkUpdate is the streaming payload sent once per tick.
type NetworkUpdate struct {
	Type      string    `json:"type"`
	Nodes     []Node    `json:"nodes"`
	Timestamp time.Time `json:"timestamp"`
}

// NewNetworkUpdate wraps a node snapshot taken at ts.
func NewNetworkUpdate(nodes []Node, ts time.Time) NetworkUpdate {
	if nodes == nil {
		nodes = []Node{}
	}
	return NetworkUpdate{Type: MessageNetworkUpdate, Nodes: nodes, Timestamp: ts.UTC()}
}

//go:embed network_update.schema.json
var networkUpdateSchema []byte

var (
	updateSchemaOnce sync.Once
	updateSchema     *jsonschema.Schema
	updateSchemaErr  error
)

func compiledUpdateSchema() (*jsonschema.Schema, error) {
	updateSchemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("network_update.schema.json", bytes.NewReader(networkUpdateSchema)); err != nil {
			updateSchemaErr = fmt.Errorf("load network update schema: %w", err)
			return
		}
		updateSchema, updateSchemaErr = c.Compile("network_update.schema.json")
	})
	return updateSchema, updateSchemaErr
}

// ValidateUpdate checks a raw network_update message against its JSON schema.
func ValidateUpdate(raw []byte) error {
	sch, err := compiledUpdateSchema()
	if err != nil {
		return err
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode network update: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("invalid network update: %w", err)
	}
	return nil
}
