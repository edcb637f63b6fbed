package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"netwatch-sim/internal/telemetry"
)

// ReplayLog replays network_update lines from r to writer. Every line is
// checked against the network_update schema first. A speed >0 accelerates
// playback; if speed <= 0, no artificial delay is inserted.
func ReplayLog(r io.Reader, writer TelemetryWriter, speed float64) error {
	dec := json.NewDecoder(r)
	var prev time.Time
	for line := 1; ; line++ {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("update %d: %w", line, err)
		}
		if err := telemetry.ValidateUpdate(raw); err != nil {
			return fmt.Errorf("update %d: %w", line, err)
		}
		var u telemetry.NetworkUpdate
		if err := json.Unmarshal(raw, &u); err != nil {
			return fmt.Errorf("update %d: %w", line, err)
		}
		if !prev.IsZero() && speed > 0 {
			diff := u.Timestamp.Sub(prev)
			if speed != 1 {
				diff = time.Duration(float64(diff) / speed)
			}
			if diff > 0 {
				time.Sleep(diff)
			}
		}
		if err := writeNodes(writer, u.Nodes); err != nil {
			return err
		}
		prev = u.Timestamp
	}
}

// ReplayLogFile opens a file and replays its network updates.
func ReplayLogFile(path string, writer TelemetryWriter, speed float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ReplayLog(f, writer, speed)
}
