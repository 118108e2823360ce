package event

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// NATSSink publishes each event as a JSON message on a subject
// derived from the task ID, so a downstream consumer can subscribe
// to "conclave.events.<task_id>" or wildcard across tasks with
// "conclave.events.*". Publish errors are swallowed: event sourcing
// is best-effort and must never fail the task it's observing.
type NATSSink struct {
	nc            *nats.Conn
	subjectPrefix string
}

// NewNATSSink connects to a NATS server and returns a sink that
// publishes under subjectPrefix (default "conclave.events" if
// empty).
func NewNATSSink(url, subjectPrefix string) (*NATSSink, error) {
	if subjectPrefix == "" {
		subjectPrefix = "conclave.events"
	}
	nc, err := nats.Connect(url, nats.Name("conclave"), nats.MaxReconnects(5))
	if err != nil {
		return nil, fmt.Errorf("connecting to nats at %s: %w", url, err)
	}
	return &NATSSink{nc: nc, subjectPrefix: subjectPrefix}, nil
}

func (s *NATSSink) Emit(e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	subject := fmt.Sprintf("%s.%s", s.subjectPrefix, e.TaskID)
	_ = s.nc.Publish(subject, data)
}

func (s *NATSSink) Close() error {
	if err := s.nc.Drain(); err != nil {
		s.nc.Close()
		return err
	}
	s.nc.Close()
	return nil
}
