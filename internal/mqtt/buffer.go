package mqtt

import log "github.com/sirupsen/logrus"

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// backlog holds messages published while the broker is unreachable.
// When full it evicts the oldest QoS 0 telemetry so health and lifecycle
// events outlive a long outage. Telemetry arriving at a backlog of nothing
// but events is dropped; an event arriving there evicts the oldest event.
//
// Not safe for concurrent use; RealPublisher holds its mutex around every call.
type backlog struct {
	msgs     []bufferedMsg
	capacity int
	overflow bool // warned since the last drain
	dropped  int
}

func newBacklog(capacity int) *backlog {
	return &backlog{capacity: capacity}
}

func (b *backlog) push(msg bufferedMsg) {
	if b.capacity <= 0 {
		b.dropped++
		return
	}
	if len(b.msgs) == b.capacity {
		if !b.overflow {
			log.Warnf("mqtt: backlog full (%d messages), dropping oldest telemetry", b.capacity)
			b.overflow = true
		}
		b.dropped++
		victim := b.oldestTelemetry()
		if victim < 0 {
			if msg.qos == 0 {
				return
			}
			victim = 0
		}
		b.msgs = append(b.msgs[:victim], b.msgs[victim+1:]...)
	}
	b.msgs = append(b.msgs, msg)
}

// oldestTelemetry returns the index of the oldest QoS 0 message, or -1.
func (b *backlog) oldestTelemetry() int {
	for i, m := range b.msgs {
		if m.qos == 0 {
			return i
		}
	}
	return -1
}

// drainAll returns the queued messages oldest first and empties the backlog.
func (b *backlog) drainAll() []bufferedMsg {
	if len(b.msgs) == 0 {
		return nil
	}
	out := b.msgs
	b.msgs = nil
	b.overflow = false
	return out
}

func (b *backlog) len() int { return len(b.msgs) }

func (b *backlog) droppedTotal() int { return b.dropped }
