package mqtt

import "log"

// bufferedMsg is a serialized message waiting for the broker connection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer holds messages published while disconnected, oldest first.
// When full the oldest message is dropped. A retained message replaces an
// earlier buffered retained message on the same topic, since the broker would
// only keep the newest. Callers synchronize access.
type ringBuffer struct {
	slots   []bufferedMsg
	head    int // next write position
	count   int
	dropped int // messages lost since the last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{slots: make([]bufferedMsg, capacity)}
}

func (r *ringBuffer) index(i int) int {
	n := len(r.slots)
	return (r.head - r.count + i + n) % n
}

func (r *ringBuffer) push(msg bufferedMsg) {
	if msg.retained {
		for i := 0; i < r.count; i++ {
			j := r.index(i)
			if r.slots[j].retained && r.slots[j].topic == msg.topic {
				r.slots[j] = msg
				return
			}
		}
	}

	if r.count == len(r.slots) {
		if r.dropped == 0 {
			log.Printf("mqtt: offline buffer full (%d messages), dropping oldest", len(r.slots))
		}
		r.dropped++
		r.count--
	}
	r.slots[r.head] = msg
	r.head = (r.head + 1) % len(r.slots)
	r.count++
}

// drainAll returns the buffered messages oldest first and the number dropped,
// then empties the buffer.
func (r *ringBuffer) drainAll() ([]bufferedMsg, int) {
	dropped := r.dropped
	var out []bufferedMsg
	if r.count > 0 {
		out = make([]bufferedMsg, r.count)
		for i := range out {
			out[i] = r.slots[r.index(i)]
		}
	}
	r.head, r.count, r.dropped = 0, 0, 0
	return out, dropped
}

func (r *ringBuffer) len() int {
	return r.count
}
