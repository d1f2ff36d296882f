package security

import (
	"time"

	"github.com/google/uuid"

	"go.uber.org/zap"
)

const maxAuditEntries = 100

// SecurityEvent is one entry of the local audit trail.
type SecurityEvent struct {
	ID        string                 `json:"id"`
	Event     string                 `json:"event"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// LogSecurityEvent sanitizes all string fields in details recursively,
// appends to the capped local audit trail and emits to the structured
// log sink.
func (s *service) LogSecurityEvent(event string, details map[string]interface{}) {
	sanitized := sanitizeDetails(details)

	entry := SecurityEvent{
		ID:        uuid.NewString(),
		Event:     event,
		Details:   sanitized,
		Timestamp: s.clock.Now(),
	}

	s.mu.Lock()
	s.audit = append(s.audit, entry)
	if len(s.audit) > maxAuditEntries {
		s.audit = s.audit[len(s.audit)-maxAuditEntries:]
	}
	s.mu.Unlock()

	s.logger.Info("security event",
		zap.String("event", event),
		zap.Any("details", sanitized),
	)
	s.collector.RecordSecurityEvent(event)
}

// AuditTrail returns a copy of the local audit trail, newest last.
func (s *service) AuditTrail() []SecurityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SecurityEvent, len(s.audit))
	copy(out, s.audit)
	return out
}

func sanitizeDetails(details map[string]interface{}) map[string]interface{} {
	if details == nil {
		return nil
	}
	out := make(map[string]interface{}, len(details))
	for k, v := range details {
		out[k] = sanitizeValue(v)
	}
	return out
}

func sanitizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		return sanitizeDetailString(val)
	case map[string]interface{}:
		return sanitizeDetails(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = sanitizeValue(item)
		}
		return out
	default:
		return v
	}
}
