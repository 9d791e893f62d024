package triage

// Symptoms is the structured output of the external extraction service.
// All fields are optional; the extraction is untrusted and possibly partial.
type Symptoms struct {
	Symptoms     []string `json:"symptoms"`
	Age          *int     `json:"age,omitempty"`
	DurationDays *int     `json:"duration_days,omitempty"`
	Severity     *string  `json:"severity,omitempty"` // mild, moderate, severe
}

// Defaults applied when the extraction omits optional fields.
const (
	DefaultAge          = 30
	DefaultDurationDays = 1
	DefaultSeverity     = "mild"
)

// AgeOrDefault returns the reported age, or DefaultAge when absent.
func (s *Symptoms) AgeOrDefault() int {
	if s == nil || s.Age == nil {
		return DefaultAge
	}
	return *s.Age
}

// DurationOrDefault returns the reported duration in days, or DefaultDurationDays.
func (s *Symptoms) DurationOrDefault() int {
	if s == nil || s.DurationDays == nil {
		return DefaultDurationDays
	}
	return *s.DurationDays
}

// SeverityOrDefault returns the reported subjective severity, or DefaultSeverity.
func (s *Symptoms) SeverityOrDefault() string {
	if s == nil || s.Severity == nil || *s.Severity == "" {
		return DefaultSeverity
	}
	return *s.Severity
}
