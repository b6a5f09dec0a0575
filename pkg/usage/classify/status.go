package classify

// Status is the qualitative consumption level of a quota window or budget.
//
// The zero value is StatusGray ("not applicable"). The remaining levels are
// ordered by severity: StatusGreen < StatusOrange < StatusRed, so numeric
// comparison expresses "at least as severe as".
type Status int

const (
	// StatusGray means no active window, or a disabled/misconfigured budget.
	StatusGray Status = iota

	// StatusGreen means consumption is at or below the pace of time.
	StatusGreen

	// StatusOrange means consumption is up to 50% faster than pace.
	StatusOrange

	// StatusRed means consumption is more than 50% faster than pace,
	// or the quota is already exhausted.
	StatusRed
)

// String returns the stable identifier for the status level. Callers use
// these identifiers to key display styling; they are part of the API
// contract and never change.
func (s Status) String() string {
	switch s {
	case StatusGreen:
		return "green"
	case StatusOrange:
		return "orange"
	case StatusRed:
		return "red"
	default:
		return "gray"
	}
}

// MarshalText implements encoding.TextMarshaler so statuses serialize as
// their stable string identifiers in JSON responses.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, accepting the
// identifiers String produces. Anything unrecognized decodes as
// StatusGray, mirroring the zero value.
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "green":
		*s = StatusGreen
	case "orange":
		*s = StatusOrange
	case "red":
		*s = StatusRed
	default:
		*s = StatusGray
	}
	return nil
}
