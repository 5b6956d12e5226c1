package telemetry

import "time"

// Kind identifies a record class.
type Kind int

const (
	KindErrorRecord Kind = iota
	KindAPIKey
)

const (
	// ErrorRecordTTL is how long the error namespace lives after initialization.
	ErrorRecordTTL = 24 * time.Hour
	// APIKeyTTL is how long the api key namespace lives after initialization.
	APIKeyTTL = 12 * time.Hour
)

func (k Kind) String() string {
	switch k {
	case KindErrorRecord:
		return "error_record"
	case KindAPIKey:
		return "api_key"
	default:
		return "unknown"
	}
}

// Class binds a record kind to its cache namespace and TTL policy.
type Class struct {
	Kind      Kind
	Namespace string
	TTL       time.Duration
}

// ErrorRecordClass returns the class for error records cached under namespace.
func ErrorRecordClass(namespace string) Class {
	return Class{Kind: KindErrorRecord, Namespace: namespace, TTL: ErrorRecordTTL}
}

// APIKeyClass returns the class for api key hashes cached under namespace.
func APIKeyClass(namespace string) Class {
	return Class{Kind: KindAPIKey, Namespace: namespace, TTL: APIKeyTTL}
}
