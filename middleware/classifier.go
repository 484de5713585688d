package middleware

import (
	"strings"

	"github.com/aquafarm-pro/tenantcore/quota"
)

// ClassifierFunc maps a request path to its endpoint class
type ClassifierFunc func(path string) quota.EndpointClass

// PrefixClassifier the default path classifier: known path prefixes map to
// their class, everything else is plain api traffic
func PrefixClassifier(path string) quota.EndpointClass {
	switch {
	case strings.HasPrefix(path, "/api/auth"):
		return quota.ClassAuth
	case strings.HasPrefix(path, "/api/upload"):
		return quota.ClassUpload
	case strings.HasPrefix(path, "/api/ai"):
		return quota.ClassInference
	case strings.HasPrefix(path, "/api/iot"):
		return quota.ClassTelemetry
	default:
		return quota.ClassAPI
	}
}
