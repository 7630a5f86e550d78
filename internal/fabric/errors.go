package fabric

import (
	"encoding/json"
	"fmt"
)

// NotificationLevel tells the command layer how to surface a failure. The
// client itself never shows UI.
type NotificationLevel string

const (
	NotifyError   NotificationLevel = "error"
	NotifyWarning NotificationLevel = "warning"
	NotifyInfo    NotificationLevel = "info"
)

// learnMoreLinks maps known API error codes to documentation. Only 4xx
// responses get a link; transient server errors do not.
var learnMoreLinks = map[string]string{
	"CapacityNotActive":            "https://learn.microsoft.com/fabric/enterprise/licenses",
	"InsufficientPrivileges":       "https://learn.microsoft.com/fabric/admin/roles",
	"FeatureNotAvailable":          "https://learn.microsoft.com/fabric/enterprise/licenses",
	"CorePropertyNotSet":           "https://learn.microsoft.com/fabric/admin/tenant-settings-index",
	"ItemDisplayNameAlreadyInUse":  "https://learn.microsoft.com/fabric/fundamentals/workspaces",
	"WorkspaceItemsLimitExceeded":  "https://learn.microsoft.com/fabric/enterprise/licenses",
	"PrincipalTypeNotSupported":    "https://learn.microsoft.com/fabric/admin/service-principal",
	"RequiredDelegatedScopeMissed": "https://learn.microsoft.com/rest/api/fabric/articles/scopes",
}

// APIError is a non-2xx response from the Fabric API, carried all the way to
// the command layer which decides how to notify the user.
type APIError struct {
	StatusCode  int
	ErrorCode   string
	UserMessage string
	RequestID   string
	Level       NotificationLevel
}

func (e *APIError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("fabric api: %s (%s, http %d)", e.UserMessage, e.ErrorCode, e.StatusCode)
	}
	return fmt.Sprintf("fabric api: %s (http %d)", e.UserMessage, e.StatusCode)
}

// LearnMoreURL returns a documentation link for known 4xx error codes, or "".
func (e *APIError) LearnMoreURL() string {
	if e.StatusCode < 400 || e.StatusCode >= 500 {
		return ""
	}
	return learnMoreLinks[e.ErrorCode]
}

// Retryable reports whether the failure is worth retrying as-is. Synthetic
// timeouts and 5xx qualify; 4xx never does.
func (e *APIError) Retryable() bool {
	return e.StatusCode == 408 || e.StatusCode == 429 || e.StatusCode >= 500
}

// OperationError is raised when a long-running operation itself reports
// Failed. It is distinct from transport errors mid-poll, which instead fall
// back to the original 202 response.
type OperationError struct {
	OperationID string
	ErrorCode   string
	Message     string
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("operation %s failed: %s (%s)", e.OperationID, e.Message, e.ErrorCode)
}

// apiErrorBody is the standard error envelope the API returns.
type apiErrorBody struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// ErrorFromResponse converts a non-2xx Response into a typed error. A 2xx
// response yields nil.
func ErrorFromResponse(resp *Response) error {
	if apiErr := errorFromResponse(resp); apiErr != nil {
		return apiErr
	}
	return nil
}

// errorFromResponse converts a non-2xx Response into an *APIError. A 2xx
// response yields nil.
func errorFromResponse(resp *Response) *APIError {
	if resp.IsSuccess() {
		return nil
	}

	var body apiErrorBody
	_ = json.Unmarshal(resp.Body, &body)

	msg := body.Message
	if msg == "" {
		msg = fmt.Sprintf("request failed with status %d", resp.StatusCode)
	}

	level := NotifyError
	if resp.StatusCode == 408 || resp.StatusCode == 429 {
		level = NotifyWarning
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		ErrorCode:   body.ErrorCode,
		UserMessage: msg,
		RequestID:   body.RequestID,
		Level:       level,
	}
}
