package rpc

// Empty is the request or response of calls without a payload.
type Empty struct{}

// CoreState is the lifecycle state of the core process.
type CoreState string

const (
	CoreStopped  CoreState = "STOPPED"
	CoreStarting CoreState = "STARTING"
	CoreStarted  CoreState = "STARTED"
	CoreStopping CoreState = "STOPPING"
)

// Valid reports whether s is one of the four lifecycle states.
func (s CoreState) Valid() bool {
	switch s {
	case CoreStopped, CoreStarting, CoreStarted, CoreStopping:
		return true
	default:
		return false
	}
}

// MessageType qualifies a core status update.
type MessageType string

const (
	MessageEmpty               MessageType = "EMPTY"
	MessageEmptyConfiguration  MessageType = "EMPTY_CONFIGURATION"
	MessageStartCommandServer  MessageType = "START_COMMAND_SERVER"
	MessageCreateService       MessageType = "CREATE_SERVICE"
	MessageStartService        MessageType = "START_SERVICE"
	MessageUnexpectedError     MessageType = "UNEXPECTED_ERROR"
	MessageAlreadyStarted      MessageType = "ALREADY_STARTED"
	MessageAlreadyStopped      MessageType = "ALREADY_STOPPED"
	MessageInstanceNotFound    MessageType = "INSTANCE_NOT_FOUND"
	MessageInstanceNotStopped  MessageType = "INSTANCE_NOT_STOPPED"
	MessageInstanceNotStarted  MessageType = "INSTANCE_NOT_STARTED"
	MessageErrorBuildingConfig MessageType = "ERROR_BUILDING_CONFIG"
	MessageErrorParsingConfig  MessageType = "ERROR_PARSING_CONFIG"
	MessageErrorReadingConfig  MessageType = "ERROR_READING_CONFIG"
	MessageErrorExtension      MessageType = "ERROR_EXTENSION"
)

// Failure reports whether t describes a core error rather than progress.
func (t MessageType) Failure() bool {
	switch t {
	case MessageEmptyConfiguration, MessageUnexpectedError, MessageInstanceNotFound,
		MessageInstanceNotStopped, MessageInstanceNotStarted, MessageErrorBuildingConfig,
		MessageErrorParsingConfig, MessageErrorReadingConfig, MessageErrorExtension:
		return true
	}
	return false
}

// ResponseCode is the application-level outcome of a unary call.
type ResponseCode string

const (
	ResponseOK     ResponseCode = "OK"
	ResponseFailed ResponseCode = "FAILED"
)

// CoreInfoResponse reports the core state.
type CoreInfoResponse struct {
	CoreState   CoreState   `json:"coreState"`
	MessageType MessageType `json:"messageType,omitempty"`
	Message     string      `json:"message,omitempty"`
}

// StartRequest asks the core to start with a configuration.
type StartRequest struct {
	ConfigPath         string `json:"configPath,omitempty"`
	ConfigContent      string `json:"configContent,omitempty"`
	EnableRawConfig    bool   `json:"enableRawConfig,omitempty"`
	DisableMemoryLimit bool   `json:"disableMemoryLimit,omitempty"`
	DelayStart         bool   `json:"delayStart,omitempty"`
}

// ParseRequest asks the core to normalise a configuration.
type ParseRequest struct {
	Content    string `json:"content,omitempty"`
	ConfigPath string `json:"configPath,omitempty"`
	TempPath   string `json:"tempPath,omitempty"`
	Debug      bool   `json:"debug,omitempty"`
}

// ParseResponse carries the parsed configuration or the parse error.
type ParseResponse struct {
	ResponseCode ResponseCode `json:"responseCode"`
	Content      string       `json:"content,omitempty"`
	Message      string       `json:"message,omitempty"`
}

// ChangeSettingsRequest pushes operator settings as a JSON document.
type ChangeSettingsRequest struct {
	SettingsJSON string `json:"settingsJson"`
}

// ExtensionMsg is one row of the extension listing.
type ExtensionMsg struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Enable      bool   `json:"enable"`
}

// ExtensionList is the listing response.
type ExtensionList struct {
	Extensions []ExtensionMsg `json:"extensions"`
}

// EditExtensionRequest toggles an extension.
type EditExtensionRequest struct {
	ExtensionID string `json:"extensionId"`
	Enable      bool   `json:"enable"`
}

// ExtensionRequest addresses one extension, optionally with extra data.
type ExtensionRequest struct {
	ExtensionID string            `json:"extensionId"`
	Data        map[string]string `json:"data,omitempty"`
}

// SendExtensionDataRequest submits a form to an extension.
type SendExtensionDataRequest struct {
	ExtensionID string            `json:"extensionId"`
	Button      string            `json:"button"`
	Data        map[string]string `json:"data,omitempty"`
}

// ExtensionResponseType classifies a push on the extension stream.
type ExtensionResponseType string

const (
	ExtensionUpdateUI   ExtensionResponseType = "UPDATE_UI"
	ExtensionShowDialog ExtensionResponseType = "SHOW_DIALOG"
	ExtensionEnd        ExtensionResponseType = "END"
)

// ExtensionResponse is one push on the extension stream. JSONUI holds a
// form document.
type ExtensionResponse struct {
	ExtensionID string                `json:"extensionId"`
	Type        ExtensionResponseType `json:"type"`
	JSONUI      string                `json:"jsonUi,omitempty"`
}

// ExtensionActionResult is the outcome of an extension unary call.
type ExtensionActionResult struct {
	ExtensionID string       `json:"extensionId"`
	Code        ResponseCode `json:"code"`
	Message     string       `json:"message,omitempty"`
}
