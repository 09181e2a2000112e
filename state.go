package rill

// OperationKind distinguishes the independent operation slots. At most one
// operation of each kind is active at a time.
type OperationKind int

const (
	KindChat OperationKind = iota
	KindDownload
)

func (k OperationKind) String() string {
	switch k {
	case KindChat:
		return "chat"
	case KindDownload:
		return "download"
	default:
		return "unknown"
	}
}

// ChatState is the lifecycle state of a chat stream.
//
//	Idle -> Sending -> Streaming -> {Completed | Cancelled | Failed}
//
// Sending may also move directly to any terminal state.
type ChatState int

const (
	ChatIdle ChatState = iota
	ChatSending
	ChatStreaming
	ChatCompleted
	ChatCancelled
	ChatFailed
)

// Terminal reports whether no further transitions are possible.
func (s ChatState) Terminal() bool {
	return s == ChatCompleted || s == ChatCancelled || s == ChatFailed
}

func (s ChatState) String() string {
	switch s {
	case ChatIdle:
		return "idle"
	case ChatSending:
		return "sending"
	case ChatStreaming:
		return "streaming"
	case ChatCompleted:
		return "completed"
	case ChatCancelled:
		return "cancelled"
	case ChatFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DownloadState is the lifecycle state of a model download stream.
//
//	Idle -> Pulling -> {Succeeded | Failed}
type DownloadState int

const (
	DownloadIdle DownloadState = iota
	DownloadPulling
	DownloadSucceeded
	DownloadFailed
)

// Terminal reports whether no further transitions are possible.
func (s DownloadState) Terminal() bool {
	return s == DownloadSucceeded || s == DownloadFailed
}

func (s DownloadState) String() string {
	switch s {
	case DownloadIdle:
		return "idle"
	case DownloadPulling:
		return "pulling"
	case DownloadSucceeded:
		return "succeeded"
	case DownloadFailed:
		return "failed"
	default:
		return "unknown"
	}
}
