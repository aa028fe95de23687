package domain

// ResourceType identifies which concrete content entity a Resource points at.
type ResourceType string

const (
	ResourceTypeFile    ResourceType = "file"
	ResourceTypeMeeting ResourceType = "meeting"
	ResourceTypeWebsite ResourceType = "website"
)

// ResourceStatus is the lifecycle state of a Resource. A resource starts
// pending and moves to exactly one of failed or available; neither terminal
// state is transitioned further by this layer.
type ResourceStatus string

const (
	ResourceStatusPending   ResourceStatus = "pending"
	ResourceStatusFailed    ResourceStatus = "failed"
	ResourceStatusAvailable ResourceStatus = "available"
)

// Meeting recording kinds as delivered by the meeting provider.
const (
	RecordingTypeAudio = "audio"
	RecordingTypeVideo = "video"

	RecordingSubtypeMixed       = "mixed"
	RecordingSubtypeOneWay      = "one-way"
	RecordingSubtypeShare       = "share"
	RecordingSubtypeInterpreter = "interpreter"
)
