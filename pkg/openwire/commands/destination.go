package commands

import (
	"strconv"
	"strings"
)

// CompositeSeparator joins the child names of a composite destination.
const CompositeSeparator = ","

// Destination is one of the four ActiveMQ destination variants. The physical
// name is the broker-side name; a name containing CompositeSeparator
// addresses every listed destination at once.
type Destination interface {
	DataStructure
	PhysicalName() string
	IsQueue() bool
	IsTopic() bool
	IsTemporary() bool
	IsComposite() bool
	CompositeNames() []string
}

type baseDestination struct {
	Name string
}

func (d *baseDestination) PhysicalName() string { return d.Name }

func (d *baseDestination) IsComposite() bool {
	return strings.Contains(d.Name, CompositeSeparator)
}

func (d *baseDestination) CompositeNames() []string {
	if !d.IsComposite() {
		return []string{d.Name}
	}
	return strings.Split(d.Name, CompositeSeparator)
}

// Queue is a point-to-point destination.
type Queue struct{ baseDestination }

func NewQueue(name string) *Queue { return &Queue{baseDestination{Name: name}} }

func (q *Queue) DataStructureType() byte { return TypeQueue }
func (q *Queue) IsQueue() bool           { return true }
func (q *Queue) IsTopic() bool           { return false }
func (q *Queue) IsTemporary() bool       { return false }
func (q *Queue) String() string          { return "queue://" + q.Name }

// Topic is a publish-subscribe destination.
type Topic struct{ baseDestination }

func NewTopic(name string) *Topic { return &Topic{baseDestination{Name: name}} }

func (t *Topic) DataStructureType() byte { return TypeTopic }
func (t *Topic) IsQueue() bool           { return false }
func (t *Topic) IsTopic() bool           { return true }
func (t *Topic) IsTemporary() bool       { return false }
func (t *Topic) String() string          { return "topic://" + t.Name }

// TempQueue is a queue scoped to the lifetime of the creating connection.
// Its physical name embeds the owning connection id so the broker can
// garbage-collect it when the connection dies.
type TempQueue struct{ baseDestination }

func NewTempQueue(connectionId string, sequence int64) *TempQueue {
	return &TempQueue{baseDestination{Name: tempName(connectionId, sequence)}}
}

func NewTempQueueFromName(name string) *TempQueue {
	return &TempQueue{baseDestination{Name: name}}
}

func (q *TempQueue) DataStructureType() byte { return TypeTempQueue }
func (q *TempQueue) IsQueue() bool           { return true }
func (q *TempQueue) IsTopic() bool           { return false }
func (q *TempQueue) IsTemporary() bool       { return true }
func (q *TempQueue) String() string          { return "temp-queue://" + q.Name }

// TempTopic is a topic scoped to the lifetime of the creating connection.
type TempTopic struct{ baseDestination }

func NewTempTopic(connectionId string, sequence int64) *TempTopic {
	return &TempTopic{baseDestination{Name: tempName(connectionId, sequence)}}
}

func NewTempTopicFromName(name string) *TempTopic {
	return &TempTopic{baseDestination{Name: name}}
}

func (t *TempTopic) DataStructureType() byte { return TypeTempTopic }
func (t *TempTopic) IsQueue() bool           { return false }
func (t *TempTopic) IsTopic() bool           { return true }
func (t *TempTopic) IsTemporary() bool       { return true }
func (t *TempTopic) String() string          { return "temp-topic://" + t.Name }

func tempName(connectionId string, sequence int64) string {
	return connectionId + ":" + strconv.FormatInt(sequence, 10)
}

// NewDestination builds a destination of the given wire type.
func NewDestination(typeCode byte, physicalName string) Destination {
	switch typeCode {
	case TypeQueue:
		return NewQueue(physicalName)
	case TypeTopic:
		return NewTopic(physicalName)
	case TypeTempQueue:
		return NewTempQueueFromName(physicalName)
	case TypeTempTopic:
		return NewTempTopicFromName(physicalName)
	default:
		return nil
	}
}

// TempDestinationOwner extracts the connection id embedded in a temporary
// destination's physical name, or "" if the destination is not temporary.
func TempDestinationOwner(d Destination) string {
	if d == nil || !d.IsTemporary() {
		return ""
	}
	name := d.PhysicalName()
	idx := strings.LastIndex(name, ":")
	if idx < 0 {
		return ""
	}
	return name[:idx]
}
