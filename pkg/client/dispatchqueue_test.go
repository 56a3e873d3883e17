package client

import (
	"testing"

	"github.com/chris-alexander-pop/openwire-client/pkg/openwire/commands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dispatchWithSeq(seq int64) *commands.MessageDispatch {
	return &commands.MessageDispatch{
		Message: &commands.Message{
			MessageId: &commands.MessageId{ProducerSequenceId: seq},
		},
	}
}

func TestDispatchQueueFIFO(t *testing.T) {
	q := newDispatchQueue(4)
	for i := int64(1); i <= 100; i++ {
		q.PushBack(dispatchWithSeq(i))
	}
	require.Equal(t, 100, q.Len())
	for i := int64(1); i <= 100; i++ {
		md, ok := q.PopFront()
		require.True(t, ok)
		assert.Equal(t, i, md.Message.GetMessage().MessageId.ProducerSequenceId)
	}
	_, ok := q.PopFront()
	assert.False(t, ok)
}

func TestDispatchQueuePushFrontPreservesRedeliveryOrder(t *testing.T) {
	q := newDispatchQueue(4)
	q.PushBack(dispatchWithSeq(3))

	// Two rolled-back messages rewind onto the front, oldest outermost.
	q.PushFront(dispatchWithSeq(2))
	q.PushFront(dispatchWithSeq(1))

	for i := int64(1); i <= 3; i++ {
		md, ok := q.PopFront()
		require.True(t, ok)
		assert.Equal(t, i, md.Message.GetMessage().MessageId.ProducerSequenceId)
	}
}

func TestDispatchQueueGrowsAcrossWrap(t *testing.T) {
	q := newDispatchQueue(4)
	for i := int64(1); i <= 3; i++ {
		q.PushBack(dispatchWithSeq(i))
	}
	q.PopFront()
	q.PopFront()
	// Head is offset; force growth and check order survives.
	for i := int64(4); i <= 40; i++ {
		q.PushBack(dispatchWithSeq(i))
	}
	for i := int64(3); i <= 40; i++ {
		md, ok := q.PopFront()
		require.True(t, ok)
		assert.Equal(t, i, md.Message.GetMessage().MessageId.ProducerSequenceId)
	}
}
