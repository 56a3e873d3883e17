package transport

import (
	"testing"
	"time"

	"github.com/chris-alexander-pop/openwire-client/pkg/openwire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleURI(t *testing.T) {
	uri, err := ParseURI("tcp://broker.example.com:61616?wireFormat.cacheSize=256&transport.tcpNoDelay=false")
	require.NoError(t, err)
	assert.Equal(t, "tcp", uri.Scheme)
	assert.Equal(t, "broker.example.com", uri.Host)
	assert.Equal(t, "61616", uri.Port)
	assert.Equal(t, "broker.example.com:61616", uri.Address())
	assert.Equal(t, "256", uri.Options["wireFormat.cacheSize"])
	assert.Equal(t, "false", uri.Options["transport.tcpNoDelay"])
	assert.False(t, uri.IsComposite())
}

func TestParseURIRequiresScheme(t *testing.T) {
	_, err := ParseURI("localhost:61616")
	require.Error(t, err)
}

func TestParseFailoverURI(t *testing.T) {
	uri, err := ParseURI("failover://(tcp://a:61616,tcp://b:61617?wireFormat.cacheEnabled=false)?randomize=false&maxReconnectAttempts=3")
	require.NoError(t, err)
	assert.Equal(t, "failover", uri.Scheme)
	require.True(t, uri.IsComposite())
	require.Len(t, uri.Members, 2)
	assert.Equal(t, "a:61616", uri.Members[0].Address())
	assert.Equal(t, "b:61617", uri.Members[1].Address())
	assert.Equal(t, "false", uri.Members[1].Options["wireFormat.cacheEnabled"])
	assert.Equal(t, "false", uri.Options["randomize"])
	assert.Equal(t, "3", uri.Options["maxReconnectAttempts"])
}

func TestParseCompositeRejectsEmpty(t *testing.T) {
	_, err := ParseURI("failover://()?randomize=false")
	require.Error(t, err)
}

func TestEnvExpansion(t *testing.T) {
	t.Setenv("TEST_BROKER_HOST", "broker-1")
	t.Setenv("TEST_BROKER_PORT", "61616")

	uri, err := ParseURI("tcp://${TEST_BROKER_HOST}:${TEST_BROKER_PORT}")
	require.NoError(t, err)
	assert.Equal(t, "broker-1:61616", uri.Address())
}

func TestEnvExpansionFailsOnUnsetVariable(t *testing.T) {
	_, err := ParseURI("tcp://${DEFINITELY_NOT_SET_ANYWHERE_12345}:61616")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEFINITELY_NOT_SET_ANYWHERE_12345")
}

func TestApplyURIOptionsOntoWireFormat(t *testing.T) {
	uri, err := ParseURI("tcp://localhost:61616?wireFormat.tightEncodingEnabled=false&wireFormat.maxInactivityDuration=2000&wireFormat.maxFrameSize=1048576&unknown.option=x")
	require.NoError(t, err)

	opts := openwire.DefaultOptions()
	unknown, err := ApplyURIOptions(&opts, uri)
	require.NoError(t, err)
	assert.False(t, opts.TightEncodingEnabled)
	assert.Equal(t, 2*time.Second, opts.MaxInactivityDuration)
	assert.Equal(t, int64(1048576), opts.MaxFrameSize)
	assert.Contains(t, unknown, "unknown.option")
}

func TestApplyURIOptionsRejectsBadValue(t *testing.T) {
	uri, err := ParseURI("tcp://localhost:61616?wireFormat.cacheSize=banana")
	require.NoError(t, err)
	opts := openwire.DefaultOptions()
	_, err = ApplyURIOptions(&opts, uri)
	require.Error(t, err)
}
