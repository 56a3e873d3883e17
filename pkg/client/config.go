package client

import (
	"time"

	"github.com/chris-alexander-pop/openwire-client/pkg/config"
)

// Config carries the connection-level options. Fields load from the
// environment via pkg/config and overlay from broker URI query options.
type Config struct {
	// ClientID identifies the connection to the broker; generated when
	// empty. Durable subscriptions require a stable value.
	ClientID string `env:"BROKER_CLIENT_ID" opt:"connection.clientID"`

	UserName string `env:"BROKER_USERNAME" opt:"connection.userName"`
	Password string `env:"BROKER_PASSWORD" opt:"connection.password"`

	// AlwaysSyncSend forces every send, persistent or not, through
	// request/response.
	AlwaysSyncSend bool `env:"BROKER_ALWAYS_SYNC_SEND" env-default:"false" opt:"connection.alwaysSyncSend"`

	// UseAsyncSend lets persistent sends skip the response wait too.
	UseAsyncSend bool `env:"BROKER_USE_ASYNC_SEND" env-default:"false" opt:"connection.useAsyncSend"`

	// ProducerWindowSize bounds the bytes a producer may have in flight
	// before the broker must acknowledge some. Zero disables windowing.
	ProducerWindowSize int32 `env:"BROKER_PRODUCER_WINDOW" env-default:"0" opt:"connection.producerWindowSize" validate:"min=0"`

	// SendTimeout bounds the response wait of a synchronous send. Zero
	// waits indefinitely.
	SendTimeout time.Duration `env:"BROKER_SEND_TIMEOUT" env-default:"0ms" opt:"connection.sendTimeout"`

	// UseCompression compresses message bodies on send.
	UseCompression bool `env:"BROKER_USE_COMPRESSION" env-default:"false" opt:"connection.useCompression"`

	// DispatchAsync asks the broker to dispatch to consumers from its async
	// delivery threads.
	DispatchAsync bool `env:"BROKER_DISPATCH_ASYNC" env-default:"true" opt:"connection.dispatchAsync"`

	// PrefetchSize is the default consumer prefetch.
	PrefetchSize int32 `env:"BROKER_PREFETCH" env-default:"1000" opt:"connection.prefetchSize" validate:"min=0"`

	// RequestTimeout bounds broker round trips for lifecycle commands
	// (connection, session, producer, consumer setup). Zero waits forever.
	RequestTimeout time.Duration `env:"BROKER_REQUEST_TIMEOUT" env-default:"30s" opt:"connection.requestTimeout"`

	Redelivery RedeliveryPolicy
}

// DefaultConfig loads the connection defaults from the environment.
func DefaultConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
